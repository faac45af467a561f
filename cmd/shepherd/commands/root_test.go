package commands

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/shepherd/cmd/shepherd/handlers"
	"github.com/imamik/shepherd/internal/provider"
)

func TestRoot(t *testing.T) {
	cmd := Root()

	require.NotNil(t, cmd)
	assert.Equal(t, "shepherd", cmd.Name())
	assert.Equal(t, "Manage the lifecycle of cloud instances listed in an Ansible inventory", cmd.Short)
}

func TestRoot_HasSubcommands(t *testing.T) {
	cmd := Root()

	subcommands := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		subcommands[sub.Name()] = true
	}

	for _, expected := range []string{"version", "completion"} {
		assert.True(t, subcommands[expected], "Expected subcommand %s not found", expected)
	}
	assert.Len(t, cmd.Commands(), 2)
}

func TestRoot_Flags(t *testing.T) {
	cmd := Root()

	shorthands := map[string]string{
		"inventory-file": "i",
		"config":         "c",
		"confirm":        "y",
		"dry-run":        "n",
		"poll":           "w",
		"interval":       "s",
		"max-poll":       "m",
		"running":        "R",
		"stopped":        "S",
		"verbose":        "v",
		"quiet":          "q",
		"debug":          "d",
		"profile":        "p",
		"parallel":       "j",
	}
	for name, short := range shorthands {
		f := cmd.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Equal(t, short, f.Shorthand, name)
	}
	assert.NotNil(t, cmd.Flags().Lookup("metrics-file"))
	assert.NotNil(t, cmd.Flags().Lookup("log-file"))
}

// captureRun swaps the handler for one that records its input.
func captureRun(t *testing.T, err error) (*handlers.RunOptions, *handlers.Invocation) {
	t.Helper()

	orig := runHandler
	t.Cleanup(func() { runHandler = orig })

	var gotOpts handlers.RunOptions
	var gotInv handlers.Invocation
	runHandler = func(_ context.Context, opts handlers.RunOptions, inv handlers.Invocation, _, _ io.Writer) error {
		gotOpts, gotInv = opts, inv
		return err
	}
	return &gotOpts, &gotInv
}

func TestExecute_PassesFlags(t *testing.T) {
	opts, inv := captureRun(t, nil)

	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(),
		[]string{"-vv", "-q", "-dd", "-y", "-s", "2", "-j", "4", "-p", "prod", "-i", "hosts.yaml", "web", "destroy"},
		&stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "web", inv.Pattern)
	assert.Equal(t, provider.ActionKill, inv.Action)
	assert.Equal(t, 2, opts.Verbose)
	assert.Equal(t, 1, opts.Quiet)
	assert.Equal(t, 2, opts.Debug)
	assert.True(t, opts.Confirm)
	assert.True(t, opts.IntervalSet)
	assert.Equal(t, 2, opts.Interval)
	assert.False(t, opts.MaxPollSet)
	assert.True(t, opts.ParallelismSet)
	assert.Equal(t, 4, opts.Parallelism)
	assert.Equal(t, "prod", opts.Profile)
	assert.Equal(t, "hosts.yaml", opts.Inventory)
}

func TestExecute_UsageErrors(t *testing.T) {
	captureRun(t, nil)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no arguments", args: nil, want: "Invalid command-line arguments."},
		{name: "unknown action", args: []string{"web", "explode"}, want: "unknown action 'explode'"},
		{name: "unknown flag", args: []string{"--bogus", "web", "stop"}, want: "unknown flag: --bogus"},
		{name: "bad flag value", args: []string{"-s", "soon", "web", "stop"}, want: "invalid argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := Execute(context.Background(), tt.args, &stdout, &stderr)

			assert.Equal(t, handlers.ExitUsage, code)
			assert.Contains(t, stderr.String(), tt.want)
			assert.Contains(t, stderr.String(), "Usage:")
		})
	}
}

func TestExecute_HandlerErrorCode(t *testing.T) {
	captureRun(t, provider.Errorf(provider.KindAuth, "Permission denied"))

	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"web", "stop"}, &stdout, &stderr)

	assert.Equal(t, handlers.ExitAuth, code)
	assert.Equal(t, "Permission denied: check ~/.aws/credentials, or use appropriate option\n", stderr.String())
}

func TestExecute_Version(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	defer SetVersionInfo(origVersion, origCommit, origDate)
	SetVersionInfo("1.2.3", "abc123", "2024-01-01")

	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"version"}, &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Equal(t, "shepherd 1.2.3\n  commit: abc123\n  built:  2024-01-01\n", stdout.String())
}

func TestExecute_Cancelled(t *testing.T) {
	captureRun(t, context.Canceled)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	var stdout, stderr bytes.Buffer
	code := Execute(ctx, []string{"web", "stop"}, &stdout, &stderr)
	assert.Equal(t, handlers.ExitUsage, code)
	assert.Equal(t, "Interrupted\n", stderr.String())
}
