// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/imamik/shepherd/cmd/shepherd/handlers"
	"github.com/imamik/shepherd/internal/provider"
)

// runHandler is replaced in tests.
var runHandler = handlers.Run

// Root returns the root command for the shepherd CLI.
//
// The root command takes the host pattern and the action as positional
// arguments. version and completion are the only subcommands.
func Root() *cobra.Command {
	var opts handlers.RunOptions

	cmd := &cobra.Command{
		Use:   "shepherd [flags] <host-pattern> <action> | <action> <host>... | list",
		Short: "Manage the lifecycle of cloud instances listed in an Ansible inventory",
		Long: `Start, stop, restart, terminate and inspect cloud instances selected
from an Ansible inventory.

Hosts must define cloud_provider (aws or hcloud), cloud_region and
cloud_instance_id. Matching hosts are grouped by provider and region and
each group is handled with one request per action.

Actions:
  status       show the state of each instance
  fullstatus   show state plus addresses, type, network and image
  start        start stopped instances
  stop         stop running instances
  restart      reboot instances
  kill         terminate instances (requires -y)

Aliases: list, dominfo, reboot, shutdown, destroy, terminate, up, reload,
halt, delete and show.

Examples:
  # Status of every host in the inventory
  shepherd list

  # Stop the web group and wait until all instances are stopped
  shepherd -w web stop

  # Start two hosts, checking permissions only
  shepherd -n start web1 web2

  # Terminate everything in the staging group
  shepherd -y staging kill`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := ParseArgs(args)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			opts.IntervalSet = f.Changed("interval")
			opts.MaxPollSet = f.Changed("max-poll")
			opts.ParallelismSet = f.Changed("parallel")
			return runHandler(cmd.Context(), opts, inv, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Inventory, "inventory-file", "i", "", "Inventory path or s3://bucket/key (default: $ANSIBLE_INVENTORY, $ANSIBLE_HOSTS or /etc/ansible/hosts)")
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file (default: $SHEPHERD_CONFIG or ~/.config/shepherd/config.yaml)")
	f.BoolVarP(&opts.Confirm, "confirm", "y", false, "Confirm destructive actions such as kill")
	f.BoolVarP(&opts.DryRun, "dry-run", "n", false, "Validate the request without changing any instance")
	f.BoolVarP(&opts.Poll, "poll", "w", false, "Wait until instances reach the desired state")
	f.IntVarP(&opts.Interval, "interval", "s", 5, "Seconds between polls (implies --poll)")
	f.IntVarP(&opts.MaxPoll, "max-poll", "m", 20, "Maximum number of polls (implies --poll)")
	f.BoolVarP(&opts.Running, "running", "R", false, "Only show running instances")
	f.BoolVarP(&opts.Stopped, "stopped", "S", false, "Only show stopped instances")
	f.CountVarP(&opts.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	f.CountVarP(&opts.Quiet, "quiet", "q", "Decrease verbosity (repeatable)")
	f.CountVarP(&opts.Debug, "debug", "d", "Enable debug logging (repeat for trace)")
	f.StringVarP(&opts.Profile, "profile", "p", "", "AWS shared config profile (default: $AWS_PROFILE, $AWS_DEFAULT_PROFILE)")
	f.IntVarP(&opts.Parallelism, "parallel", "j", 1, "Regions handled concurrently per provider (1-64)")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this path")
	f.StringVar(&opts.LogFile, "log-file", "", "Append log lines to this file instead of stderr")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return provider.Wrap(provider.KindCommandline, err, "")
	})

	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := Root()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	code := handlers.Report(stderr, err)
	if handlers.IsUsageError(err) {
		_, _ = fmt.Fprint(stderr, cmd.UsageString())
	}
	return code
}
