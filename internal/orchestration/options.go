package orchestration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/imamik/shepherd/internal/metrics"
	"github.com/imamik/shepherd/internal/provider"
	"github.com/imamik/shepherd/internal/util/rdns"
)

// Polling defaults.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxPoll      = 20
	MaxParallelism      = 64
)

// Options are the run-wide settings every cohort consults.
type Options struct {
	DryRun  bool
	Confirm bool

	// OnlyRunning and OnlyStopped filter status output.
	OnlyRunning bool `validate:"excluded_with=OnlyStopped"`
	OnlyStopped bool

	Poll         bool
	PollInterval time.Duration `validate:"gte=0"`
	MaxPoll      int           `validate:"gte=1"`

	// Parallelism bounds how many regions of one provider are handled at
	// once. 1 keeps the sequential behaviour.
	Parallelism int `validate:"gte=1,lte=64"`

	Verbose int
	Debug   int
}

// DefaultOptions returns the options used when no flag overrides them.
func DefaultOptions() Options {
	return Options{
		PollInterval: DefaultPollInterval,
		MaxPoll:      DefaultMaxPoll,
		Parallelism:  1,
		Verbose:      1,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the options and reports violations as a command-line error.
func (o Options) Validate() error {
	validateOnce.Do(func() { validate = validator.New() })

	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return provider.Wrap(provider.KindCommandline, err, "invalid options")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeViolation(fe))
	}
	return provider.Errorf(provider.KindCommandline, "%s", strings.Join(msgs, "; "))
}

func describeViolation(fe validator.FieldError) string {
	switch fe.Field() {
	case "OnlyRunning":
		return "--running and --stopped are mutually exclusive"
	case "PollInterval":
		return "poll interval must not be negative"
	case "MaxPoll":
		return "max poll must be at least 1"
	case "Parallelism":
		return fmt.Sprintf("parallelism must be between 1 and %d", MaxParallelism)
	default:
		return fmt.Sprintf("invalid %s (%s)", fe.Field(), fe.Tag())
	}
}

// RunContext carries everything one invocation shares between cohorts.
// It is built once per run and never stored globally.
type RunContext struct {
	Opts Options
	// Out receives status lines and verbose summaries.
	Out io.Writer
	Log zerolog.Logger
	// Resolver fills in a missing FQDN for full status. Nil disables it.
	Resolver rdns.Resolver
	// Metrics may be nil.
	Metrics *metrics.Recorder
	// Sleep replaces the poll interval wait in tests.
	Sleep func(ctx context.Context, d time.Duration) error
}
