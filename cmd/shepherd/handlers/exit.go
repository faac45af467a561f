package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/imamik/shepherd/internal/inventory"
	"github.com/imamik/shepherd/internal/provider"
)

// Process exit codes.
const (
	ExitOK               = 0
	ExitUsage            = 1
	ExitMissingInstance  = 3
	ExitInstance         = 4
	ExitProvider         = 5
	ExitInventoryParse   = 6
	ExitInventoryMissing = 7
	ExitNetwork          = 8
	ExitAuth             = 10
)

// ExitCode maps a run error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var noHosts *inventory.NoHostsError
	var missing *inventory.FileMissingError
	var invErr *inventory.Error
	switch {
	case errors.As(err, &noHosts):
		return ExitOK
	case errors.As(err, &missing):
		return ExitInventoryMissing
	case errors.As(err, &invErr):
		return ExitInventoryParse
	}

	kind, ok := provider.KindOf(err)
	if !ok {
		return ExitUsage
	}
	switch kind {
	case provider.KindCommandline, provider.KindAction:
		return ExitUsage
	case provider.KindMissingInstance:
		return ExitMissingInstance
	case provider.KindInstance:
		return ExitInstance
	case provider.KindProvider, provider.KindConfig:
		return ExitProvider
	case provider.KindNetwork:
		return ExitNetwork
	case provider.KindAuth:
		return ExitAuth
	default:
		return ExitUsage
	}
}

// IsUsageError reports whether err should be followed by the usage text.
func IsUsageError(err error) bool {
	return provider.IsKind(err, provider.KindCommandline) || provider.IsKind(err, provider.KindAction)
}

// Report writes the user-facing message for err to w and returns the
// exit code. Missing instances were already logged per host and print
// nothing more.
func Report(w io.Writer, err error) int {
	code := ExitCode(err)
	if err == nil {
		return code
	}

	var noHosts *inventory.NoHostsError
	switch {
	case errors.As(err, &noHosts):
		_, _ = fmt.Fprintln(w, "No instances matched")
	case errors.Is(err, context.Canceled):
		_, _ = fmt.Fprintln(w, "Interrupted")
	case code == ExitMissingInstance:
	case code == ExitAuth:
		_, _ = fmt.Fprintf(w, "%v: check ~/.aws/credentials, or use appropriate option\n", err)
	case code == ExitNetwork:
		_, _ = fmt.Fprintf(w, "Can't connect to endpoint: %v\n", err)
	default:
		_, _ = fmt.Fprintln(w, err)
	}
	return code
}
