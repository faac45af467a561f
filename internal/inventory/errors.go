package inventory

import "fmt"

// NoHostsError reports a pattern that matched no hosts. It is not a failure.
type NoHostsError struct {
	Pattern string
}

func (e *NoHostsError) Error() string {
	return fmt.Sprintf("no hosts matched pattern %q", e.Pattern)
}

// FileMissingError reports an inventory that does not exist.
type FileMissingError struct {
	Path string
}

func (e *FileMissingError) Error() string {
	return "Inventory file missing: " + e.Path
}

// Error reports an inventory that could not be read or parsed.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid inventory: %v", e.Err)
	}
	return fmt.Sprintf("invalid inventory %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
