package provider

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure independently of any provider SDK.
type Kind int

// Error kinds, from command-line misuse down to single-instance failures.
const (
	// KindCommandline is bad command-line usage.
	KindCommandline Kind = iota + 1
	// KindAction is an unknown or disallowed action name.
	KindAction
	// KindConfig is an unreadable or invalid configuration file.
	KindConfig
	// KindProvider is an unknown provider, an unsupported region, or a
	// session that could not be established (no credentials).
	KindProvider
	// KindAuth is an authenticated but forbidden request.
	KindAuth
	// KindNetwork is a transport or endpoint connectivity failure.
	KindNetwork
	// KindMissingInstance means the provider does not know one or more IDs.
	KindMissingInstance
	// KindInstance is any other instance-level failure.
	KindInstance
)

var kindNames = map[Kind]string{
	KindCommandline:     "commandline",
	KindAction:          "action",
	KindConfig:          "config",
	KindProvider:        "provider",
	KindAuth:            "auth",
	KindNetwork:         "network",
	KindMissingInstance: "missing_instance",
	KindInstance:        "instance",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure.
type Error struct {
	Kind Kind
	Msg  string
	// IDs lists the instance IDs the failure refers to, if known.
	IDs []string
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if len(e.IDs) > 0 && !strings.Contains(msg, e.IDs[0]) {
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(e.IDs, ", "))
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a classified error with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Missing creates a KindMissingInstance error naming ids.
func Missing(ids []string, msg string) *Error {
	if msg == "" {
		msg = "no such instance"
	}
	return &Error{Kind: KindMissingInstance, Msg: msg, IDs: ids}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// MissingIDs returns the instance IDs carried by a KindMissingInstance error.
func MissingIDs(err error) []string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindMissingInstance {
		return e.IDs
	}
	return nil
}
