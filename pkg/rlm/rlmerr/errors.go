// Package rlmerr defines the error taxonomy shared by the driver, the
// provider layer, and the CLI. Every failure surfaced to the user belongs to
// exactly one kind, and every kind maps to exactly one process exit code.
package rlmerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error for exit-code mapping.
type Kind int

const (
	// KindGeneric is an unclassified failure.
	KindGeneric Kind = iota
	// KindUsage is a bad-arguments failure (CLI misuse).
	KindUsage
	// KindConfig is an invalid environment or configuration file.
	KindConfig
	// KindProxy is a network or HTTP failure against the model proxy.
	KindProxy
	// KindModel is an unusable model catalog (e.g. empty /models response).
	KindModel
	// KindRuntime is a mid-run failure: budget exceeded, call limit
	// exhausted, or an unknown error inside the turn loop.
	KindRuntime
	// KindOutput is a failure to persist the final result.
	KindOutput
	// KindInterrupted is a user-initiated cancellation.
	KindInterrupted
)

// Exit codes, one per kind. Consumed by the CLI.
const (
	ExitOK          = 0
	ExitGeneric     = 1
	ExitUsage       = 2
	ExitConfig      = 3
	ExitProxy       = 4
	ExitModel       = 5
	ExitRuntime     = 6
	ExitOutputWrite = 7
	ExitInterrupted = 130
)

// ExitCode returns the process exit code for the kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindUsage:
		return ExitUsage
	case KindConfig:
		return ExitConfig
	case KindProxy:
		return ExitProxy
	case KindModel:
		return ExitModel
	case KindRuntime:
		return ExitRuntime
	case KindOutput:
		return ExitOutputWrite
	case KindInterrupted:
		return ExitInterrupted
	default:
		return ExitGeneric
	}
}

// String returns the kind name used in error prefixes.
func (k Kind) String() string {
	switch k {
	case KindUsage:
		return "usage"
	case KindConfig:
		return "config"
	case KindProxy:
		return "proxy"
	case KindModel:
		return "model"
	case KindRuntime:
		return "runtime"
	case KindOutput:
		return "output"
	case KindInterrupted:
		return "interrupted"
	default:
		return "error"
	}
}

// Error is a kinded error. It wraps an underlying cause so callers can still
// use errors.Is/errors.As on the chain.
type Error struct {
	Kind Kind
	Err  error
}

// Error returns the underlying message.
func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a kinded error from a format string.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind to err. A nil err returns nil. If err already carries
// a kind, the original kind wins — classification happens at the failure
// site, not at the boundary.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var ke *Error
	if errors.As(err, &ke) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the kind from an error chain. Unkinded errors are generic.
func KindOf(err error) Kind {
	var ke *Error
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return KindGeneric
}

// Redact removes the given secrets from s. Applied to every error string
// before it reaches stderr so bearer tokens and API keys never leak into
// terminal output or shell history.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, "[REDACTED]")
	}
	return s
}
