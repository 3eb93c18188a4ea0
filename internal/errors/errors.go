package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an operation outcome for callers and the HTTP layer.
type Kind string

const (
	KindNotFound                Kind = "not_found"
	KindConflict                Kind = "conflict"
	KindInvalidInput            Kind = "invalid_input"
	KindCodeGenerationExhausted Kind = "code_generation_exhausted"
	KindRefundFailed            Kind = "refund_failed"
	KindProcessorUnavailable    Kind = "processor_unavailable"
	KindInternal                Kind = "internal"
)

// Error is a kinded error. NotFound/Conflict/InvalidInput are terminal
// client-facing outcomes; RefundFailed/ProcessorUnavailable leave no local
// mutation behind and are safe to retry.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

func NotFound(msg string) *Error         { return New(KindNotFound, msg) }
func Conflict(msg string) *Error         { return New(KindConflict, msg) }
func InvalidInput(msg string) *Error     { return New(KindInvalidInput, msg) }
func RefundFailed(err error) *Error      { return Wrap(KindRefundFailed, "refund rejected by processor", err) }
func ProcessorUnavailable(err error) *Error {
	return Wrap(KindProcessorUnavailable, "payment processor unavailable", err)
}

// KindOf extracts the kind from any error in the chain, defaulting to internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether the caller may safely re-run the operation.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindRefundFailed, KindProcessorUnavailable:
		return true
	}
	return false
}
