// Package errors provides the runtime error taxonomy shared by dispatchers,
// clients and the manifest emitter.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). errors.Is matches on phase and kind, so the exported sentinels can
// be used directly:
//
//	if errors.Is(err, abierrors.ErrUnknownSelector) { ... }
package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where the error occurred
type Phase string

const (
	PhaseDispatch Phase = "dispatch" // inbound call routing
	PhaseClient   Phase = "client"   // outbound call encoding
	PhaseEmit     Phase = "emit"     // manifest output
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidPayload         Kind = "invalid_payload"
	KindUnknownSelector        Kind = "unknown_selector"
	KindValueNotAccepted       Kind = "value_not_accepted"
	KindArgumentDecode         Kind = "argument_decode"
	KindResultEncode           Kind = "result_encode"
	KindHandler                Kind = "handler"
	KindAlreadyConstructed     Kind = "already_constructed"
	KindUnknownMethod          Kind = "unknown_method"
	KindArgumentEncode         Kind = "argument_encode"
	KindResultDecode           Kind = "result_decode"
	KindCallFailed             Kind = "call_failed"
	KindEventNotCallable       Kind = "event_not_callable"
	KindConstructorUnsupported Kind = "constructor_unsupported"
	KindClientDisabled         Kind = "client_disabled"
	KindWrite                  Kind = "write"
)

// Error is the structured runtime error.
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	Method   string
	Detail   string
	Selector uint32
	// HasSelector reports whether Selector carries a parsed method id.
	HasSelector bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(strings.ReplaceAll(string(e.Kind), "_", " "))

	if e.Method != "" {
		b.WriteString(" in ")
		b.WriteString(e.Method)
	}
	if e.HasSelector {
		fmt.Fprintf(&b, " (selector 0x%08x)", e.Selector)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// New creates an error of the given phase and kind.
func New(phase Phase, kind Kind) *Error {
	return &Error{Phase: phase, Kind: kind}
}

// WithMethod returns a copy of e naming the method involved.
func (e *Error) WithMethod(name string) *Error {
	out := *e
	out.Method = name
	return &out
}

// WithSelector returns a copy of e carrying the method id.
func (e *Error) WithSelector(sel uint32) *Error {
	out := *e
	out.Selector = sel
	out.HasSelector = true
	return &out
}

// WithDetail returns a copy of e with a formatted detail message.
func (e *Error) WithDetail(format string, args ...any) *Error {
	out := *e
	if len(args) > 0 {
		out.Detail = fmt.Sprintf(format, args...)
	} else {
		out.Detail = format
	}
	return &out
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	out := *e
	out.Cause = cause
	return &out
}

// Sentinels for errors.Is. Never mutate them; use the With* helpers which copy.
var (
	ErrInvalidPayload     = New(PhaseDispatch, KindInvalidPayload)
	ErrUnknownSelector    = New(PhaseDispatch, KindUnknownSelector)
	ErrValueNotAccepted   = New(PhaseDispatch, KindValueNotAccepted)
	ErrArgumentDecode     = New(PhaseDispatch, KindArgumentDecode)
	ErrResultEncode       = New(PhaseDispatch, KindResultEncode)
	ErrHandler            = New(PhaseDispatch, KindHandler)
	ErrAlreadyConstructed = New(PhaseDispatch, KindAlreadyConstructed)

	ErrUnknownMethod          = New(PhaseClient, KindUnknownMethod)
	ErrArgumentEncode         = New(PhaseClient, KindArgumentEncode)
	ErrResultDecode           = New(PhaseClient, KindResultDecode)
	ErrCallFailed             = New(PhaseClient, KindCallFailed)
	ErrEventNotCallable       = New(PhaseClient, KindEventNotCallable)
	ErrConstructorUnsupported = New(PhaseClient, KindConstructorUnsupported)
	ErrClientDisabled         = New(PhaseClient, KindClientDisabled)

	ErrWrite = New(PhaseEmit, KindWrite)
)

// KindOf returns the kind of err when it is an *Error, or "" otherwise.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
