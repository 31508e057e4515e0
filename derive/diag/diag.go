// Package diag holds the compile-time diagnostics reported while building and
// normalizing an interface model.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeDescMissingName      = "ABI1001"
	CodeDescDuplicateCtor    = "ABI1002"
	CodeDescUnsupportedShape = "ABI1003"
	CodeDescEmptyItemName    = "ABI1004"
	CodeDescDuplicateItem    = "ABI1005"
	CodeDescEmptyType        = "ABI1006"
	CodeDescMissingEndpoint  = "ABI1007"
	CodeDescInvalidName      = "ABI1008"
	CodeSigUnknownType       = "ABI2001"
	CodeSigSelectorCollision = "ABI2002"
	CodeSigInvalidSignature  = "ABI2003"
)

var (
	// ErrDescription classifies diagnostics caused by a malformed description.
	ErrDescription = errors.New("invalid interface description")
	// ErrSelectorCollision classifies diagnostics caused by two items sharing a selector.
	ErrSelectorCollision = errors.New("selector collision")
)

// Diagnostic is a structured compile-time error.
type Diagnostic struct {
	Code    string
	Message string
	// Item is the declaration the diagnostic refers to, empty for interface-level errors.
	Item string
}

func (d Diagnostic) Error() string {
	if d.Item == "" {
		return fmt.Sprintf("[%s] %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s: [%s] %s", d.Item, d.Code, d.Message)
}

// Unwrap exposes the error class so callers can use errors.Is.
func (d Diagnostic) Unwrap() error {
	if d.Code == CodeSigSelectorCollision {
		return ErrSelectorCollision
	}
	return ErrDescription
}

// Diagnostics is an ordered diagnostic list.
type Diagnostics []Diagnostic

func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return ""
	}
	if len(ds) == 1 {
		return ds[0].Error()
	}
	return fmt.Sprintf("%s (and %d more error(s))", ds[0].Error(), len(ds)-1)
}

func (ds Diagnostics) Unwrap() []error {
	out := make([]error, 0, len(ds))
	for _, d := range ds {
		out = append(out, d)
	}
	return out
}

func (ds Diagnostics) HasErrors() bool { return len(ds) > 0 }

// Codes returns the diagnostic codes in report order.
func (ds Diagnostics) Codes() []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

// Detail renders every diagnostic on its own line.
func (ds Diagnostics) Detail() string {
	lines := make([]string, 0, len(ds))
	for _, d := range ds {
		lines = append(lines, d.Error())
	}
	return strings.Join(lines, "\n")
}

// Errorf builds a diagnostic with a formatted message.
func Errorf(code, item, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Item:    item,
	}
}
