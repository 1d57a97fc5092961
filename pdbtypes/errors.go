// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pdbtypes

import (
	"errors"
	"fmt"
)

// Kind identifies one member of the module's error taxonomy. Defined
// here (rather than at the module root) so every layer — naming, field
// walking, aggregate building, PDB indexing, diffing — shares one
// taxonomy without an import cycle back to the root package.
type Kind int

// Error kinds.
const (
	ErrIoError Kind = iota
	ErrPdbParseError
	ErrIntConversionError
	ErrInvalidParameter
	ErrTypeNameNotFound
	ErrNotImplemented
	ErrParsePrimitiveFlavor
	ErrChannelError
)

func (k Kind) String() string {
	switch k {
	case ErrIoError:
		return "IoError"
	case ErrPdbParseError:
		return "PdbParseError"
	case ErrIntConversionError:
		return "IntConversionError"
	case ErrInvalidParameter:
		return "InvalidParameter"
	case ErrTypeNameNotFound:
		return "TypeNameNotFound"
	case ErrNotImplemented:
		return "NotImplemented"
	case ErrParsePrimitiveFlavor:
		return "ParsePrimitiveFlavor"
	case ErrChannelError:
		return "ChannelError"
	default:
		return "Unknown"
	}
}

// Error is the typed error every public entry point in this module
// returns, carrying a Kind the caller (or a CLI exit-code mapping) can
// switch on.
type Error struct {
	Kind    Kind
	Message string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: cause}
}

// NewError and WrapError are the exported constructors callers outside
// this package (pdbfile.go, backend.go, diffing.go) use to
// raise the same typed-error taxonomy.
func NewError(kind Kind, message string) *Error { return newError(kind, message) }

func WrapError(kind Kind, message string, cause error) *Error { return wrapError(kind, message, cause) }

// KindOf extracts the Kind from err if it (or something it wraps) is
// an *Error, defaulting to PdbParseError for opaque errors — the
// catch-all "malformed or unsupported record" bucket.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrPdbParseError
}
