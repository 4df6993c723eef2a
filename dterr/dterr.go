// Package dterr defines the typed error kinds surfaced by schema reading,
// resolution, and byte-stream decoding. Every error carries the definition
// name, the member name (when applicable), and the byte offset at which a
// runtime failure occurred.
package dterr

import (
	"errors"
	"fmt"
)

// Kind identifies the class of failure, per the error taxonomy of the
// schema reader and the runtime mapper.
type Kind int

const (
	// KindUnknown is the zero value and never constructed deliberately.
	KindUnknown Kind = iota

	KindSchemaError
	KindDuplicateName
	KindUnresolvedReference
	KindDefinitionCycle
	KindFamilyMemberMismatch
	KindGroupMemberInvalid
	KindGroupDiscriminantCollision
	KindUnboundExpressionPath
	KindExpressionSyntaxError
	KindByteStreamTooSmall
	KindInvalidBooleanEncoding
	KindInvalidEncoding
	KindConstantMismatch
	KindTrailingBytes
	KindUnknownGroupVariant
)

func (k Kind) String() string {
	switch k {
	case KindSchemaError:
		return "SchemaError"
	case KindDuplicateName:
		return "DuplicateName"
	case KindUnresolvedReference:
		return "UnresolvedReference"
	case KindDefinitionCycle:
		return "DefinitionCycle"
	case KindFamilyMemberMismatch:
		return "FamilyMemberMismatch"
	case KindGroupMemberInvalid:
		return "GroupMemberInvalid"
	case KindGroupDiscriminantCollision:
		return "GroupDiscriminantCollision"
	case KindUnboundExpressionPath:
		return "UnboundExpressionPath"
	case KindExpressionSyntaxError:
		return "ExpressionSyntaxError"
	case KindByteStreamTooSmall:
		return "ByteStreamTooSmall"
	case KindInvalidBooleanEncoding:
		return "InvalidBooleanEncoding"
	case KindInvalidEncoding:
		return "InvalidEncoding"
	case KindConstantMismatch:
		return "ConstantMismatch"
	case KindTrailingBytes:
		return "TrailingBytes"
	case KindUnknownGroupVariant:
		return "UnknownGroupVariant"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type raised by every package in this module.
// Offset is -1 when the error has no meaningful byte position (schema-time
// errors).
type Error struct {
	Kind       Kind
	Definition string
	Member     string
	Offset     int
	Message    string
}

func (e *Error) Error() string {
	prefix := e.Kind.String()

	if e.Definition != "" {
		prefix += " [" + e.Definition
		if e.Member != "" {
			prefix += "." + e.Member
		}
		prefix += "]"
	}

	if e.Offset >= 0 {
		return fmt.Sprintf("%s at offset %d: %s", prefix, e.Offset, e.Message)
	}

	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// New builds a schema-time error (no byte offset).
func New(kind Kind, definition, member, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		Definition: definition,
		Member:     member,
		Offset:     -1,
		Message:    fmt.Sprintf(format, args...),
	}
}

// NewAt builds a runtime decoding error at a specific byte offset.
func NewAt(kind Kind, definition, member string, offset int, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		Definition: definition,
		Member:     member,
		Offset:     offset,
		Message:    fmt.Sprintf(format, args...),
	}
}

// Is reports whether err is a *Error of the given kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
