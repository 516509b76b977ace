package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ValentinKolb/rKV/lib/store"
)

// --------------------------------------------------------------------------
// Error Kinds
// --------------------------------------------------------------------------

// ErrorKind is the category of an error reply. The category token (see String)
// is the first part of every ERROR reply body.
type ErrorKind uint8

const (
	ErrInternal               ErrorKind = iota // unexpected failure inside the server
	ErrWrongArgsNumber                         // arity outside the accepted value or range
	ErrUnsupportedCommand                      // unknown command or unknown mandatory sub-keyword
	ErrWrongCommandFormat                      // unexpected token in a flag slot
	ErrIllegalArgs                             // valid syntax, invalid combination
	ErrWrongNumberFormat                       // integer or double parse failure
	ErrPositiveNumberExpected                  // numeric argument must be positive
	ErrInvalidCursor                           // non-numeric or unknown scan cursor
	ErrOperationFailed                         // storage refused the mutation without a cause
	ErrMalformedRequest                        // request buffer could not be decoded
	ErrKeyNotNumber                            // storage: value is not an integer
	ErrNotFloat                                // storage: value is not a valid float
	ErrKeyDoesNotExist                         // storage: key is missing
	ErrOutOfRange                              // storage: index or value out of range
	ErrWrongType                               // storage: key holds another type
)

var errorKindNames = [...]string{
	ErrInternal:               "Internal",
	ErrWrongArgsNumber:        "WrongArgsNumber",
	ErrUnsupportedCommand:     "UnsupportedCommand",
	ErrWrongCommandFormat:     "WrongCommandFormat",
	ErrIllegalArgs:            "IllegalArgs",
	ErrWrongNumberFormat:      "WrongNumberFormat",
	ErrPositiveNumberExpected: "PositiveNumberExpected",
	ErrInvalidCursor:          "InvalidCursor",
	ErrOperationFailed:        "OperationFailed",
	ErrMalformedRequest:       "MalformedRequest",
	ErrKeyNotNumber:           "KeyNotNumber",
	ErrNotFloat:               "NotFloat",
	ErrKeyDoesNotExist:        "KeyDoesNotExist",
	ErrOutOfRange:             "OutOfRange",
	ErrWrongType:              "WrongType",
}

// String returns the category token of the error kind
func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "Unknown"
}

// ParseErrorKind converts a category token back into an ErrorKind
func ParseErrorKind(s string) (ErrorKind, error) {
	for i, name := range errorKindNames {
		if name == s {
			return ErrorKind(i), nil
		}
	}
	return ErrInternal, fmt.Errorf("unknown error kind: %s", s)
}

// MarshalJSON implements the json.Marshaler interface
func (k ErrorKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (k *ErrorKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	kind, err := ParseErrorKind(s)
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// --------------------------------------------------------------------------
// Error Type
// --------------------------------------------------------------------------

// Error is a protocol error. It is local to one command invocation and is
// written to the client as an ERROR reply ("<kind>: <msg>[ <detail>]").
type Error struct {
	Kind   ErrorKind
	Msg    string
	Detail string
}

// Error implements the error interface and returns the reply text
func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String() + ": " + e.Msg
	}
	return e.Kind.String() + ": " + e.Msg + " " + e.Detail
}

// NewError creates a new protocol error
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WithDetail returns a copy of the error carrying the given detail text
func (e *Error) WithDetail(detail string) *Error {
	return &Error{Kind: e.Kind, Msg: e.Msg, Detail: detail}
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// KindOf returns the kind of err, ErrInternal if err is not a protocol error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrInternal
}

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

const genericNumberFormat = "value is not an integer or out of range"

// WrongArgsNumber is returned when the argument count is outside the accepted range
func WrongArgsNumber(command string) *Error {
	return &Error{
		Kind:   ErrWrongArgsNumber,
		Msg:    "wrong number of arguments",
		Detail: "for '" + strings.ToLower(command) + "' command",
	}
}

// UnsupportedCommand echoes the entire invocation of an unknown command or sub-keyword
func UnsupportedCommand(invocation string) *Error {
	return NewError(ErrUnsupportedCommand, invocation)
}

// WrongCommandFormat echoes the offending token only
func WrongCommandFormat(token []byte) *Error {
	return NewError(ErrWrongCommandFormat, string(token))
}

// IllegalArgs is returned for syntactically valid but semantically invalid arguments
func IllegalArgs(token string) *Error {
	return NewError(ErrIllegalArgs, token)
}

// WrongNumberFormat is returned when a token is not a valid number. A nil token
// produces the generic message.
func WrongNumberFormat(token []byte) *Error {
	if token == nil {
		return NewError(ErrWrongNumberFormat, genericNumberFormat)
	}
	return NewError(ErrWrongNumberFormat, string(token))
}

// PositiveNumberExpected is returned when a numeric argument must be positive
func PositiveNumberExpected(token []byte) *Error {
	return NewError(ErrPositiveNumberExpected, string(token))
}

// InvalidCursor shares one category for non-numeric and unknown cursors; the
// detail tells both causes apart.
func InvalidCursor(token []byte, numeric bool) *Error {
	e := NewError(ErrInvalidCursor, string(token))
	if numeric {
		e.Detail = "(unknown or consumed cursor)"
	} else {
		e.Detail = "(not a number)"
	}
	return e
}

// OperationFailed is returned when storage refused a mutation without a specific cause
func OperationFailed() *Error {
	return NewError(ErrOperationFailed, "operation failed")
}

// Internal wraps an unexpected error
func Internal(err error) *Error {
	return NewError(ErrInternal, err.Error())
}

// MalformedRequest is returned when the request buffer cannot be decoded
func MalformedRequest(msg string) *Error {
	return NewError(ErrMalformedRequest, msg)
}

// --------------------------------------------------------------------------
// Storage Error Translation
// --------------------------------------------------------------------------

// FromStoreError translates any error returned by the storage engine into a
// protocol error. Storage kinds are surfaced verbatim with the engine message.
func FromStoreError(err error) *Error {
	if err == nil {
		return nil
	}

	var protoErr *Error
	if errors.As(err, &protoErr) {
		return protoErr
	}

	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		return Internal(err)
	}

	switch storeErr.Code {
	case store.RetCWrongType:
		return NewError(ErrWrongType, storeErr.Msg)
	case store.RetCKeyNotNumber:
		return NewError(ErrKeyNotNumber, storeErr.Msg)
	case store.RetCNotFloat:
		return NewError(ErrNotFloat, storeErr.Msg)
	case store.RetCKeyDoesNotExist:
		return NewError(ErrKeyDoesNotExist, storeErr.Msg)
	case store.RetCOutOfRange:
		return NewError(ErrOutOfRange, storeErr.Msg)
	case store.RetCOperationFailed:
		return OperationFailed()
	default:
		return NewError(ErrInternal, storeErr.Msg)
	}
}
