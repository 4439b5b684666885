package chasm

import (
	"encoding/json"
	"fmt"
)

// ErrorKind is the closed set of diagnostic kinds a compile can fail with.
type ErrorKind string

const (
	UnexpectedChar   ErrorKind = "UnexpectedChar"
	UnexpectedToken  ErrorKind = "UnexpectedToken"
	UndefinedSymbol  ErrorKind = "UndefinedSymbol"
	NumberOutOfRange ErrorKind = "NumberOutOfRange"
	ArityMismatch    ErrorKind = "ArityMismatch"
	TypeMismatch     ErrorKind = "TypeMismatch"
)

// Error is the single error type compile can return. It carries enough
// information for a host (e.g. an editor) to highlight the offending
// token.
type Error struct {
	Kind    ErrorKind
	Message string
	Token   Token
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Token.Line, e.Token.Char, e.Message)
}

// errorJSON mirrors the wire shape hosts consume:
// { kind, message, token: { value, line, char } }.
type errorJSON struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Token   struct {
		Value string `json:"value"`
		Line  int    `json:"line"`
		Char  int    `json:"char"`
	} `json:"token"`
}

// MarshalJSON implements json.Marshaler so hosts can serialise the error
// directly without reaching into its fields.
func (e *Error) MarshalJSON() ([]byte, error) {
	var j errorJSON
	j.Kind = e.Kind
	j.Message = e.Message
	j.Token.Value = e.Token.Literal
	j.Token.Line = e.Token.Line
	j.Token.Char = e.Token.Char
	return json.Marshal(j)
}

func errUnexpectedToken(got Token, expected ...Kind) *Error {
	return &Error{
		Kind:    UnexpectedToken,
		Message: fmt.Sprintf("expected one of %v, got %q", expected, got.Kind),
		Token:   got,
	}
}

func errUndefinedSymbol(tok Token) *Error {
	return &Error{
		Kind:    UndefinedSymbol,
		Message: fmt.Sprintf("undefined symbol %q", tok.Literal),
		Token:   tok,
	}
}

func errNumberOutOfRange(tok Token, cause error) *Error {
	return &Error{
		Kind:    NumberOutOfRange,
		Message: fmt.Sprintf("cannot parse %q as f32: %v", tok.Literal, cause),
		Token:   tok,
	}
}

func errArityMismatch(tok Token, name string, expected, got int) *Error {
	return &Error{
		Kind:    ArityMismatch,
		Message: fmt.Sprintf("proc %q expects %d argument(s), got %d", name, expected, got),
		Token:   tok,
	}
}

func errTypeMismatch(tok Token, want valueType, got valueType) *Error {
	return &Error{
		Kind:    TypeMismatch,
		Message: fmt.Sprintf("expected %s, got %s", want, got),
		Token:   tok,
	}
}
