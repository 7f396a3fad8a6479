// Package compileerr defines the structured error the core reports to its
// caller. Rendering to a terminal, a JSON stream, or anything else is the
// driver's problem; the core only ever produces one of these.
package compileerr

import "fmt"

// Code names a kind of lex/parse/typecheck failure. The lex/parse kinds are
// reported here only so the taxonomy has one home; lexing and parsing
// themselves are out of this core's scope (spec.md §1).
type Code int

const (
	// Lex/parse kinds, reported by the (out-of-scope) front end through the
	// same Error type so callers have one error taxonomy to handle.
	ExpectedBeginParen Code = iota
	ExpectedEndParen
	ExpectedBeginBrace
	ExpectedEndBrace
	ExpectedSemicolon
	ExpectedColon
	ExpectedEqual
	ExpectedIdentifier
	ExpectedKeywordFn
	ExpectedType
	ExpectedExpression
	ExpectedEndComment
	IntegerLiteralOutOfRange

	// Typecheck kinds, reported by internal/typecheck.
	UndefinedSymbol
	TypeMismatch
	TypeNotCallable
	TypeNotIndexable
	TupleIndexNotImmediate
	TupleIndexOutOfBounds
	ArgumentCountMismatch
)

var codeNames = map[Code]string{
	ExpectedBeginParen:       "ExpectedBeginParen",
	ExpectedEndParen:         "ExpectedEndParen",
	ExpectedBeginBrace:       "ExpectedBeginBrace",
	ExpectedEndBrace:         "ExpectedEndBrace",
	ExpectedSemicolon:        "ExpectedSemicolon",
	ExpectedColon:            "ExpectedColon",
	ExpectedEqual:            "ExpectedEqual",
	ExpectedIdentifier:       "ExpectedIdentifier",
	ExpectedKeywordFn:        "ExpectedKeywordFn",
	ExpectedType:             "ExpectedType",
	ExpectedExpression:       "ExpectedExpression",
	ExpectedEndComment:       "ExpectedEndComment",
	IntegerLiteralOutOfRange: "IntegerLiteralOutOfRange",
	UndefinedSymbol:          "UndefinedSymbol",
	TypeMismatch:             "TypeMismatch",
	TypeNotCallable:          "TypeNotCallable",
	TypeNotIndexable:         "TypeNotIndexable",
	TupleIndexNotImmediate:   "TupleIndexNotImmediate",
	TupleIndexOutOfBounds:    "TupleIndexOutOfBounds",
	ArgumentCountMismatch:    "ArgumentCountMismatch",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Position is a source position; Line is 1-based, zero means "unknown" (used by components below the parser that have no line
// table of their own).
type Position struct {
	Path string
	Line int
}

// Error is the one structured error type the core ever returns to a caller.
// Rendering (spec.md §7) formats it as "<path>:<line>: <kind>: <quoted context>".
type Error struct {
	Code Code
	Pos  Position
	Text string // quoted-context message, already formatted for the kind
}

func (e *Error) Error() string {
	if e.Pos.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Text)
	}
	return fmt.Sprintf("%s:%d: %s: %s", e.Pos.Path, e.Pos.Line, e.Code, e.Text)
}

// New builds an Error at an unknown position; callers that have a position
// should set Pos directly.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Text: fmt.Sprintf(format, args...)}
}

// At builds an Error at a known source position.
func At(pos Position, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Pos: pos, Text: fmt.Sprintf(format, args...)}
}
