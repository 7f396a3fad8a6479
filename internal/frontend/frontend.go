// Package frontend names the seam between the lexer/parser and this core.
// Lexing and parsing are out of scope for this module (spec.md §1: "Out of
// scope, as interfaces only") — there is no implementation here, only the
// shape a parser must have to drive the IR builder API in internal/ctx.
package frontend

import "github.com/explang/expc/internal/ctx"

// Parser lowers the source text at sourcePath into IR on c, using c's
// builder API (spec.md §6.1: context_enter_function, function_append, ...).
// cmd/expc calls through a Parser value; this module ships none.
type Parser func(c *ctx.Context, sourcePath string) error
