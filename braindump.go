// Package braindump parses the org-mode-like outline markup format used
// across this project's notes into a position-annotated abstract syntax
// tree. The heavy lifting lives in package parser; this file is the public
// entry point.
package braindump

import (
	"github.com/rasendubi/braindump/ast"
	"github.com/rasendubi/braindump/parser"
)

// Option configures a Parse call.
type Option = parser.Option

// WithContext wires cooperative cancellation into the parse: parseElements
// and parseObjects check ctx.Done() between constructs and abort with
// ctx.Err() if it fires. It never changes parse output for input that runs
// to completion.
var WithContext = parser.WithContext

// WithLogger overrides the structured logger that internal parser errors are
// reported to, at Error level. Default is slog.Default(). No debug-level
// tracing is emitted.
var WithLogger = parser.WithLogger

// WithTodoKeywords is a reserved configuration slot for future todo-state
// recognition in keyword/planning parsing; it does not yet change parse
// behavior.
var WithTodoKeywords = parser.WithTodoKeywords

// Parse parses text and returns the root of the AST.
//
// Malformed input never produces an error: every construct the parser
// cannot make sense of degrades to a paragraph or a text node. A non-nil
// error here always means either an internal parser-invariant violation
// (*parser.InternalError — a bug in this package) or that a context
// supplied via WithContext was cancelled or timed out.
func Parse(text string, opts ...Option) (*ast.OrgData, error) {
	return parser.New(text, opts...).Parse()
}

// MustParse is Parse, panicking on error. Since malformed input cannot
// produce an error, a panic here always indicates an internal parser bug or
// a caller-supplied context cancellation.
func MustParse(text string, opts ...Option) *ast.OrgData {
	doc, err := Parse(text, opts...)
	if err != nil {
		panic(err)
	}
	return doc
}
