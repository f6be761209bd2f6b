package lisp

import (
	"errors"
	"fmt"
)

// ErrQuit is returned by Eval when a script evaluates `quit`. Unlike the
// eight numbered Error codes, it is not a *Error and so cannot be caught by
// `catch`; it is meant to propagate all the way out to the process
// boundary, matching spec.md §6's "quit exits with status 0".
var ErrQuit = errors.New("lisp: quit")

// Code is one of the eight numbered error classes a Dollhouse daemon's
// evaluator can raise. The numbering is part of the wire contract: `throw`
// may raise any of these by number, and `catch` reports them as (ERR . n).
type Code int

const (
	NotAPair      Code = 1
	Break         Code = 2
	UnboundSymbol Code = 3
	CannotApply   Code = 4
	Arguments     Code = 5
	StackOver     Code = 6
	OutOfMemory   Code = 7
	Syntax        Code = 8
)

var labels = [...]string{
	0: "",
	1: "not a pair",
	2: "break",
	3: "unbound symbol",
	4: "cannot apply",
	5: "arguments",
	6: "stack over",
	7: "out of memory",
	8: "syntax",
}

// Label returns the human-readable name for code, or "" if code is not one
// of the eight reserved classes.
func (c Code) Label() string {
	if c >= 0 && int(c) < len(labels) {
		return labels[c]
	}
	return ""
}

// Error is a raised Dollhouse LISP exception: a numeric code plus an
// optional detail string (e.g. the unbound symbol's name). It implements
// the standard error interface so Go call sites can use errors.As/Is, while
// the interpreter's own catch/throw machinery works directly with the Code.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ERR %d: %s (%s)", e.Code, e.Code.Label(), e.Detail)
	}
	return fmt.Sprintf("ERR %d: %s", e.Code, e.Code.Label())
}

// raise constructs an *Error for code with an optional detail.
func raise(code Code, detail string) *Error {
	return &Error{Code: code, Detail: detail}
}
