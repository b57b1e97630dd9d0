package cgen

import (
	"fmt"

	"github.com/strager/anno2c/syntax"
)

// ErrorKind classifies translation errors.
type ErrorKind string

const (
	KindSourceCode           ErrorKind = "SourceCodeError"
	KindInvalidAnnotation    ErrorKind = "InvalidAnnotation"
	KindAnnotationMissing    ErrorKind = "AnnotationMissingType"
	KindNoneNotAllowed       ErrorKind = "NoneNotAllowed"
	KindUnsupportedImport    ErrorKind = "UnsupportedImport"
	KindUnsupportedIterable  ErrorKind = "UnsupportedIterable"
	KindPreprocMustHaveValue ErrorKind = "PreprocMustHaveValue"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrSourceCode           = &Error{Kind: KindSourceCode}
	ErrInvalidAnnotation    = &Error{Kind: KindInvalidAnnotation}
	ErrAnnotationMissing    = &Error{Kind: KindAnnotationMissing}
	ErrNoneNotAllowed       = &Error{Kind: KindNoneNotAllowed}
	ErrUnsupportedImport    = &Error{Kind: KindUnsupportedImport}
	ErrUnsupportedIterable  = &Error{Kind: KindUnsupportedIterable}
	ErrPreprocMustHaveValue = &Error{Kind: KindPreprocMustHaveValue}
)

// Error is a fatal translation error. Every error aborts the whole
// translation unit.
type Error struct {
	Kind ErrorKind
	Msg  string
	Pos  syntax.Pos      // last valid position seen before the failure
	Node syntax.NodeKind // kind of the offending node, if known
	Err  error           // underlying cause, e.g. from a ModuleResolver
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Pos.IsValid() {
		msg = e.Pos.String() + ": " + msg
	}
	if e.Node != "" {
		msg += " (" + string(e.Node) + ")"
	}
	return msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// fail aborts the translation. Translate recovers the *Error.
func (g *Generator) fail(kind ErrorKind, n *syntax.Node, format string, args ...any) {
	g.failErr(kind, n, nil, format, args...)
}

func (g *Generator) failErr(kind ErrorKind, n *syntax.Node, cause error, format string, args ...any) {
	e := &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Pos: g.pos, Err: cause}
	if n != nil {
		e.Node = n.Kind
		if n.Pos.IsValid() {
			e.Pos = n.Pos
		}
	}
	panic(e)
}

// catch converts a panicking *Error into a returned error.
func catch(err *error) {
	if r := recover(); r != nil {
		e, ok := r.(*Error)
		if !ok {
			panic(r)
		}
		*err = e
	}
}
