package cgen

import (
	"fmt"
	"strings"
)

// AnnotationDelimiter separates annotation segments, e.g. "int__link__4".
const AnnotationDelimiter = "__"

// PreprocType is the base type that turns a declaration into a #define.
const PreprocType = "preproc"

// Annotation is a parsed type annotation.
type Annotation struct {
	Type       string   // base type; multi-word types are space separated
	ArraySizes []string // outer to inner
	Pointer    bool
}

// ParseAnnotation parses the annotation mini-language:
//
//	segment ('__' segment)*
//
// Trailing all-digit segments are array dimensions, a trailing "link" marks
// a pointer, and the remaining segments joined by a space form the type.
func ParseAnnotation(raw string) (Annotation, error) {
	var a Annotation
	parts := strings.Split(raw, AnnotationDelimiter)

	end := len(parts)
	for end > 0 && isDigits(parts[end-1]) {
		end--
	}
	if end < len(parts) {
		a.ArraySizes = append([]string(nil), parts[end:]...)
	}
	if end > 0 && parts[end-1] == "link" {
		a.Pointer = true
		end--
	}

	parts = parts[:end]
	if len(parts) == 0 || (len(parts) == 1 && parts[0] == "") {
		return Annotation{}, &Error{
			Kind: KindAnnotationMissing,
			Msg:  fmt.Sprintf("annotation '%s' has no type", raw),
		}
	}
	for _, p := range parts {
		if p == "" {
			return Annotation{}, &Error{
				Kind: KindInvalidAnnotation,
				Msg:  fmt.Sprintf("annotation '%s' has an empty segment", raw),
			}
		}
	}
	a.Type = strings.Join(parts, " ")
	return a, nil
}

// IsPreproc reports whether the annotation declares a macro.
func (a Annotation) IsPreproc() bool {
	return a.Type == PreprocType
}

// Dims renders the array dimensions, e.g. "[3][4]".
func (a Annotation) Dims() string {
	return dims(a.ArraySizes)
}

func dims(sizes []string) string {
	var b strings.Builder
	for _, s := range sizes {
		b.WriteString("[" + s + "]")
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
