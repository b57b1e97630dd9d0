package cgen

import (
	"sort"
	"strconv"
	"strings"
)

// TokenID indexes the buffer's token arena.
type TokenID int

type tokenKind int

const (
	// declToken renders "TYPE *name[dims]" from the symbol's final entry.
	declToken tokenKind = iota
	// returnTypeToken renders a function's return type prefix, which
	// becomes "struct F_mys " once a multi-value return is seen.
	returnTypeToken
	// structDeclToken renders the definition of a multi-value return
	// structure, or nothing when the function never returns a tuple.
	structDeclToken
)

// Token is a piece of output whose text is only known after the whole
// tree has been walked.
type Token struct {
	kind    tokenKind
	Indent  string
	Symbol  SymbolID // declToken
	Type    string   // declToken, returnTypeToken
	Pointer bool     // declToken, returnTypeToken
	Name    string   // variable name, or structure name for the other kinds
}

func (t Token) render(r *Registry) string {
	switch t.kind {
	case declToken:
		star := ""
		if t.Pointer {
			star = "*"
		}
		return t.Indent + t.Type + " " + star + t.Name + dims(r.Entry(t.Symbol).ArraySizes)
	case returnTypeToken:
		if _, ok := r.Struct(t.Name); ok {
			return "struct " + t.Name + " "
		}
		if t.Pointer {
			return t.Type + " *"
		}
		return t.Type + " "
	case structDeclToken:
		fields, ok := r.Struct(t.Name)
		if !ok {
			return ""
		}
		var b strings.Builder
		b.WriteString(t.Indent + "struct " + t.Name + " {\n")
		for i, f := range fields {
			star := ""
			if f.Pointer {
				star = "*"
			}
			b.WriteString(t.Indent + indentUnit + f.Type + " " + star + "v" + strconv.Itoa(i) + ";\n")
		}
		b.WriteString(t.Indent + "};\n")
		return b.String()
	default:
		return ""
	}
}

type part struct {
	text    string
	token   TokenID
	isToken bool
}

// Buffer is the two-pass output buffer: finished text interleaved with
// token references, plus the set of include directives. Nothing is
// rendered until Flush.
type Buffer struct {
	parts    []part
	pending  strings.Builder
	tokens   []Token
	includes map[string]struct{}
}

func NewBuffer() *Buffer {
	return &Buffer{includes: map[string]struct{}{}}
}

// Emit appends finished text.
func (b *Buffer) Emit(text string) {
	b.pending.WriteString(text)
}

// EmitToken adds t to the arena and appends a reference to it.
func (b *Buffer) EmitToken(t Token) TokenID {
	id := TokenID(len(b.tokens))
	b.tokens = append(b.tokens, t)
	b.EmitTokenRef(id)
	return id
}

// EmitTokenRef appends another reference to an existing token.
func (b *Buffer) EmitTokenRef(id TokenID) {
	b.flushPending()
	b.parts = append(b.parts, part{token: id, isToken: true})
}

func (b *Buffer) flushPending() {
	if b.pending.Len() > 0 {
		b.parts = append(b.parts, part{text: b.pending.String()})
		b.pending.Reset()
	}
}

// Include registers an include directive such as `#include "math.h"`.
func (b *Buffer) Include(directive string) {
	b.includes[directive] = struct{}{}
}

// Includes returns the registered directives, sorted.
func (b *Buffer) Includes() []string {
	out := make([]string, 0, len(b.includes))
	for inc := range b.includes {
		out = append(out, inc)
	}
	sort.Strings(out)
	return out
}

// Flush renders the sorted includes, a blank line if there were any, and
// the body with every token resolved against r.
func (b *Buffer) Flush(r *Registry) string {
	b.flushPending()

	var out strings.Builder
	if includes := b.Includes(); len(includes) > 0 {
		out.WriteString(strings.Join(includes, "\n"))
		out.WriteString("\n\n")
	}
	for _, p := range b.parts {
		if p.isToken {
			out.WriteString(b.tokens[p.token].render(r))
		} else {
			out.WriteString(p.text)
		}
	}
	return out.String()
}

// Reset clears the text, the tokens and the includes.
func (b *Buffer) Reset() {
	b.parts = nil
	b.pending.Reset()
	b.tokens = nil
	b.includes = map[string]struct{}{}
}
