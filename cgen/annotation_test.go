package cgen

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"
)

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		raw  string
		want Annotation
	}{
		{"int", Annotation{Type: "int"}},
		{"int__link", Annotation{Type: "int", Pointer: true}},
		{"int__3", Annotation{Type: "int", ArraySizes: []string{"3"}}},
		{"int__3__4__1", Annotation{Type: "int", ArraySizes: []string{"3", "4", "1"}}},
		{"int__link__4", Annotation{Type: "int", Pointer: true, ArraySizes: []string{"4"}}},
		{"unsigned__char", Annotation{Type: "unsigned char"}},
		{"typedef__unsigned__char", Annotation{Type: "typedef unsigned char"}},
		{"struct__point__link", Annotation{Type: "struct point", Pointer: true}},
		{"uint8_t", Annotation{Type: "uint8_t"}},
		{"preproc", Annotation{Type: "preproc"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAnnotation(tt.raw)
			be.Err(t, err, nil)
			be.Equal(t, got, tt.want)
		})
	}
}

func TestParseAnnotation_LinkOnlyTrailing(t *testing.T) {
	// "link" before the type is part of the type.
	got, err := ParseAnnotation("link__int")
	be.Err(t, err, nil)
	be.Equal(t, got, Annotation{Type: "link int"})
}

func TestParseAnnotation_Errors(t *testing.T) {
	tests := []struct {
		raw  string
		kind *Error
	}{
		{"", ErrAnnotationMissing},
		{"link", ErrAnnotationMissing},
		{"4", ErrAnnotationMissing},
		{"link__4", ErrAnnotationMissing},
		{"unsigned____int", ErrInvalidAnnotation},
		{"__int", ErrInvalidAnnotation},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			_, err := ParseAnnotation(tt.raw)
			be.True(t, errors.Is(err, tt.kind))
		})
	}
}

func TestAnnotationDims(t *testing.T) {
	a, err := ParseAnnotation("char__8__16")
	be.Err(t, err, nil)
	be.Equal(t, a.Dims(), "[8][16]")
	be.True(t, !a.IsPreproc())

	p, _ := ParseAnnotation("preproc")
	be.True(t, p.IsPreproc())
	be.Equal(t, p.Dims(), "")
}
