package syntax

import "fmt"

// Pos is the source position of a node in the program the tree was
// produced from. The zero value is an invalid position.
type Pos struct {
	Line int // 1-based
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// IsValid reports whether the position is valid.
// A position is valid if Line > 0.
func (p Pos) IsValid() bool {
	return p.Line > 0
}
