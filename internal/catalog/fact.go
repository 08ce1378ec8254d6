package catalog

import "fmt"

// Fact is one multiplication fact to be learned.
type Fact struct {
	ID        string `yaml:"id"`
	FactSetID string `yaml:"-"`
	A         int    `yaml:"a"`
	B         int    `yaml:"b"`
	Text      string `yaml:"text"`
}

// Answer returns the product of the two operands.
func (f Fact) Answer() int {
	return f.A * f.B
}

// MaxOperand returns the larger operand.
func (f Fact) MaxOperand() int {
	if f.A > f.B {
		return f.A
	}
	return f.B
}

// FactID returns the canonical ID for a pair of operands.
func FactID(a, b int) string {
	return fmt.Sprintf("%dx%d", a, b)
}

// FactText returns the canonical display text for a pair of operands.
func FactText(a, b int) string {
	return fmt.Sprintf("%d × %d", a, b)
}

// FactSet is an ordered group of facts introduced together.
type FactSet struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Order int    `yaml:"order"`
	Facts []Fact `yaml:"facts"`
}
