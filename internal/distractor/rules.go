package distractor

import (
	"context"
	"strconv"
)

// FactorVariation changes one factor by one or two.
type FactorVariation struct{}

func (FactorVariation) Name() string { return NameFactorVariation }

func (FactorVariation) Generate(_ context.Context, c *Context) []int {
	a, b := c.Fact.A, c.Fact.B
	return []int{
		(a+1)*b, (a-1)*b,
		a*(b+1), a*(b-1),
		(a+2)*b, (a-2)*b,
		a*(b+2), a*(b-2),
	}
}

// CommonMistakes simulates arithmetic slips: adding instead of
// multiplying, writing the digits side by side, counting one group too
// many or too few, and reversing digits.
type CommonMistakes struct{}

func (CommonMistakes) Name() string { return NameCommonMistakes }

func (CommonMistakes) Generate(_ context.Context, c *Context) []int {
	a, b := c.Fact.A, c.Fact.B
	p := a * b
	out := []int{
		a + b,
		p + a, p - a,
		p + b, p - b,
		(a - 1) * (b + 1),
	}
	if v, err := strconv.Atoi(strconv.Itoa(a) + strconv.Itoa(b)); err == nil {
		out = append(out, v)
	}
	if r := reverseDigits(p); r != p {
		out = append(out, r)
	}
	return out
}

func reverseDigits(n int) int {
	if n < 0 {
		return -reverseDigits(-n)
	}
	r := 0
	for n > 0 {
		r = r*10 + n%10
		n /= 10
	}
	return r
}

// TableNeighbors pulls nearby products from the multiplication table:
// the same row, the same column and the diagonals.
type TableNeighbors struct{}

func (TableNeighbors) Name() string { return NameTableNeighbors }

func (TableNeighbors) Generate(_ context.Context, c *Context) []int {
	a, b := c.Fact.A, c.Fact.B
	return []int{
		(a + 1) * (b + 1), (a - 1) * (b - 1),
		(a + 1) * (b - 1), (a - 1) * (b + 1),
		a * (b + 1), (a + 1) * b,
		a * (b - 1), (a - 1) * b,
	}
}
