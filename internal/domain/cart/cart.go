// Package cart implements the working set of line items for the sale
// currently being assembled at a register.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/verdantlabs/pos-register/internal/domain/catalog"
)

// Line is a single cart entry. Quantity is always >= 1; a line never exists
// at quantity zero.
type Line struct {
	Product  catalog.Product
	Quantity int
}

// Subtotal returns unit price times quantity for this line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Product.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered, mutable collection of line items for one
// not-yet-committed sale. Lines are unique by product ID: adding an
// already-present product increments its quantity instead of appending a
// second line. Cart is not safe for concurrent use; the till manager
// serializes access per register.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts one unit of p into the cart. If a line for p already exists its
// quantity is incremented; otherwise a new line is appended at quantity 1.
// Stock availability is not checked here; the commit path enforces it.
func (c *Cart) Add(p catalog.Product) {
	for i := range c.lines {
		if c.lines[i].Product.ID == p.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{Product: p, Quantity: 1})
}

// Remove deletes the entire line for productID regardless of its quantity.
// Removing an absent product is a no-op.
func (c *Cart) Remove(productID string) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Increase bumps the line for productID by one unit. Absent products are a
// no-op.
func (c *Cart) Increase(productID string) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			c.lines[i].Quantity++
			return
		}
	}
}

// Decrease lowers the line for productID by one unit, flooring at 1. It
// never removes the line; deletion requires an explicit Remove. The
// asymmetry is deliberate: an operator scanning past zero should not lose
// the line.
func (c *Cart) Decrease(productID string) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID {
			if c.lines[i].Quantity > 1 {
				c.lines[i].Quantity--
			}
			return
		}
	}
}

// Total recomputes the cart total from its lines on every call. The value is
// never cached, so it cannot drift from the lines that produce it.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Lines returns a copy of the cart's lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Clear empties the cart. Called after a successful sale commit or an
// explicit cancellation.
func (c *Cart) Clear() {
	c.lines = nil
}
