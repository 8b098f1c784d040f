package cart

import (
	"time"

	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/domain/pricing"
)

// Cart is the client-held working set of line items before commit.
// Stock checks here are soft: they use the availability snapshot known
// at mutation time and are re-validated inside the commit transaction.
type Cart struct {
	ID        string
	lines     []pricing.Line
	CreatedAt time.Time
}

func New(id string) (*Cart, error) {
	if id == "" {
		return nil, domainErrors.ErrEmptyCart
	}

	return &Cart{
		ID:        id,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// AddLine appends or merges a line. availableStock is the quantity the
// catalog reported for the product when the operator touched the cart.
func (c *Cart) AddLine(productID string, quantity int, unitPrice int64, availableStock int) error {
	if quantity < 1 {
		return domainErrors.ErrInvalidQuantity
	}
	if unitPrice < 0 {
		return domainErrors.ErrInvalidUnitPrice
	}

	for i, line := range c.lines {
		if line.ProductID == productID {
			merged := line.Quantity + quantity
			if merged > availableStock {
				return domainErrors.ErrInsufficientStock
			}
			c.lines[i].Quantity = merged
			return nil
		}
	}

	if quantity > availableStock {
		return domainErrors.ErrInsufficientStock
	}

	c.lines = append(c.lines, pricing.Line{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	return nil
}

func (c *Cart) UpdateQuantity(productID string, quantity int, availableStock int) error {
	if quantity < 1 {
		return domainErrors.ErrInvalidQuantity
	}
	if quantity > availableStock {
		return domainErrors.ErrInsufficientStock
	}

	for i, line := range c.lines {
		if line.ProductID == productID {
			c.lines[i].Quantity = quantity
			return nil
		}
	}

	return domainErrors.ErrProductNotFound
}

func (c *Cart) RemoveLine(productID string) error {
	for i, line := range c.lines {
		if line.ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
	}

	return domainErrors.ErrProductNotFound
}

// Lines returns a copy so callers cannot mutate cart state around the
// invariant checks.
func (c *Cart) Lines() []pricing.Line {
	out := make([]pricing.Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

func (c *Cart) LineCount() int {
	return len(c.lines)
}

// Reset empties the cart. Called after a successful commit or on
// explicit operator reset.
func (c *Cart) Reset() {
	c.lines = nil
}
