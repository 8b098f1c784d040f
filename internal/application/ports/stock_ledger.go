package ports

import (
	"context"
)

// StockLedger is the authoritative per-product available quantity.
//
// Decrement is the one place a true race exists in the system: two
// concurrent settlements for the last unit must not both succeed.
// Implementations serialize it per product (conditional UPDATE in
// Postgres, mutex in the in-memory ledger) and return
// errors.ErrInsufficientStock when the quantity cannot be covered.
type StockLedger interface {
	CheckAvailable(ctx context.Context, productID string) (int, error)
	Decrement(ctx context.Context, productID string, quantity int) error
}
