package memory

import (
	"context"
	"sync"

	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
)

// StockLedger is a mutex-serialized in-memory ledger. It backs tests
// and local runs without Postgres; the check-and-decrement happens
// under one lock, giving the same at-most-one-winner guarantee as the
// conditional UPDATE in the Postgres ledger.
type StockLedger struct {
	mu     sync.Mutex
	levels map[string]int
}

func NewStockLedger() *StockLedger {
	return &StockLedger{
		levels: make(map[string]int),
	}
}

func (l *StockLedger) SetStock(productID string, quantity int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.levels[productID] = quantity
}

func (l *StockLedger) CheckAvailable(ctx context.Context, productID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	level, ok := l.levels[productID]
	if !ok {
		return 0, domainErrors.ErrProductNotFound
	}

	return level, nil
}

func (l *StockLedger) Decrement(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return domainErrors.ErrInvalidQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	level, ok := l.levels[productID]
	if !ok {
		return domainErrors.ErrProductNotFound
	}

	if level < quantity {
		return domainErrors.ErrInsufficientStock
	}

	l.levels[productID] = level - quantity
	return nil
}
