package postgres

import (
	"context"
	"database/sql"

	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/infrastructure/monitoring"
)

// StockLedger reads and mutates per-product availability. The
// conditional UPDATE serializes concurrent decrements on the same
// product row: when two settlements race for the last unit, the row
// lock lets exactly one of them match `stock >= quantity`.
type StockLedger struct {
	db *sql.DB
}

func NewStockLedger(conn *Connection) *StockLedger {
	return &StockLedger{
		db: conn.GetDB(),
	}
}

func (l *StockLedger) CheckAvailable(ctx context.Context, productID string) (int, error) {
	query := `SELECT stock FROM products WHERE id = $1`

	var stock int
	row := monitoring.InstrumentQueryRow(ctx, l.db, "SELECT", "products", query, productID)
	if err := row.Scan(&stock); err != nil {
		if err == sql.ErrNoRows {
			return 0, domainErrors.ErrProductNotFound
		}
		return 0, err
	}

	return stock, nil
}

func (l *StockLedger) Decrement(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return domainErrors.ErrInvalidQuantity
	}

	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	result, err := monitoring.InstrumentExec(ctx, l.db, "UPDATE", "products", query, productID, quantity)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domainErrors.ErrInsufficientStock
	}

	return nil
}
