package ports

import (
	"context"

	"github.com/sokohub/settlement-service/internal/domain/sale"
)

// SaleRepository persists the durable settlement artifacts. BeginTx
// returns a transaction-bound clone; inside it, DecrementStock,
// CreateSale and the Mark*Paid status flips form one atomic unit, so
// no reader can ever observe a decremented stock level without the
// matching sale row or vice versa.
type SaleRepository interface {
	CreateSale(ctx context.Context, s *sale.Sale) error
	GetSaleByID(ctx context.Context, id string) (*sale.Sale, error)

	// DecrementStock re-validates and decrements in one statement.
	// Returns false, nil when available stock cannot cover quantity.
	DecrementStock(ctx context.Context, productID string, quantity int) (bool, error)
	GetStockLevel(ctx context.Context, productID string) (int, error)

	GetStockRequestByID(ctx context.Context, id string) (*sale.StockRequest, error)
	MarkInvoicePaid(ctx context.Context, invoiceID string) error
	MarkStockRequestPaid(ctx context.Context, requestID string) error

	BeginTx(ctx context.Context) (SaleRepository, error)
	CommitTx(ctx context.Context) error
	RollbackTx(ctx context.Context) error
}
