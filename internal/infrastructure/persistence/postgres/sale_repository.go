package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sokohub/settlement-service/internal/application/ports"
	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/domain/pricing"
	"github.com/sokohub/settlement-service/internal/domain/sale"
	"github.com/sokohub/settlement-service/internal/infrastructure/monitoring"
)

type SaleRepository struct {
	db   *sql.DB
	tx   *sql.Tx
	isTx bool
}

func NewSaleRepository(conn *Connection) *SaleRepository {
	return &SaleRepository{
		db:   conn.GetDB(),
		isTx: false,
	}
}

func (r *SaleRepository) CreateSale(ctx context.Context, s *sale.Sale) error {
	query := `
		INSERT INTO sales (
			id, receipt_number, customer_id, branch_id, payment_method,
			payment_reference, subtotal, discount_amount, tax_amount,
			total_amount, source_invoice_id, source_request_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''), $13)
	`

	var err error

	if r.isTx {
		_, err = r.tx.ExecContext(ctx, query,
			s.ID, s.ReceiptNumber, s.CustomerID, s.BranchID, string(s.PaymentMethod),
			s.PaymentReference, s.Subtotal, s.DiscountAmount, s.TaxAmount,
			s.TotalAmount, s.SourceInvoiceID, s.SourceRequestID, s.CreatedAt,
		)
	} else {
		_, err = monitoring.InstrumentExec(ctx, r.db, "INSERT", "sales", query,
			s.ID, s.ReceiptNumber, s.CustomerID, s.BranchID, string(s.PaymentMethod),
			s.PaymentReference, s.Subtotal, s.DiscountAmount, s.TaxAmount,
			s.TotalAmount, s.SourceInvoiceID, s.SourceRequestID, s.CreatedAt,
		)
	}

	if err != nil {
		return err
	}

	return r.insertItems(ctx, s)
}

func (r *SaleRepository) insertItems(ctx context.Context, s *sale.Sale) error {
	query := `
		INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, item := range s.Items {
		var err error
		if r.isTx {
			_, err = r.tx.ExecContext(ctx, query, s.ID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal)
		} else {
			_, err = monitoring.InstrumentExec(ctx, r.db, "INSERT", "sale_items", query,
				s.ID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *SaleRepository) GetSaleByID(ctx context.Context, id string) (*sale.Sale, error) {
	query := `
		SELECT id, receipt_number, customer_id, branch_id, payment_method,
		       payment_reference, subtotal, discount_amount, tax_amount,
		       total_amount, COALESCE(source_invoice_id, ''), COALESCE(source_request_id, ''), created_at
		FROM sales
		WHERE id = $1
	`

	var s sale.Sale
	var method string
	var err error

	if r.isTx {
		err = r.tx.QueryRowContext(ctx, query, id).Scan(
			&s.ID, &s.ReceiptNumber, &s.CustomerID, &s.BranchID, &method,
			&s.PaymentReference, &s.Subtotal, &s.DiscountAmount, &s.TaxAmount,
			&s.TotalAmount, &s.SourceInvoiceID, &s.SourceRequestID, &s.CreatedAt,
		)
	} else {
		row := monitoring.InstrumentQueryRow(ctx, r.db, "SELECT", "sales", query, id)
		err = row.Scan(
			&s.ID, &s.ReceiptNumber, &s.CustomerID, &s.BranchID, &method,
			&s.PaymentReference, &s.Subtotal, &s.DiscountAmount, &s.TaxAmount,
			&s.TotalAmount, &s.SourceInvoiceID, &s.SourceRequestID, &s.CreatedAt,
		)
	}

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainErrors.ErrSaleNotFound
		}
		return nil, err
	}
	s.PaymentMethod = sale.PaymentMethod(method)

	items, err := r.getItems(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Items = items

	return &s, nil
}

func (r *SaleRepository) getItems(ctx context.Context, saleID string) ([]sale.Item, error) {
	query := `
		SELECT product_id, quantity, unit_price, line_total
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY product_id
	`

	var rows *sql.Rows
	var err error

	if r.isTx {
		rows, err = r.tx.QueryContext(ctx, query, saleID)
	} else {
		rows, err = monitoring.InstrumentQuery(ctx, r.db, "SELECT", "sale_items", query, saleID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []sale.Item
	for rows.Next() {
		var item sale.Item
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// DecrementStock re-validates and decrements in a single conditional
// UPDATE. Inside a transaction the row stays locked until commit, so
// two concurrent settlements for the last unit cannot both succeed.
func (r *SaleRepository) DecrementStock(ctx context.Context, productID string, quantity int) (bool, error) {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	var result sql.Result
	var err error

	if r.isTx {
		result, err = r.tx.ExecContext(ctx, query, productID, quantity)
	} else {
		result, err = monitoring.InstrumentExec(ctx, r.db, "UPDATE", "products", query, productID, quantity)
	}

	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

func (r *SaleRepository) GetStockLevel(ctx context.Context, productID string) (int, error) {
	query := `SELECT stock FROM products WHERE id = $1`

	var stock int
	var err error

	if r.isTx {
		err = r.tx.QueryRowContext(ctx, query, productID).Scan(&stock)
	} else {
		row := monitoring.InstrumentQueryRow(ctx, r.db, "SELECT", "products", query, productID)
		err = row.Scan(&stock)
	}

	if err != nil {
		if err == sql.ErrNoRows {
			return 0, domainErrors.ErrProductNotFound
		}
		return 0, err
	}

	return stock, nil
}

func (r *SaleRepository) GetStockRequestByID(ctx context.Context, id string) (*sale.StockRequest, error) {
	query := `
		SELECT id, branch_id, status, amount_due, created_at
		FROM stock_requests
		WHERE id = $1
	`

	var req sale.StockRequest
	var status string
	var err error

	if r.isTx {
		err = r.tx.QueryRowContext(ctx, query, id).Scan(&req.ID, &req.BranchID, &status, &req.AmountDue, &req.CreatedAt)
	} else {
		row := monitoring.InstrumentQueryRow(ctx, r.db, "SELECT", "stock_requests", query, id)
		err = row.Scan(&req.ID, &req.BranchID, &status, &req.AmountDue, &req.CreatedAt)
	}

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domainErrors.ErrStockRequestNotFound
		}
		return nil, err
	}
	req.Status = sale.RequestStatus(status)

	lines, err := r.getRequestLines(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Lines = lines

	return &req, nil
}

func (r *SaleRepository) getRequestLines(ctx context.Context, requestID string) ([]pricing.Line, error) {
	query := `
		SELECT product_id, quantity, unit_price
		FROM stock_request_items
		WHERE request_id = $1
		ORDER BY product_id
	`

	var rows *sql.Rows
	var err error

	if r.isTx {
		rows, err = r.tx.QueryContext(ctx, query, requestID)
	} else {
		rows, err = monitoring.InstrumentQuery(ctx, r.db, "SELECT", "stock_request_items", query, requestID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []pricing.Line
	for rows.Next() {
		var line pricing.Line
		if err := rows.Scan(&line.ProductID, &line.Quantity, &line.UnitPrice); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, rows.Err()
}

func (r *SaleRepository) MarkInvoicePaid(ctx context.Context, invoiceID string) error {
	query := `
		UPDATE invoices
		SET status = 'paid', paid_at = NOW()
		WHERE id = $1 AND status = 'unpaid'
	`

	var result sql.Result
	var err error

	if r.isTx {
		result, err = r.tx.ExecContext(ctx, query, invoiceID)
	} else {
		result, err = monitoring.InstrumentExec(ctx, r.db, "UPDATE", "invoices", query, invoiceID)
	}

	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domainErrors.ErrInvoiceNotFound
	}

	return nil
}

func (r *SaleRepository) MarkStockRequestPaid(ctx context.Context, requestID string) error {
	query := `
		UPDATE stock_requests
		SET status = 'paid', paid_at = NOW()
		WHERE id = $1 AND status = 'approved'
	`

	var result sql.Result
	var err error

	if r.isTx {
		result, err = r.tx.ExecContext(ctx, query, requestID)
	} else {
		result, err = monitoring.InstrumentExec(ctx, r.db, "UPDATE", "stock_requests", query, requestID)
	}

	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domainErrors.ErrStockRequestNotPayable
	}

	return nil
}

func (r *SaleRepository) BeginTx(ctx context.Context) (ports.SaleRepository, error) {
	if r.isTx {
		return nil, errors.New("transaction already started")
	}

	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return nil, err
	}

	return &SaleRepository{
		db:   r.db,
		tx:   tx,
		isTx: true,
	}, nil
}

func (r *SaleRepository) CommitTx(ctx context.Context) error {
	if !r.isTx || r.tx == nil {
		return errors.New("no transaction to commit")
	}

	return r.tx.Commit()
}

func (r *SaleRepository) RollbackTx(ctx context.Context) error {
	if !r.isTx || r.tx == nil {
		return errors.New("no transaction to rollback")
	}

	return r.tx.Rollback()
}
