package use_cases

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sokohub/settlement-service/internal/application/ports"
	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/domain/pricing"
	"github.com/sokohub/settlement-service/internal/domain/sale"
	"github.com/sokohub/settlement-service/internal/pkg/clock"
	"github.com/sokohub/settlement-service/internal/pkg/generator"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

type CommitParams struct {
	Lines            []pricing.Line
	Totals           pricing.Totals
	CustomerID       string
	BranchID         string
	Method           sale.PaymentMethod
	PaymentReference string
	SourceInvoiceID  string
	SourceRequestID  string
}

// CommitService turns a priced cart into a durable sale. One
// serializable transaction covers the per-line stock re-validation and
// decrement, the sale insert, and the source-document status flip, so
// the commit is all-or-nothing.
type CommitService struct {
	repo ports.SaleRepository
	gen  *generator.CodeGenerator
	clk  clock.Clock
	log  *logger.Logger
}

func NewCommitService(repo ports.SaleRepository, gen *generator.CodeGenerator, clk clock.Clock, log *logger.Logger) *CommitService {
	return &CommitService{
		repo: repo,
		gen:  gen,
		clk:  clk,
		log:  log,
	}
}

func (s *CommitService) Commit(ctx context.Context, p CommitParams) (*sale.Sale, error) {
	if len(p.Lines) == 0 {
		return nil, domainErrors.ErrEmptyCart
	}

	receiptNumber, err := s.gen.GenerateReceiptNumber(s.clk.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate receipt number: %w", err)
	}

	record, err := sale.NewSale(uuid.NewString(), receiptNumber, p.CustomerID, p.BranchID, p.Method, p.Lines, p.Totals)
	if err != nil {
		return nil, err
	}
	record.PaymentReference = p.PaymentReference
	record.SourceInvoiceID = p.SourceInvoiceID
	record.SourceRequestID = p.SourceRequestID

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.RollbackTx(ctx); rbErr != nil {
				s.log.Error("Failed to roll back settlement transaction", "error", rbErr, "sale_id", record.ID)
			}
		}
	}()

	// Stock may have been consumed between cart assembly and now. The
	// conditional decrement re-validates and mutates in one statement;
	// a single shorted line rejects the whole commit.
	for _, line := range p.Lines {
		ok, err := tx.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			return nil, fmt.Errorf("failed to decrement stock for %s: %w", line.ProductID, err)
		}
		if !ok {
			return nil, fmt.Errorf("product %s: %w", line.ProductID, domainErrors.ErrInsufficientStock)
		}
	}

	if err := tx.CreateSale(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	if p.SourceInvoiceID != "" {
		if err := tx.MarkInvoicePaid(ctx, p.SourceInvoiceID); err != nil {
			return nil, fmt.Errorf("failed to mark invoice %s paid: %w", p.SourceInvoiceID, err)
		}
	}

	if p.SourceRequestID != "" {
		if err := tx.MarkStockRequestPaid(ctx, p.SourceRequestID); err != nil {
			return nil, fmt.Errorf("failed to mark stock request %s paid: %w", p.SourceRequestID, err)
		}
	}

	if err := tx.CommitTx(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	s.log.Info("Sale committed",
		"sale_id", record.ID,
		"receipt_number", record.ReceiptNumber,
		"branch_id", record.BranchID,
		"payment_method", string(record.PaymentMethod),
		"total_amount", record.TotalAmount,
	)

	return record, nil
}
