package use_cases

import (
	"context"

	"github.com/sokohub/settlement-service/internal/domain/pricing"
	"github.com/sokohub/settlement-service/internal/domain/sale"
)

// CartSettlement adapts a priced POS cart to the Settleable capability.
type CartSettlement struct {
	cartID     string
	lines      []pricing.Line
	totals     pricing.Totals
	customerID string
	branchID   string
	method     sale.PaymentMethod
	invoiceID  string
	commit     *CommitService
}

func NewCartSettlement(
	cartID string,
	lines []pricing.Line,
	totals pricing.Totals,
	customerID, branchID string,
	method sale.PaymentMethod,
	invoiceID string,
	commit *CommitService,
) *CartSettlement {
	return &CartSettlement{
		cartID:     cartID,
		lines:      lines,
		totals:     totals,
		customerID: customerID,
		branchID:   branchID,
		method:     method,
		invoiceID:  invoiceID,
		commit:     commit,
	}
}

func (s *CartSettlement) SettlementID() string {
	return s.cartID
}

func (s *CartSettlement) AmountDue() int64 {
	return s.totals.TotalAmount
}

func (s *CartSettlement) Commit(ctx context.Context, paymentReference string) (*sale.Sale, error) {
	return s.commit.Commit(ctx, CommitParams{
		Lines:            s.lines,
		Totals:           s.totals,
		CustomerID:       s.customerID,
		BranchID:         s.branchID,
		Method:           s.method,
		PaymentReference: paymentReference,
		SourceInvoiceID:  s.invoiceID,
	})
}

// StockRequestSettlement adapts an approved B2B stock request. The
// commit flips the request to paid in the same transaction that moves
// the stock and writes the sale record.
type StockRequestSettlement struct {
	request *sale.StockRequest
	method  sale.PaymentMethod
	commit  *CommitService
}

func NewStockRequestSettlement(request *sale.StockRequest, method sale.PaymentMethod, commit *CommitService) *StockRequestSettlement {
	return &StockRequestSettlement{
		request: request,
		method:  method,
		commit:  commit,
	}
}

func (s *StockRequestSettlement) SettlementID() string {
	return s.request.ID
}

func (s *StockRequestSettlement) AmountDue() int64 {
	return s.request.AmountDue
}

func (s *StockRequestSettlement) Commit(ctx context.Context, paymentReference string) (*sale.Sale, error) {
	var subtotal int64
	for _, line := range s.request.Lines {
		subtotal += line.Total()
	}

	return s.commit.Commit(ctx, CommitParams{
		Lines: s.request.Lines,
		Totals: pricing.Totals{
			Subtotal:    subtotal,
			TotalAmount: s.request.AmountDue,
		},
		BranchID:         s.request.BranchID,
		Method:           s.method,
		PaymentReference: paymentReference,
		SourceRequestID:  s.request.ID,
	})
}
