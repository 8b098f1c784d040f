package commands

import (
	"context"

	"github.com/sokohub/settlement-service/internal/application/ports"
	"github.com/sokohub/settlement-service/internal/application/use_cases"
	"github.com/sokohub/settlement-service/internal/domain/cart"
	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/domain/payment"
	"github.com/sokohub/settlement-service/internal/domain/pricing"
	"github.com/sokohub/settlement-service/internal/domain/sale"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

type CheckoutLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type CheckoutCommand struct {
	CartID        string
	CustomerID    string
	BranchID      string
	PaymentMethod string
	PayerPhone    string
	DiscountType  string
	DiscountValue float64
	TaxRate       float64
	ApplyTax      bool
	InvoiceID     string
	Lines         []CheckoutLine
}

type CheckoutResponse struct {
	Sale              *sale.Sale     `json:"sale,omitempty"`
	Totals            pricing.Totals `json:"totals"`
	IntentState       payment.State  `json:"intent_state,omitempty"`
	ExternalReference string         `json:"external_reference,omitempty"`
}

// CheckoutHandler is the POS call site: it rebuilds and re-prices the
// cart server-side, then hands settlement to the orchestrator.
type CheckoutHandler struct {
	ledger       ports.StockLedger
	commit       *use_cases.CommitService
	orchestrator *use_cases.SettlementUseCase
	log          *logger.Logger
}

func NewCheckoutHandler(
	ledger ports.StockLedger,
	commit *use_cases.CommitService,
	orchestrator *use_cases.SettlementUseCase,
	log *logger.Logger,
) *CheckoutHandler {
	return &CheckoutHandler{
		ledger:       ledger,
		commit:       commit,
		orchestrator: orchestrator,
		log:          log,
	}
}

func (h *CheckoutHandler) Handle(ctx context.Context, cmd CheckoutCommand) (*CheckoutResponse, error) {
	method, err := sale.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}

	if len(cmd.Lines) == 0 {
		return nil, domainErrors.ErrEmptyCart
	}

	basket, err := cart.New(cmd.CartID)
	if err != nil {
		return nil, err
	}

	for _, line := range cmd.Lines {
		available, err := h.ledger.CheckAvailable(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if err := basket.AddLine(line.ProductID, line.Quantity, line.UnitPrice, available); err != nil {
			h.log.Warn("Cart line rejected",
				"cart_id", cmd.CartID,
				"product_id", line.ProductID,
				"quantity", line.Quantity,
				"available", available,
				"error", err.Error(),
			)
			return nil, err
		}
	}

	discount := pricing.Discount{
		Type:  pricing.DiscountType(cmd.DiscountType),
		Value: cmd.DiscountValue,
	}

	totals, err := pricing.ComputeTotals(basket.Lines(), discount, cmd.TaxRate, cmd.ApplyTax)
	if err != nil {
		return nil, err
	}

	settlement := use_cases.NewCartSettlement(
		cmd.CartID,
		basket.Lines(),
		totals,
		cmd.CustomerID,
		cmd.BranchID,
		method,
		cmd.InvoiceID,
		h.commit,
	)

	outcome, err := h.orchestrator.Settle(ctx, settlement, method, cmd.PayerPhone)
	if err != nil {
		return nil, err
	}

	basket.Reset()

	return &CheckoutResponse{
		Sale:              outcome.Sale,
		Totals:            totals,
		IntentState:       outcome.IntentState,
		ExternalReference: outcome.ExternalReference,
	}, nil
}
