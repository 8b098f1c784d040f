package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sokohub/settlement-service/internal/application/commands"
	"github.com/sokohub/settlement-service/internal/infrastructure/http/response"
	"github.com/sokohub/settlement-service/internal/infrastructure/monitoring"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

type CheckoutHandler struct {
	handler *commands.CheckoutHandler
	log     *logger.Logger
}

func NewCheckoutHandler(handler *commands.CheckoutHandler, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		handler: handler,
		log:     log,
	}
}

type checkoutRequest struct {
	CartID        string                  `json:"cart_id"`
	CustomerID    string                  `json:"customer_id"`
	BranchID      string                  `json:"branch_id"`
	PaymentMethod string                  `json:"payment_method"`
	PayerPhone    string                  `json:"payer_phone"`
	DiscountType  string                  `json:"discount_type"`
	DiscountValue float64                 `json:"discount_value"`
	TaxRate       float64                 `json:"tax_rate"`
	ApplyTax      bool                    `json:"apply_tax"`
	InvoiceID     string                  `json:"invoice_id"`
	Lines         []commands.CheckoutLine `json:"lines"`
}

func (h *CheckoutHandler) HandleCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var req checkoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.WriteError(w, http.StatusBadRequest, response.StatusValidationError, "Invalid request body")
			return
		}

		h.log.Info("Checkout request received",
			"cart_id", req.CartID,
			"branch_id", req.BranchID,
			"payment_method", req.PaymentMethod,
			"line_count", len(req.Lines),
		)

		errors := make(map[string]string)
		if req.CartID == "" {
			errors["cart_id"] = "cart_id is required"
		}
		if req.BranchID == "" {
			errors["branch_id"] = "branch_id is required"
		}
		if req.PaymentMethod == "" {
			errors["payment_method"] = "payment_method is required"
		}
		if len(req.Lines) == 0 {
			errors["lines"] = "at least one line is required"
		}
		if len(errors) > 0 {
			h.log.Warn("Checkout validation failed",
				"errors", errors,
				"cart_id", req.CartID,
			)
			response.WriteValidationError(w, "Validation failed", errors)
			return
		}

		cmd := commands.CheckoutCommand{
			CartID:        req.CartID,
			CustomerID:    req.CustomerID,
			BranchID:      req.BranchID,
			PaymentMethod: req.PaymentMethod,
			PayerPhone:    req.PayerPhone,
			DiscountType:  req.DiscountType,
			DiscountValue: req.DiscountValue,
			TaxRate:       req.TaxRate,
			ApplyTax:      req.ApplyTax,
			InvoiceID:     req.InvoiceID,
			Lines:         req.Lines,
		}

		metrics := monitoring.NewSettlementMetrics(req.PaymentMethod)
		metrics.RecordAttempt()

		resp, err := h.handler.Handle(r.Context(), cmd)
		if err != nil {
			h.log.Error("Checkout command failed",
				"cart_id", req.CartID,
				"payment_method", req.PaymentMethod,
				"error", err.Error(),
			)
			metrics.RecordFailure(err.Error())
			response.WriteDomainError(w, err)
			return
		}

		h.log.Info("Checkout completed successfully",
			"cart_id", req.CartID,
			"receipt_number", resp.Sale.ReceiptNumber,
			"total_amount", resp.Totals.TotalAmount,
		)
		metrics.RecordSuccess()
		response.WriteSuccess(w, resp, "Checkout completed successfully")
	}
}
