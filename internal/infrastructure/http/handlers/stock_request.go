package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sokohub/settlement-service/internal/application/commands"
	"github.com/sokohub/settlement-service/internal/infrastructure/http/response"
	"github.com/sokohub/settlement-service/internal/infrastructure/monitoring"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

type StockRequestHandler struct {
	handler *commands.PayStockRequestHandler
	log     *logger.Logger
}

func NewStockRequestHandler(handler *commands.PayStockRequestHandler, log *logger.Logger) *StockRequestHandler {
	return &StockRequestHandler{
		handler: handler,
		log:     log,
	}
}

type payStockRequestRequest struct {
	PaymentMethod string `json:"payment_method"`
	PayerPhone    string `json:"payer_phone"`
}

// HandlePay settles POST /stock-requests/{id}/pay.
func (h *StockRequestHandler) HandlePay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/stock-requests/")
	requestID := strings.TrimSuffix(path, "/pay")

	var req payStockRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.StatusValidationError, "Invalid request body")
		return
	}

	errors := make(map[string]string)
	if requestID == "" {
		errors["request_id"] = "request_id is required"
	}
	if req.PaymentMethod == "" {
		errors["payment_method"] = "payment_method is required"
	}
	if len(errors) > 0 {
		response.WriteValidationError(w, "Validation failed", errors)
		return
	}

	h.log.Info("Stock request payment received",
		"request_id", requestID,
		"payment_method", req.PaymentMethod,
	)

	cmd := commands.PayStockRequestCommand{
		RequestID:     requestID,
		PaymentMethod: req.PaymentMethod,
		PayerPhone:    req.PayerPhone,
	}

	metrics := monitoring.NewSettlementMetrics(req.PaymentMethod)
	metrics.RecordAttempt()

	resp, err := h.handler.Handle(r.Context(), cmd)
	if err != nil {
		h.log.Error("Stock request payment failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		metrics.RecordFailure(err.Error())
		response.WriteDomainError(w, err)
		return
	}

	h.log.Info("Stock request settled",
		"request_id", requestID,
		"receipt_number", resp.Sale.ReceiptNumber,
	)
	metrics.RecordSuccess()
	response.WriteSuccess(w, resp, "Stock request settled")
}
