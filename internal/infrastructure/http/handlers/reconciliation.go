package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sokohub/settlement-service/internal/application/ports"
	"github.com/sokohub/settlement-service/internal/infrastructure/http/response"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

// ReconciliationHandler gives back-office staff the pending-payment
// queue: list what needs a human decision and close records out once
// handled.
type ReconciliationHandler struct {
	store ports.ReconciliationStore
	log   *logger.Logger
}

func NewReconciliationHandler(store ports.ReconciliationStore, log *logger.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{
		store: store,
		log:   log,
	}
}

func (h *ReconciliationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	records, err := h.store.ListUnresolved(r.Context(), 100)
	if err != nil {
		h.log.Error("Failed to list reconciliation records", "error", err)
		response.WriteDomainError(w, err)
		return
	}

	response.WriteSuccess(w, records)
}

type resolveRequest struct {
	Note string `json:"note"`
}

// HandleResolve closes POST /reconciliation/{reference}/resolve.
func (h *ReconciliationHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/reconciliation/")
	reference := strings.TrimSuffix(path, "/resolve")

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, response.StatusValidationError, "Invalid request body")
		return
	}

	if reference == "" {
		response.WriteValidationError(w, "Validation failed", map[string]string{
			"reference": "external reference is required",
		})
		return
	}

	if err := h.store.Resolve(r.Context(), reference, req.Note); err != nil {
		h.log.Error("Failed to resolve reconciliation record",
			"external_reference", reference,
			"error", err,
		)
		response.WriteDomainError(w, err)
		return
	}

	h.log.Info("Reconciliation record resolved",
		"external_reference", reference,
		"note", req.Note,
	)

	response.WriteSuccess(w, map[string]string{"external_reference": reference})
}
