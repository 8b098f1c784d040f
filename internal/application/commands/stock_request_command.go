package commands

import (
	"context"

	"github.com/sokohub/settlement-service/internal/application/ports"
	"github.com/sokohub/settlement-service/internal/application/use_cases"
	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/domain/payment"
	"github.com/sokohub/settlement-service/internal/domain/sale"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

type PayStockRequestCommand struct {
	RequestID     string
	PaymentMethod string
	PayerPhone    string
}

type PayStockRequestResponse struct {
	Sale              *sale.Sale    `json:"sale,omitempty"`
	RequestID         string        `json:"request_id"`
	IntentState       payment.State `json:"intent_state,omitempty"`
	ExternalReference string        `json:"external_reference,omitempty"`
}

// PayStockRequestHandler settles an approved B2B stock request through
// the same orchestrator the POS flow uses.
type PayStockRequestHandler struct {
	repo         ports.SaleRepository
	commit       *use_cases.CommitService
	orchestrator *use_cases.SettlementUseCase
	log          *logger.Logger
}

func NewPayStockRequestHandler(
	repo ports.SaleRepository,
	commit *use_cases.CommitService,
	orchestrator *use_cases.SettlementUseCase,
	log *logger.Logger,
) *PayStockRequestHandler {
	return &PayStockRequestHandler{
		repo:         repo,
		commit:       commit,
		orchestrator: orchestrator,
		log:          log,
	}
}

func (h *PayStockRequestHandler) Handle(ctx context.Context, cmd PayStockRequestCommand) (*PayStockRequestResponse, error) {
	method, err := sale.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}

	request, err := h.repo.GetStockRequestByID(ctx, cmd.RequestID)
	if err != nil {
		return nil, err
	}

	if !request.Payable() {
		h.log.Warn("Stock request not payable",
			"request_id", request.ID,
			"status", string(request.Status),
		)
		return nil, domainErrors.ErrStockRequestNotPayable
	}

	settlement := use_cases.NewStockRequestSettlement(request, method, h.commit)

	outcome, err := h.orchestrator.Settle(ctx, settlement, method, cmd.PayerPhone)
	if err != nil {
		return nil, err
	}

	return &PayStockRequestResponse{
		Sale:              outcome.Sale,
		RequestID:         request.ID,
		IntentState:       outcome.IntentState,
		ExternalReference: outcome.ExternalReference,
	}, nil
}
