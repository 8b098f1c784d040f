package ports

import (
	"context"
	"time"
)

type SaleCompletedEvent struct {
	EventID          string    `json:"event_id"`
	SaleID           string    `json:"sale_id"`
	ReceiptNumber    string    `json:"receipt_number"`
	BranchID         string    `json:"branch_id"`
	PaymentMethod    string    `json:"payment_method"`
	PaymentReference string    `json:"payment_reference,omitempty"`
	TotalAmount      int64     `json:"total_amount"`
	OccurredAt       time.Time `json:"occurred_at"`
}

type PaymentFailedEvent struct {
	EventID           string    `json:"event_id"`
	SettlementID      string    `json:"settlement_id"`
	ExternalReference string    `json:"external_reference,omitempty"`
	Amount            int64     `json:"amount"`
	Reason            string    `json:"reason"`
	OccurredAt        time.Time `json:"occurred_at"`
}

type LateConfirmationEvent struct {
	EventID           string    `json:"event_id"`
	SettlementID      string    `json:"settlement_id"`
	ExternalReference string    `json:"external_reference"`
	Amount            int64     `json:"amount"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// EventPublisher is a one-way sink. The orchestrator emits and moves
// on; publish failures are logged, never propagated into the
// settlement outcome.
type EventPublisher interface {
	PublishSaleCompleted(ctx context.Context, event SaleCompletedEvent) error
	PublishPaymentFailed(ctx context.Context, event PaymentFailedEvent) error
	PublishLateConfirmation(ctx context.Context, event LateConfirmationEvent) error
}
