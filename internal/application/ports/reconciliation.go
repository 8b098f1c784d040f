package ports

import (
	"context"
	"time"
)

const (
	ReconciliationReasonTimeout     = "timeout"
	ReconciliationReasonAbandoned   = "abandoned"
	ReconciliationReasonUnfulfilled = "fulfillment_failed"
)

// ReconciliationRecord captures a payment reference the orchestrator
// stopped waiting on. The provider may still complete the payment out
// of band; the reconciliation worker re-queries and flags those for
// manual resolution instead of silently dropping the money.
type ReconciliationRecord struct {
	ExternalReference string
	SettlementID      string
	Amount            int64
	PayerPhone        string
	Reason            string
	GatewayState      string
	Note              string
	CreatedAt         time.Time
	ResolvedAt        *time.Time
}

func (r *ReconciliationRecord) Resolved() bool {
	return r.ResolvedAt != nil
}

type ReconciliationStore interface {
	Enqueue(ctx context.Context, record *ReconciliationRecord) error
	ListUnresolved(ctx context.Context, limit int) ([]*ReconciliationRecord, error)
	UpdateGatewayState(ctx context.Context, externalReference, gatewayState string) error
	Resolve(ctx context.Context, externalReference, note string) error
}
