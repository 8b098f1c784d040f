package sale

import (
	"time"

	"github.com/sokohub/settlement-service/internal/domain/pricing"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusPaid     RequestStatus = "paid"
	RequestStatusShipped  RequestStatus = "shipped"
)

// StockRequest is an approved B2B order from a branch, settled through
// the same orchestrator as a POS cart.
type StockRequest struct {
	ID        string
	BranchID  string
	Status    RequestStatus
	AmountDue int64
	Lines     []pricing.Line
	CreatedAt time.Time
}

// Payable reports whether the request is in the one status that may
// accept payment. Pending requests are not priced yet; paid and
// shipped ones are already settled.
func (r *StockRequest) Payable() bool {
	return r.Status == RequestStatusApproved
}
