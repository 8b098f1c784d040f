package sale

import (
	"context"
)

// Settleable is the capability the orchestrator needs from anything it
// can settle. POS carts and approved stock requests both implement it,
// so one driver covers both flows.
//
// Commit must be atomic and all-or-nothing: stock decrement, sale
// record and any source-document status flip land together or not at
// all. The orchestrator guarantees it is invoked at most once per
// successful payment.
type Settleable interface {
	SettlementID() string
	AmountDue() int64
	Commit(ctx context.Context, paymentReference string) (*Sale, error)
}
