package ports

import (
	"context"
)

type GatewayState string

const (
	GatewayPending   GatewayState = "pending"
	GatewayCompleted GatewayState = "completed"
	GatewayFailed    GatewayState = "failed"
)

type GatewayStatus struct {
	State  GatewayState
	Detail string
}

// PaymentGateway is the mobile-money provider boundary. Initiate pushes
// the payment prompt to the payer and returns the opaque external
// reference that is the only valid key for status polling. Push-style
// provider callbacks are not assumed reliable; polling QueryStatus is
// the primary confirmation path.
type PaymentGateway interface {
	Initiate(ctx context.Context, amount int64, payerPhone string) (string, error)
	QueryStatus(ctx context.Context, externalReference string) (GatewayStatus, error)
}
