package use_cases

import (
	"context"
	"time"

	"github.com/sokohub/settlement-service/internal/application/ports"
	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/domain/payment"
	"github.com/sokohub/settlement-service/internal/infrastructure/monitoring"
	"github.com/sokohub/settlement-service/internal/pkg/clock"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

// IntentTracker drives one intent from AwaitingConfirmation to a
// terminal state by polling the gateway on a fixed interval, bounded by
// a hard ceiling. Each tracker call owns its own timing state; there
// are no shared or ambient timer handles between checkout attempts.
type IntentTracker struct {
	gateway      ports.PaymentGateway
	clk          clock.Clock
	log          *logger.Logger
	pollInterval time.Duration
	timeout      time.Duration
}

func NewIntentTracker(gateway ports.PaymentGateway, clk clock.Clock, log *logger.Logger, pollInterval, timeout time.Duration) *IntentTracker {
	return &IntentTracker{
		gateway:      gateway,
		clk:          clk,
		log:          log,
		pollInterval: pollInterval,
		timeout:      timeout,
	}
}

// Await blocks until the intent reaches a terminal state or ctx is
// cancelled (operator abandonment). On ctx cancellation the intent is
// left in AwaitingConfirmation and the ctx error is returned; the
// caller decides what to do with the orphaned reference.
func (t *IntentTracker) Await(ctx context.Context, intent *payment.Intent) error {
	if intent.State() != payment.StateAwaitingConfirmation {
		return domainErrors.ErrInvalidStateTransition
	}

	start := t.clk.Now()

	for {
		if err := ctx.Err(); err != nil {
			t.log.Warn("Payment wait abandoned",
				"external_reference", intent.ExternalReference,
				"waited_ms", t.clk.Since(start).Milliseconds(),
			)
			return err
		}

		if t.clk.Since(start) >= t.timeout {
			monitoring.RecordIntentOutcome("timed_out")
			t.log.Warn("Payment confirmation timed out",
				"external_reference", intent.ExternalReference,
				"timeout_ms", t.timeout.Milliseconds(),
			)
			return intent.Timeout()
		}

		status, err := t.gateway.QueryStatus(ctx, intent.ExternalReference)
		monitoring.RecordIntentPoll()
		if err != nil {
			// Transient gateway trouble does not end the wait; the
			// ceiling does.
			t.log.Warn("Gateway status query failed",
				"external_reference", intent.ExternalReference,
				"error", err.Error(),
			)
		} else {
			switch status.State {
			case ports.GatewayCompleted:
				monitoring.RecordIntentOutcome("succeeded")
				monitoring.ObservePaymentWait(t.clk.Since(start))
				return intent.Succeed()
			case ports.GatewayFailed:
				monitoring.RecordIntentOutcome("failed")
				t.log.Info("Payment reported failed by gateway",
					"external_reference", intent.ExternalReference,
					"detail", status.Detail,
				)
				return intent.Fail(status.Detail)
			}
		}

		if err := t.clk.SleepContext(ctx, t.pollInterval); err != nil {
			t.log.Warn("Payment wait abandoned",
				"external_reference", intent.ExternalReference,
				"waited_ms", t.clk.Since(start).Milliseconds(),
			)
			return err
		}
	}
}
