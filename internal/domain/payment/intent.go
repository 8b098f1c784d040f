package payment

import (
	"time"

	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
)

type State string

const (
	StateIdle                 State = "IDLE"
	StateRequested            State = "REQUESTED"
	StateAwaitingConfirmation State = "AWAITING_CONFIRMATION"
	StateSucceeded            State = "SUCCEEDED"
	StateFailed               State = "FAILED"
	StateTimedOut             State = "TIMED_OUT"
)

func (s State) Terminal() bool {
	switch s {
	case StateSucceeded, StateFailed, StateTimedOut:
		return true
	default:
		return false
	}
}

// Intent tracks one outstanding mobile-money request. It is owned by a
// single settlement attempt, never shared and never reused: a retry
// after failure gets a fresh intent with a fresh external reference.
//
// The state machine is push-free. Transitions only mutate state; the
// orchestrator observes them synchronously through the tracker.
type Intent struct {
	Amount            int64
	PayerPhone        string
	ExternalReference string
	FailureReason     string
	CreatedAt         time.Time

	state State
}

// NewIntent validates the payer input up front: a bad phone or a
// non-positive amount never reaches the gateway.
func NewIntent(amount int64, payerPhone string) (*Intent, error) {
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}
	if !ValidMSISDN(payerPhone) {
		return nil, domainErrors.ErrInvalidPhoneNumber
	}

	return &Intent{
		Amount:     amount,
		PayerPhone: payerPhone,
		CreatedAt:  time.Now().UTC(),
		state:      StateIdle,
	}, nil
}

func (i *Intent) State() State {
	return i.state
}

// Request marks the gateway-initiate call in flight.
func (i *Intent) Request() error {
	if i.state != StateIdle {
		return domainErrors.ErrInvalidStateTransition
	}
	i.state = StateRequested
	return nil
}

// Reject returns the intent to Idle after a failed initiation, so the
// operator can retry immediately.
func (i *Intent) Reject() error {
	if i.state != StateRequested {
		return domainErrors.ErrInvalidStateTransition
	}
	i.state = StateIdle
	return nil
}

// Accept records the external reference the gateway handed back. The
// reference is the sole correlation key for all subsequent polling.
func (i *Intent) Accept(externalReference string) error {
	if i.state != StateRequested {
		return domainErrors.ErrInvalidStateTransition
	}
	if externalReference == "" {
		return domainErrors.ErrInvalidStateTransition
	}
	i.state = StateAwaitingConfirmation
	i.ExternalReference = externalReference
	return nil
}

// Succeed is only legal once, from AwaitingConfirmation. A duplicate
// confirmation for the same reference hits the guard and errors, which
// is what anchors the exactly-once commit property.
func (i *Intent) Succeed() error {
	if i.state != StateAwaitingConfirmation {
		return domainErrors.ErrInvalidStateTransition
	}
	i.state = StateSucceeded
	return nil
}

func (i *Intent) Fail(reason string) error {
	if i.state != StateAwaitingConfirmation {
		return domainErrors.ErrInvalidStateTransition
	}
	i.state = StateFailed
	i.FailureReason = reason
	return nil
}

// Timeout closes the intent after the confirmation ceiling elapsed. A
// confirmation arriving later is ignored by the orchestrator and lands
// in the reconciliation queue instead.
func (i *Intent) Timeout() error {
	if i.state != StateAwaitingConfirmation {
		return domainErrors.ErrInvalidStateTransition
	}
	i.state = StateTimedOut
	return nil
}

func (i *Intent) Terminal() bool {
	return i.state.Terminal()
}

// ValidMSISDN accepts international-format subscriber numbers: an
// optional leading +, then 9 to 15 digits.
func ValidMSISDN(phone string) bool {
	if phone == "" {
		return false
	}

	digits := phone
	if digits[0] == '+' {
		digits = digits[1:]
	}

	if len(digits) < 9 || len(digits) > 15 {
		return false
	}

	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
