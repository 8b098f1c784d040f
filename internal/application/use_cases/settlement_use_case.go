package use_cases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sokohub/settlement-service/internal/application/ports"
	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/domain/payment"
	"github.com/sokohub/settlement-service/internal/domain/sale"
	"github.com/sokohub/settlement-service/internal/infrastructure/monitoring"
	"github.com/sokohub/settlement-service/internal/pkg/clock"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

// processedReferenceTTL keeps claimed gateway references long past any
// realistic duplicate-confirmation window.
const processedReferenceTTL = 24 * time.Hour

type Outcome struct {
	Sale              *sale.Sale    `json:"sale,omitempty"`
	IntentState       payment.State `json:"intent_state,omitempty"`
	ExternalReference string        `json:"external_reference,omitempty"`
}

// SettlementUseCase is the payment orchestrator. It sequences
// validation, payment-method branching, the asynchronous confirmation
// wait, and the exactly-once commit for both POS sales and B2B stock
// requests, which reach it through the same Settleable capability.
type SettlementUseCase struct {
	gateway ports.PaymentGateway
	cache   ports.Cache
	events  ports.EventPublisher
	recon   ports.ReconciliationStore
	tracker *IntentTracker
	clk     clock.Clock
	log     *logger.Logger
	lockTTL time.Duration
}

func NewSettlementUseCase(
	gateway ports.PaymentGateway,
	cache ports.Cache,
	events ports.EventPublisher,
	recon ports.ReconciliationStore,
	tracker *IntentTracker,
	clk clock.Clock,
	log *logger.Logger,
	lockTTL time.Duration,
) *SettlementUseCase {
	return &SettlementUseCase{
		gateway: gateway,
		cache:   cache,
		events:  events,
		recon:   recon,
		tracker: tracker,
		clk:     clk,
		log:     log,
		lockTTL: lockTTL,
	}
}

func (uc *SettlementUseCase) Settle(ctx context.Context, target sale.Settleable, method sale.PaymentMethod, payerPhone string) (*Outcome, error) {
	amount := target.AmountDue()
	if amount <= 0 {
		return nil, domainErrors.ErrInvalidAmount
	}

	locked, err := uc.cache.AcquireSettlementLock(ctx, target.SettlementID(), uc.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire settlement lock: %w", err)
	}
	if !locked {
		return nil, domainErrors.ErrSettlementInProgress
	}
	defer func() {
		if err := uc.cache.ReleaseSettlementLock(context.WithoutCancel(ctx), target.SettlementID()); err != nil {
			uc.log.Error("Failed to release settlement lock", "error", err, "settlement_id", target.SettlementID())
		}
	}()

	if !method.RequiresConfirmation() {
		return uc.settleDirect(ctx, target, method)
	}

	return uc.settleMobileMoney(ctx, target, method, payerPhone, amount)
}

// settleDirect covers cash and other offline methods: money is in hand,
// stock moves now.
func (uc *SettlementUseCase) settleDirect(ctx context.Context, target sale.Settleable, method sale.PaymentMethod) (*Outcome, error) {
	record, err := target.Commit(ctx, "")
	if err != nil {
		monitoring.RecordSettlement(string(method), "rejected")
		return nil, err
	}

	monitoring.RecordSettlement(string(method), "committed")
	uc.publishSaleCompleted(ctx, record)

	return &Outcome{Sale: record}, nil
}

func (uc *SettlementUseCase) settleMobileMoney(ctx context.Context, target sale.Settleable, method sale.PaymentMethod, payerPhone string, amount int64) (*Outcome, error) {
	intent, err := payment.NewIntent(amount, payerPhone)
	if err != nil {
		return nil, err
	}

	if err := intent.Request(); err != nil {
		return nil, err
	}

	reference, err := uc.gateway.Initiate(ctx, amount, payerPhone)
	if err != nil {
		// Back to Idle: the operator may correct and retry right away.
		_ = intent.Reject()
		monitoring.RecordSettlement(string(method), "initiation_failed")
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}

	if err := intent.Accept(reference); err != nil {
		return nil, err
	}

	if err := uc.cache.SetActiveIntent(ctx, target.SettlementID(), reference, uc.lockTTL); err != nil {
		uc.log.Warn("Failed to record active intent", "error", err, "settlement_id", target.SettlementID())
	}
	defer func() {
		if err := uc.cache.ClearActiveIntent(context.WithoutCancel(ctx), target.SettlementID()); err != nil {
			uc.log.Warn("Failed to clear active intent", "error", err, "settlement_id", target.SettlementID())
		}
	}()

	uc.log.Info("Payment intent awaiting confirmation",
		"settlement_id", target.SettlementID(),
		"external_reference", reference,
		"amount", amount,
	)

	if err := uc.tracker.Await(ctx, intent); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			uc.enqueueReconciliation(ctx, target.SettlementID(), intent, ports.ReconciliationReasonAbandoned)
			monitoring.RecordSettlement(string(method), "abandoned")
			return nil, fmt.Errorf("%w: %v", domainErrors.ErrPaymentAbandoned, err)
		}
		return nil, err
	}

	switch intent.State() {
	case payment.StateSucceeded:
		return uc.commitConfirmed(ctx, target, method, intent)

	case payment.StateFailed:
		uc.publishPaymentFailed(ctx, target.SettlementID(), intent, intent.FailureReason)
		monitoring.RecordSettlement(string(method), "payment_failed")
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrPaymentFailed, intent.FailureReason)

	case payment.StateTimedOut:
		// The provider side may still complete out of band. Park the
		// reference for reconciliation instead of dropping it.
		uc.enqueueReconciliation(ctx, target.SettlementID(), intent, ports.ReconciliationReasonTimeout)
		uc.publishPaymentFailed(ctx, target.SettlementID(), intent, "confirmation timed out")
		monitoring.RecordSettlement(string(method), "timed_out")
		return nil, domainErrors.ErrPaymentTimedOut

	default:
		return nil, domainErrors.ErrInvalidStateTransition
	}
}

// commitConfirmed runs the exactly-once commit after a confirmed
// payment. The processed-reference claim makes a duplicate confirmation
// for the same external reference a no-op.
func (uc *SettlementUseCase) commitConfirmed(ctx context.Context, target sale.Settleable, method sale.PaymentMethod, intent *payment.Intent) (*Outcome, error) {
	claimed, err := uc.cache.MarkReferenceProcessed(ctx, intent.ExternalReference, processedReferenceTTL)
	if err != nil {
		// The intent state machine still guards in-process duplicates;
		// proceed rather than strand a confirmed payment.
		uc.log.Warn("Failed to claim payment reference", "error", err, "external_reference", intent.ExternalReference)
	} else if !claimed {
		monitoring.RecordSettlement(string(method), "duplicate_confirmation")
		return nil, domainErrors.ErrReferenceAlreadyProcessed
	}

	record, err := target.Commit(ctx, intent.ExternalReference)
	if err != nil {
		if errors.Is(err, domainErrors.ErrInsufficientStock) {
			// The worst class: money moved, goods cannot be allocated.
			uc.enqueueReconciliation(ctx, target.SettlementID(), intent, ports.ReconciliationReasonUnfulfilled)
			monitoring.RecordSettlement(string(method), "fulfillment_failed")
			uc.log.Error("Payment succeeded but commit was rejected",
				"settlement_id", target.SettlementID(),
				"external_reference", intent.ExternalReference,
				"error", err.Error(),
			)
			return nil, fmt.Errorf("%w: %v", domainErrors.ErrFulfillmentFailed, err)
		}
		return nil, err
	}

	monitoring.RecordSettlement(string(method), "committed")
	uc.publishSaleCompleted(ctx, record)

	return &Outcome{
		Sale:              record,
		IntentState:       intent.State(),
		ExternalReference: intent.ExternalReference,
	}, nil
}

func (uc *SettlementUseCase) enqueueReconciliation(ctx context.Context, settlementID string, intent *payment.Intent, reason string) {
	record := &ports.ReconciliationRecord{
		ExternalReference: intent.ExternalReference,
		SettlementID:      settlementID,
		Amount:            intent.Amount,
		PayerPhone:        intent.PayerPhone,
		Reason:            reason,
		CreatedAt:         uc.clk.Now(),
	}

	if err := uc.recon.Enqueue(context.WithoutCancel(ctx), record); err != nil {
		uc.log.Error("Failed to enqueue reconciliation record",
			"error", err,
			"external_reference", intent.ExternalReference,
			"reason", reason,
		)
		return
	}

	monitoring.RecordReconciliationQueued(reason)
}

func (uc *SettlementUseCase) publishSaleCompleted(ctx context.Context, record *sale.Sale) {
	event := ports.SaleCompletedEvent{
		EventID:          uuid.NewString(),
		SaleID:           record.ID,
		ReceiptNumber:    record.ReceiptNumber,
		BranchID:         record.BranchID,
		PaymentMethod:    string(record.PaymentMethod),
		PaymentReference: record.PaymentReference,
		TotalAmount:      record.TotalAmount,
		OccurredAt:       uc.clk.Now(),
	}

	if err := uc.events.PublishSaleCompleted(ctx, event); err != nil {
		uc.log.Warn("Failed to publish sale completed event", "error", err, "sale_id", record.ID)
	}
}

func (uc *SettlementUseCase) publishPaymentFailed(ctx context.Context, settlementID string, intent *payment.Intent, reason string) {
	event := ports.PaymentFailedEvent{
		EventID:           uuid.NewString(),
		SettlementID:      settlementID,
		ExternalReference: intent.ExternalReference,
		Amount:            intent.Amount,
		Reason:            reason,
		OccurredAt:        uc.clk.Now(),
	}

	if err := uc.events.PublishPaymentFailed(ctx, event); err != nil {
		uc.log.Warn("Failed to publish payment failed event", "error", err, "settlement_id", settlementID)
	}
}
