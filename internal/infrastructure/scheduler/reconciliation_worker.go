package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sokohub/settlement-service/internal/application/ports"
	"github.com/sokohub/settlement-service/internal/infrastructure/monitoring"
	"github.com/sokohub/settlement-service/internal/pkg/logger"
)

// ReconciliationWorker periodically re-queries the gateway for
// references the orchestrator stopped waiting on. A confirmation that
// arrives after timeout means money moved with no local sale; the
// worker flags it for manual resolution and emits an event. It never
// auto-commits: the operator already saw a failure and staff must own
// the fix.
type ReconciliationWorker struct {
	store    ports.ReconciliationStore
	gateway  ports.PaymentGateway
	events   ports.EventPublisher
	log      *logger.Logger
	interval time.Duration
	batch    int
	stopChan chan struct{}
}

func NewReconciliationWorker(
	store ports.ReconciliationStore,
	gateway ports.PaymentGateway,
	events ports.EventPublisher,
	log *logger.Logger,
	interval time.Duration,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		store:    store,
		gateway:  gateway,
		events:   events,
		log:      log,
		interval: interval,
		batch:    50,
		stopChan: make(chan struct{}),
	}
}

func (w *ReconciliationWorker) Start(ctx context.Context) {
	w.log.Info("Starting reconciliation worker", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Reconciliation worker stopped")
			return
		case <-w.stopChan:
			w.log.Info("Reconciliation worker stopped")
			return
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				w.log.Error("Reconciliation sweep failed", "error", err)
			}
		}
	}
}

func (w *ReconciliationWorker) Stop() {
	close(w.stopChan)
}

func (w *ReconciliationWorker) sweep(ctx context.Context) error {
	records, err := w.store.ListUnresolved(ctx, w.batch)
	if err != nil {
		return err
	}

	for _, record := range records {
		// Fulfillment failures carry a confirmed payment already; only
		// timed-out and abandoned references still need a gateway answer.
		if record.Reason == ports.ReconciliationReasonUnfulfilled {
			continue
		}
		if record.GatewayState != "" && record.GatewayState != string(ports.GatewayPending) {
			continue
		}

		status, err := w.gateway.QueryStatus(ctx, record.ExternalReference)
		if err != nil {
			w.log.Warn("Reconciliation status query failed",
				"external_reference", record.ExternalReference,
				"error", err.Error(),
			)
			continue
		}

		switch status.State {
		case ports.GatewayCompleted:
			if err := w.store.UpdateGatewayState(ctx, record.ExternalReference, string(ports.GatewayCompleted)); err != nil {
				w.log.Error("Failed to record late confirmation",
					"external_reference", record.ExternalReference,
					"error", err,
				)
				continue
			}

			monitoring.RecordLateConfirmation()
			w.log.Warn("Late payment confirmation detected",
				"external_reference", record.ExternalReference,
				"settlement_id", record.SettlementID,
				"amount", record.Amount,
			)

			event := ports.LateConfirmationEvent{
				EventID:           uuid.NewString(),
				SettlementID:      record.SettlementID,
				ExternalReference: record.ExternalReference,
				Amount:            record.Amount,
				OccurredAt:        time.Now().UTC(),
			}
			if err := w.events.PublishLateConfirmation(ctx, event); err != nil {
				w.log.Warn("Failed to publish late confirmation event",
					"external_reference", record.ExternalReference,
					"error", err.Error(),
				)
			}

		case ports.GatewayFailed:
			// Nothing was charged; close the record out.
			if err := w.store.UpdateGatewayState(ctx, record.ExternalReference, string(ports.GatewayFailed)); err != nil {
				w.log.Error("Failed to update reconciliation state", "external_reference", record.ExternalReference, "error", err)
				continue
			}
			if err := w.store.Resolve(ctx, record.ExternalReference, "provider reported failed; nothing owed"); err != nil {
				w.log.Error("Failed to resolve reconciliation record", "external_reference", record.ExternalReference, "error", err)
			}
		}
	}

	return nil
}
