package postgres

import (
	"context"
	"database/sql"

	"github.com/sokohub/settlement-service/internal/application/ports"
	domainErrors "github.com/sokohub/settlement-service/internal/domain/errors"
	"github.com/sokohub/settlement-service/internal/infrastructure/monitoring"
)

type ReconciliationRepository struct {
	db *sql.DB
}

func NewReconciliationRepository(conn *Connection) *ReconciliationRepository {
	return &ReconciliationRepository{
		db: conn.GetDB(),
	}
}

func (r *ReconciliationRepository) Enqueue(ctx context.Context, record *ports.ReconciliationRecord) error {
	query := `
		INSERT INTO payment_reconciliation (
			external_reference, settlement_id, amount, payer_phone,
			reason, gateway_state, note, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (external_reference) DO NOTHING
	`

	_, err := monitoring.InstrumentExec(ctx, r.db, "INSERT", "payment_reconciliation", query,
		record.ExternalReference, record.SettlementID, record.Amount, record.PayerPhone,
		record.Reason, record.GatewayState, record.Note, record.CreatedAt,
	)
	return err
}

func (r *ReconciliationRepository) ListUnresolved(ctx context.Context, limit int) ([]*ports.ReconciliationRecord, error) {
	query := `
		SELECT external_reference, settlement_id, amount, payer_phone,
		       reason, gateway_state, note, created_at, resolved_at
		FROM payment_reconciliation
		WHERE resolved_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := monitoring.InstrumentQuery(ctx, r.db, "SELECT", "payment_reconciliation", query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ports.ReconciliationRecord
	for rows.Next() {
		var record ports.ReconciliationRecord
		var resolvedAt sql.NullTime

		err := rows.Scan(
			&record.ExternalReference, &record.SettlementID, &record.Amount, &record.PayerPhone,
			&record.Reason, &record.GatewayState, &record.Note, &record.CreatedAt, &resolvedAt,
		)
		if err != nil {
			return nil, err
		}

		if resolvedAt.Valid {
			record.ResolvedAt = &resolvedAt.Time
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

func (r *ReconciliationRepository) UpdateGatewayState(ctx context.Context, externalReference, gatewayState string) error {
	query := `
		UPDATE payment_reconciliation
		SET gateway_state = $2
		WHERE external_reference = $1
	`

	result, err := monitoring.InstrumentExec(ctx, r.db, "UPDATE", "payment_reconciliation", query,
		externalReference, gatewayState)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domainErrors.ErrReconciliationNotFound
	}

	return nil
}

func (r *ReconciliationRepository) Resolve(ctx context.Context, externalReference, note string) error {
	query := `
		UPDATE payment_reconciliation
		SET resolved_at = NOW(), note = $2
		WHERE external_reference = $1 AND resolved_at IS NULL
	`

	result, err := monitoring.InstrumentExec(ctx, r.db, "UPDATE", "payment_reconciliation", query,
		externalReference, note)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domainErrors.ErrReconciliationNotFound
	}

	return nil
}
