package ports

import (
	"context"
	"time"
)

// Cache covers the coordination state the orchestrator keeps outside
// the database: at most one active settlement per cart, and a
// processed-reference set so a duplicate gateway confirmation can never
// trigger a second commit.
type Cache interface {
	AcquireSettlementLock(ctx context.Context, settlementID string, ttl time.Duration) (bool, error)
	ReleaseSettlementLock(ctx context.Context, settlementID string) error

	SetActiveIntent(ctx context.Context, settlementID, externalReference string, ttl time.Duration) error
	GetActiveIntent(ctx context.Context, settlementID string) (string, error)
	ClearActiveIntent(ctx context.Context, settlementID string) error

	// MarkReferenceProcessed claims the reference. Returns false when a
	// previous settlement already claimed it.
	MarkReferenceProcessed(ctx context.Context, externalReference string, ttl time.Duration) (bool, error)
}
