package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/bank-core-ledger/internal/domain/shared"
)

// ProcessingService defines the interface for processing movement requests.
type ProcessingService interface {
	ProcessMovement(ctx context.Context, request *shared.MovementRequest) error
}

// MovementValidator validates movement requests before processing
type MovementValidator interface {
	Validate(ctx context.Context, request *shared.MovementRequest) error
	CheckIdempotency(ctx context.Context, request *shared.MovementRequest) (bool, error)
}

// AccountManager applies a movement to the involved account balances
// inside the surrounding database transaction. Both sides of a transfer
// commit together or not at all.
type AccountManager interface {
	ApplyMovement(ctx context.Context, tx pgx.Tx, request *shared.MovementRequest) error
}

// OutboxManager stages the completed transaction record for publication
// within the same database transaction as the balance changes
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, tx pgx.Tx, request *shared.MovementRequest) error
}

// FailureRecorder writes the terminal FAILED record for rejected movements
type FailureRecorder interface {
	RecordFailure(ctx context.Context, request *shared.MovementRequest, failureReason string) error
}
