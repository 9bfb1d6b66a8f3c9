package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/bank-core-ledger/internal/domain/outbox"
	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/domain/transaction"
	"github.com/bank-core-ledger/internal/transaction_processor/service"
)

type OutboxManagerImpl struct {
	outboxRepo outbox.Repository
	clock      shared.Clock
	logger     *slog.Logger
}

func NewOutboxManager(outboxRepo outbox.Repository, clock shared.Clock, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		outboxRepo: outboxRepo,
		clock:      clock,
		logger:     logger,
	}
}

// CreateOutboxEntry stages the COMPLETED transaction record for the poller,
// in the same database transaction as the balance changes
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, request *shared.MovementRequest) error {
	logger := m.logger
	if request.CorrelationID != "" {
		logger = m.logger.With("correlation_id", request.CorrelationID)
	}

	outboxRepoTx := m.outboxRepo.WithTx(tx)

	txn, err := transaction.FromMovementRequest(request)
	if err != nil {
		logger.Error("Failed to build transaction record",
			"req_id", request.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to build transaction record for %s: %w", request.TransactionID.String(), err)
	}

	now := m.clock.Now()
	if err = txn.Process(now); err != nil {
		return fmt.Errorf("failed to mark transaction %s processing: %w", txn.ID.String(), err)
	}
	if err = txn.Complete(); err != nil {
		return fmt.Errorf("failed to mark transaction %s completed: %w", txn.ID.String(), err)
	}

	outboxMessage, err := outbox.NewMessage(txn, now)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"req_id", request.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for tx %s: %w", request.TransactionID.String(), err)
	}

	if err = outboxRepoTx.Create(ctx, outboxMessage); err != nil {
		logger.Error("Failed to create outbox message",
			"req_id", request.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for tx %s: %w", request.TransactionID.String(), err)
	}
	logger.Info("Outbox message created successfully",
		"req_id", request.TransactionID.String(),
		"outbox_id", outboxMessage.ID,
	)

	return nil
}
