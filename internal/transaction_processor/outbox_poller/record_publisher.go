package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bank-core-ledger/internal/domain/outbox"
	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/domain/transaction"
)

// RecordPublisher writes staged outbox messages into the transaction record store
type RecordPublisher interface {
	PublishRecord(ctx context.Context, message *outbox.Message) error
}

// RecordPublisherImpl implements RecordPublisher
type RecordPublisherImpl struct {
	outboxRepo      outbox.Repository
	transactionRepo transaction.Repository
	logger          *slog.Logger
}

// NewRecordPublisher creates a new publisher
func NewRecordPublisher(
	outboxRepo outbox.Repository,
	transactionRepo transaction.Repository,
	logger *slog.Logger,
) RecordPublisher {
	return &RecordPublisherImpl{
		outboxRepo:      outboxRepo,
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// PublishRecord writes the staged transaction record to the document store
// and marks the outbox message PROCESSED. The payload was committed together
// with the balance changes, so a record that fails here is retried by the
// poller rather than lost.
func (p *RecordPublisherImpl) PublishRecord(ctx context.Context, message *outbox.Message) error {
	txn, err := message.GetTransaction()
	if err != nil {
		p.logger.Error("Failed to unmarshal transaction record from outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	// Add correlation ID to logger
	logger := p.logger
	if txn.CorrelationID != "" {
		logger = p.logger.With("correlation_id", txn.CorrelationID)
	}

	logger.Info("Attempting to publish outbox message to record store", "outbox_id", message.ID, "transaction_id", message.TransactionID)

	existing, err := p.transactionRepo.GetByID(ctx, txn.ID)
	if err != nil && !errors.Is(err, transaction.ErrTransactionNotFound{}) {
		logger.Error("Failed to check existing transaction record before publishing", "transaction_id", txn.ID, "error", err)
		return fmt.Errorf("failed to check existing transaction record %s: %w", txn.ID, err)
	}

	if existing != nil {
		if existing.Status == txn.Status {
			logger.Info("Transaction record already published", "transaction_id", txn.ID, "status", existing.Status)
		} else {
			err = p.transactionRepo.UpdateStatus(ctx, txn.ID, txn.Status, txn.FailureReason)
			if err != nil {
				logger.Error("Failed to update existing transaction record", "transaction_id", txn.ID, "error", err)
				return fmt.Errorf("failed to update transaction record %s to %s: %w", txn.ID, txn.Status, err)
			}
			logger.Info("Updated existing transaction record", "transaction_id", txn.ID, "status", txn.Status)
		}
	} else {
		err = p.transactionRepo.Create(ctx, txn)
		if err != nil {
			logger.Error("Failed to create transaction record in MongoDB", "transaction_id", txn.ID, "error", err)
			return fmt.Errorf("failed to create transaction record %s: %w", txn.ID, err)
		}
		logger.Info("Successfully created transaction record in MongoDB", "transaction_id", txn.ID)
	}

	// Mark outbox message as processed
	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err,
		)
		return fmt.Errorf("record write for %s OK, but failed to mark outbox %d as PROCESSED: %w", message.TransactionID, message.ID, err)
	}

	logger.Info("Outbox message successfully processed and marked as PROCESSED", "outbox_id", message.ID, "transaction_id", message.TransactionID)
	return nil
}
