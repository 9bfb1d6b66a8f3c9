package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/domain/transaction"
	"github.com/bank-core-ledger/internal/transaction_processor/service"
)

type FailureRecorderImpl struct {
	transactionRepo transaction.Repository
	clock           shared.Clock
	logger          *slog.Logger
}

func NewFailureRecorder(transactionRepo transaction.Repository, clock shared.Clock, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		transactionRepo: transactionRepo,
		clock:           clock,
		logger:          logger,
	}
}

// RecordFailure writes the terminal FAILED record for a rejected movement.
// The PENDING record is assembled directly rather than through the
// constructor (rejected requests are by definition ones the constructor
// would refuse), then failed through the state machine so the description
// carries the reason.
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, request *shared.MovementRequest, failureReason string) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Recording failed movement", "transaction_id", request.TransactionID.String(), "reason", failureReason)

	now := r.clock.Now()
	txn := &transaction.Transaction{
		ID:              request.TransactionID,
		FromAccountID:   request.FromAccountID,
		ToAccountID:     request.ToAccountID,
		Type:            request.Type,
		Amount:          request.Amount,
		FeeAmount:       money.Zero(),
		ExchangeRate:    decimal.NewFromInt(1),
		Currency:        request.Currency,
		Description:     request.Description,
		Status:          shared.TransactionStatusPending,
		IdempotencyKey:  request.IdempotencyKey,
		CorrelationID:   request.CorrelationID,
		TransactionDate: request.Timestamp,
	}
	if failErr := txn.Fail(failureReason); failErr != nil {
		return failErr
	}
	txn.ProcessedAt = &now

	existing, err := r.transactionRepo.GetByID(ctx, request.TransactionID)
	if err != nil && !errors.Is(err, transaction.ErrTransactionNotFound{}) {
		logger.Error("Failed to get existing record for failed movement", "transaction_id", request.TransactionID.String(), "error", err)
	}

	if existing != nil {
		if existing.Status != shared.TransactionStatusFailed {
			logger.Info("Updating existing record to FAILED", "transaction_id", request.TransactionID.String(), "status", existing.Status)
			updateErr := r.transactionRepo.UpdateStatus(ctx, request.TransactionID, shared.TransactionStatusFailed, failureReason)
			if updateErr != nil {
				logger.Error("Failed to update record to FAILED", "transaction_id", request.TransactionID.String(), "error", updateErr)
				return updateErr
			}
			logger.Info("Successfully updated record to FAILED", "transaction_id", request.TransactionID.String())
			return nil
		}
		logger.Info("Record already marked as FAILED", "transaction_id", request.TransactionID.String())
		return nil
	}

	logger.Info("Creating new FAILED record", "transaction_id", request.TransactionID.String())
	createErr := r.transactionRepo.Create(ctx, txn)
	if createErr != nil {
		logger.Error("Failed to create FAILED record", "transaction_id", request.TransactionID.String(), "error", createErr)
		return createErr
	}
	logger.Info("Successfully created FAILED record", "transaction_id", request.TransactionID.String())
	return nil
}
