package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/platform/persistence"
)

type ProcessingServiceImpl struct {
	validator       MovementValidator
	accountManager  AccountManager
	outboxManager   OutboxManager
	failureRecorder FailureRecorder
	logger          *slog.Logger

	// beginTx is replaceable in tests
	beginTx func(ctx context.Context) (pgx.Tx, error)
}

func NewProcessingService(
	pgDB *persistence.PostgresDB,
	validator MovementValidator,
	accountManager AccountManager,
	outboxManager OutboxManager,
	failureRecorder FailureRecorder,
	logger *slog.Logger,
) ProcessingService {
	return &ProcessingServiceImpl{
		validator:       validator,
		accountManager:  accountManager,
		outboxManager:   outboxManager,
		failureRecorder: failureRecorder,
		logger:          logger,
		beginTx: func(ctx context.Context) (pgx.Tx, error) {
			return pgDB.Pool().Begin(ctx)
		},
	}
}

// ProcessMovement handles the core logic for applying a money movement.
// Business rejections are recorded as terminal FAILED records and
// acknowledged; infrastructure errors propagate so the message is
// redelivered.
func (s *ProcessingServiceImpl) ProcessMovement(ctx context.Context, request *shared.MovementRequest) error {
	logger := s.logger
	if request.CorrelationID != "" {
		logger = s.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Processing movement", "transaction_id", request.TransactionID.String(), "type", string(request.Type))

	// 1. Validate the movement request
	if err := s.validator.Validate(ctx, request); err != nil {
		logger.Error("Movement validation failed", "transaction_id", request.TransactionID.String(), "error", err)

		if recordErr := s.failureRecorder.RecordFailure(ctx, request, validationFailureReason(err)); recordErr != nil {
			logger.Error("Failed to record movement failure", "transaction_id", request.TransactionID.String(), "error", recordErr)
		}

		return nil // Acknowledge: the request can never succeed
	}

	// 2. Check idempotency
	skip, err := s.validator.CheckIdempotency(ctx, request)
	if err != nil {
		return err // Let Kafka retry
	}
	if skip {
		return nil // Already processed, return success
	}

	// 3. Begin database transaction
	var tx pgx.Tx
	tx, err = s.beginTx(ctx)
	if err != nil {
		logger.Error("Failed to begin database transaction", "transaction_id", request.TransactionID.String(), "error", err)
		return fmt.Errorf("failed to begin DB transaction for %s: %w", request.TransactionID.String(), err)
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Panic recovered, rolling back transaction", "panic", p, "transaction_id", request.TransactionID.String())
			_ = tx.Rollback(ctx)
			panic(p) // Re-panic
		} else if err != nil {
			logger.Error("Error occurred, rolling back transaction", "error", err, "transaction_id", request.TransactionID.String())
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Error("Failed to rollback transaction after error", "rollback_error", rbErr, "original_error", err, "transaction_id", request.TransactionID.String())
			}
		}
	}()

	// 4. Lock the involved accounts and move the money
	if err = s.accountManager.ApplyMovement(ctx, tx, request); err != nil {
		if reason, rejected := rejectionReason(request, err); rejected {
			logger.Warn("Movement rejected", "transaction_id", request.TransactionID.String(), "reason", reason)
			if recordErr := s.failureRecorder.RecordFailure(ctx, request, reason); recordErr != nil {
				logger.Error("Failed to record movement failure", "transaction_id", request.TransactionID.String(), "error", recordErr)
			}
			return nil // Acknowledge: a retry would be rejected again. The defer rolls back.
		}

		// Infrastructure errors propagate for retry
		return err
	}

	// 5. Stage the transaction record in the outbox
	if err = s.outboxManager.CreateOutboxEntry(ctx, tx, request); err != nil {
		return err // Let the defer handle rollback
	}

	// 6. Commit transaction
	if err = tx.Commit(ctx); err != nil {
		logger.Error("Failed to commit database transaction",
			"transaction_id", request.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to commit DB transaction for tx %s: %w", request.TransactionID.String(), err)
	}

	logger.Info("Movement committed", "transaction_id", request.TransactionID.String())
	return nil
}

// validationFailureReason maps a validation error to the terminal record's
// failure reason
func validationFailureReason(err error) string {
	switch {
	case errors.Is(err, shared.ErrInvalidMovementType):
		return string(shared.FailureReasonUnknownError)
	case errors.Is(err, shared.ErrMissingAccount):
		return string(shared.FailureReasonMissingAccount)
	default:
		return string(shared.FailureReasonInvalidAmount)
	}
}

// rejectionReason classifies an ApplyMovement error. The second return is
// false for infrastructure errors, which must be retried instead of
// recorded as terminal failures.
func rejectionReason(request *shared.MovementRequest, err error) (string, bool) {
	switch {
	case errors.Is(err, account.ErrAccountNotFound{}):
		return string(shared.FailureReasonAccountNotFound), true
	case errors.Is(err, shared.ErrAccountNotActive):
		return string(shared.FailureReasonAccountNotActive), true
	case errors.Is(err, shared.ErrInvalidCurrency):
		return fmt.Sprintf(string(shared.FailureReasonCurrencyMismatchFormat), request.Currency, "account_currency"), true
	case errors.Is(err, shared.ErrInsufficientFunds):
		return string(shared.FailureReasonInsufficientFunds), true
	case errors.Is(err, shared.ErrBelowMinimumBalance):
		return string(shared.FailureReasonBelowMinimumBalance), true
	case errors.Is(err, account.ErrInvalidAmount):
		return string(shared.FailureReasonInvalidAmount), true
	case errors.Is(err, account.ErrWithdrawalNotAllowed):
		return string(shared.FailureReasonWithdrawalFailed), true
	default:
		return "", false
	}
}
