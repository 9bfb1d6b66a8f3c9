package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/domain/transaction"
	"github.com/bank-core-ledger/internal/transaction_processor/service"
)

type MovementValidatorImpl struct {
	transactionRepo transaction.Repository
	logger          *slog.Logger
}

func NewMovementValidator(transactionRepo transaction.Repository, logger *slog.Logger) service.MovementValidator {
	return &MovementValidatorImpl{
		transactionRepo: transactionRepo,
		logger:          logger,
	}
}

// Validate checks movement request validity
func (v *MovementValidatorImpl) Validate(ctx context.Context, request *shared.MovementRequest) error {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	if !request.Type.IsMovement() {
		logger.Error("Unknown movement type", "req_id", request.TransactionID.String(), "type", request.Type)
		return shared.ErrInvalidMovementType
	}

	if !request.Amount.IsPositive() {
		logger.Error("Invalid amount", "req_id", request.TransactionID.String(), "amount", request.Amount.String())
		return fmt.Errorf("amount must be positive: %s: %w", request.Amount.String(), shared.ErrInvalidAmount)
	}

	if request.RequiresSource() && request.FromAccountID == nil {
		logger.Error("Movement requires a source account", "req_id", request.TransactionID.String(), "type", request.Type)
		return shared.ErrMissingAccount
	}
	if request.RequiresDestination() && request.ToAccountID == nil {
		logger.Error("Movement requires a destination account", "req_id", request.TransactionID.String(), "type", request.Type)
		return shared.ErrMissingAccount
	}
	if request.Type == shared.TransactionTypeTransfer && *request.FromAccountID == *request.ToAccountID {
		logger.Error("Transfer between identical accounts", "req_id", request.TransactionID.String(), "acc_id", request.FromAccountID.String())
		return shared.ErrMissingAccount
	}

	if len(request.Currency) != 3 {
		logger.Error("Invalid currency code", "req_id", request.TransactionID.String(), "currency", request.Currency)
		return fmt.Errorf("currency must be a 3-letter code: %q: %w", request.Currency, shared.ErrInvalidAmount)
	}

	return nil
}

// CheckIdempotency checks if the movement was already processed
func (v *MovementValidatorImpl) CheckIdempotency(ctx context.Context, request *shared.MovementRequest) (bool, error) {
	logger := v.logger
	if request.CorrelationID != "" {
		logger = v.logger.With("correlation_id", request.CorrelationID)
	}

	existing, err := v.transactionRepo.GetByID(ctx, request.TransactionID)
	if err != nil && !errors.Is(err, transaction.ErrTransactionNotFound{}) {
		logger.Error("Failed to check transaction records for idempotency", "transaction_id", request.TransactionID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for transaction %s: %w", request.TransactionID.String(), err)
	}

	if existing == nil && request.IdempotencyKey != "" {
		existing, err = v.transactionRepo.GetByIdempotencyKey(ctx, request.IdempotencyKey)
		if err != nil {
			logger.Error("Failed to check idempotency key", "transaction_id", request.TransactionID.String(), "error", err)
			return false, fmt.Errorf("idempotency check failed for key %s: %w", request.IdempotencyKey, err)
		}
	}

	if existing != nil {
		if existing.Status.IsTerminal() {
			logger.Info("Movement already processed (idempotency)", "transaction_id", request.TransactionID.String(), "status", existing.Status)
			return true, nil // Skip processing
		}
		logger.Info("Movement found with non-terminal status, proceeding", "transaction_id", request.TransactionID.String(), "status", existing.Status)
	}

	return false, nil // Continue processing
}
