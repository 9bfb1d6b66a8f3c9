package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/domain/transaction"
	"github.com/bank-core-ledger/internal/platform/messaging/producers"
)

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	transactionRepo transaction.Repository
	producer        producers.MessagePublisher
	logger          *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(logger *slog.Logger, transactionRepo transaction.Repository, producer producers.MessagePublisher) TransactionService {
	return &TransactionServiceImpl{
		transactionRepo: transactionRepo,
		producer:        producer,
		logger:          logger,
	}
}

// SubmitMovement queues a movement for asynchronous processing, supporting
// idempotency via the request's idempotency key
func (s *TransactionServiceImpl) SubmitMovement(ctx context.Context, request *shared.MovementRequest) (string, *transaction.Transaction, error) {
	if request.IdempotencyKey != "" {
		existing, err := s.transactionRepo.GetByIdempotencyKey(ctx, request.IdempotencyKey)
		if err != nil {
			s.logger.Error("Failed to check for existing movement with idempotency key",
				"idempotency_key", request.IdempotencyKey,
				"error", err,
			)
			return "", nil, err
		}

		if existing != nil {
			s.logger.Info("Found existing movement with idempotency key",
				"idempotency_key", request.IdempotencyKey,
				"transaction_id", existing.ID.String(),
				"status", string(existing.Status),
			)
			return existing.ID.String(), existing, nil
		}
	}

	key := request.TransactionID.String()
	if err := s.producer.Publish(ctx, key, request); err != nil {
		s.logger.Error("Failed to publish movement request",
			"transaction_id", request.TransactionID.String(),
			"movement_type", string(request.Type),
			"amount", request.Amount.String(),
			"error", err,
		)
		return "", nil, err
	}

	s.logger.Info("Movement request published",
		"transaction_id", request.TransactionID.String(),
		"movement_type", string(request.Type),
		"amount", request.Amount.String(),
	)

	return request.TransactionID.String(), nil, nil
}

// GetTransactionByID retrieves a transaction record by its ID. Returns nil if not found
func (s *TransactionServiceImpl) GetTransactionByID(ctx context.Context, transactionID uuid.UUID) (*transaction.Transaction, error) {
	res, err := s.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, transaction.ErrTransactionNotFound{}) {
			s.logger.Info("Transaction not found", "transaction_id", transactionID.String())
			return nil, nil
		}
		s.logger.Error("Failed to get transaction by ID", "transaction_id", transactionID.String(), "error", err)
		return nil, err
	}
	return res, nil
}

// GetTransactionsByAccount retrieves the paginated movement history of an
// account together with the total record count
func (s *TransactionServiceImpl) GetTransactionsByAccount(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*transaction.Transaction, int64, error) {
	offset := (page - 1) * perPage

	records, err := s.transactionRepo.GetByAccount(ctx, accountID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.transactionRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
