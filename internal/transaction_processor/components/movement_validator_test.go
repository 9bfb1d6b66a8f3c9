package components

import (
	"context"
	"errors"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/domain/transaction"
)

// MockTransactionRepo for testing
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, txn *transaction.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepo) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) GetByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) GetByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepo) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status shared.TransactionStatus, failureReason string) error {
	args := m.Called(ctx, id, status, failureReason)
	return args.Error(0)
}

func (m *MockTransactionRepo) GetByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, start, end, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

func movementRequest(txType shared.TransactionType, from, to *uuid.UUID) *shared.MovementRequest {
	return movementRequestOf(txType, from, to, "100.00")
}

func movementRequestOf(txType shared.TransactionType, from, to *uuid.UUID, amount string) *shared.MovementRequest {
	return &shared.MovementRequest{
		TransactionID: uuid.New(),
		FromAccountID: from,
		ToAccountID:   to,
		Type:          txType,
		Amount:        money.MustFromString(amount),
		Currency:      "USD",
		CorrelationID: "corr-validate",
		Timestamp:     time.Now(),
	}
}

func TestMovementValidator_Validate(t *testing.T) {
	logger := slog.Default()
	validator := NewMovementValidator(&MockTransactionRepo{}, logger)
	ctx := context.Background()

	fromID := uuid.New()
	toID := uuid.New()

	t.Run("valid deposit", func(t *testing.T) {
		err := validator.Validate(ctx, movementRequest(shared.TransactionTypeDeposit, nil, &toID))
		assert.NoError(t, err)
	})

	t.Run("valid withdrawal", func(t *testing.T) {
		err := validator.Validate(ctx, movementRequest(shared.TransactionTypeWithdrawal, &fromID, nil))
		assert.NoError(t, err)
	})

	t.Run("valid transfer", func(t *testing.T) {
		err := validator.Validate(ctx, movementRequest(shared.TransactionTypeTransfer, &fromID, &toID))
		assert.NoError(t, err)
	})

	t.Run("unknown movement type", func(t *testing.T) {
		request := movementRequest("REFUND", &fromID, nil)
		err := validator.Validate(ctx, request)
		assert.ErrorIs(t, err, shared.ErrInvalidMovementType)
		assert.ErrorIs(t, err, shared.ErrInvalidOperation)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		request := movementRequest(shared.TransactionTypeDeposit, nil, &toID)
		request.Amount = money.Zero()
		err := validator.Validate(ctx, request)
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("withdrawal without source account", func(t *testing.T) {
		err := validator.Validate(ctx, movementRequest(shared.TransactionTypeWithdrawal, nil, nil))
		assert.ErrorIs(t, err, shared.ErrMissingAccount)
	})

	t.Run("transfer without destination account", func(t *testing.T) {
		err := validator.Validate(ctx, movementRequest(shared.TransactionTypeTransfer, &fromID, nil))
		assert.ErrorIs(t, err, shared.ErrMissingAccount)
	})

	t.Run("transfer between identical accounts", func(t *testing.T) {
		err := validator.Validate(ctx, movementRequest(shared.TransactionTypeTransfer, &fromID, &fromID))
		assert.ErrorIs(t, err, shared.ErrMissingAccount)
	})

	t.Run("invalid currency code", func(t *testing.T) {
		request := movementRequest(shared.TransactionTypeDeposit, nil, &toID)
		request.Currency = "US"
		err := validator.Validate(ctx, request)
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})
}

func TestMovementValidator_CheckIdempotency(t *testing.T) {
	logger := slog.Default()
	ctx := context.Background()
	fromID := uuid.New()

	t.Run("no existing record continues", func(t *testing.T) {
		mockRepo := &MockTransactionRepo{}
		validator := NewMovementValidator(mockRepo, logger)
		request := movementRequest(shared.TransactionTypeWithdrawal, &fromID, nil)

		mockRepo.On("GetByID", mock.Anything, request.TransactionID).
			Return(nil, transaction.ErrTransactionNotFound{TransactionID: request.TransactionID})

		skip, err := validator.CheckIdempotency(ctx, request)
		assert.NoError(t, err)
		assert.False(t, skip)
		mockRepo.AssertExpectations(t)
	})

	t.Run("terminal record skips processing", func(t *testing.T) {
		mockRepo := &MockTransactionRepo{}
		validator := NewMovementValidator(mockRepo, logger)
		request := movementRequest(shared.TransactionTypeWithdrawal, &fromID, nil)

		mockRepo.On("GetByID", mock.Anything, request.TransactionID).
			Return(&transaction.Transaction{ID: request.TransactionID, Status: shared.TransactionStatusCompleted}, nil)

		skip, err := validator.CheckIdempotency(ctx, request)
		assert.NoError(t, err)
		assert.True(t, skip)
	})

	t.Run("non-terminal record continues", func(t *testing.T) {
		mockRepo := &MockTransactionRepo{}
		validator := NewMovementValidator(mockRepo, logger)
		request := movementRequest(shared.TransactionTypeWithdrawal, &fromID, nil)

		mockRepo.On("GetByID", mock.Anything, request.TransactionID).
			Return(&transaction.Transaction{ID: request.TransactionID, Status: shared.TransactionStatusPending}, nil)

		skip, err := validator.CheckIdempotency(ctx, request)
		assert.NoError(t, err)
		assert.False(t, skip)
	})

	t.Run("idempotency key hit skips processing", func(t *testing.T) {
		mockRepo := &MockTransactionRepo{}
		validator := NewMovementValidator(mockRepo, logger)
		request := movementRequest(shared.TransactionTypeWithdrawal, &fromID, nil)
		request.IdempotencyKey = "retry-key-1"

		mockRepo.On("GetByID", mock.Anything, request.TransactionID).
			Return(nil, transaction.ErrTransactionNotFound{TransactionID: request.TransactionID})
		mockRepo.On("GetByIdempotencyKey", mock.Anything, "retry-key-1").
			Return(&transaction.Transaction{ID: uuid.New(), Status: shared.TransactionStatusFailed}, nil)

		skip, err := validator.CheckIdempotency(ctx, request)
		assert.NoError(t, err)
		assert.True(t, skip)
	})

	t.Run("repository error propagates", func(t *testing.T) {
		mockRepo := &MockTransactionRepo{}
		validator := NewMovementValidator(mockRepo, logger)
		request := movementRequest(shared.TransactionTypeWithdrawal, &fromID, nil)

		mockRepo.On("GetByID", mock.Anything, request.TransactionID).
			Return(nil, errors.New("mongo unavailable"))

		skip, err := validator.CheckIdempotency(ctx, request)
		assert.Error(t, err)
		assert.False(t, skip)
	})
}
