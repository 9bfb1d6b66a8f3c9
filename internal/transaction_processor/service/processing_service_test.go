package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
)

// Mock implementations of the dependencies

type MockMovementValidator struct {
	mock.Mock
}

func (m *MockMovementValidator) Validate(ctx context.Context, request *shared.MovementRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockMovementValidator) CheckIdempotency(ctx context.Context, request *shared.MovementRequest) (bool, error) {
	args := m.Called(ctx, request)
	return args.Bool(0), args.Error(1)
}

type MockAccountManager struct {
	mock.Mock
}

func (m *MockAccountManager) ApplyMovement(ctx context.Context, tx pgx.Tx, request *shared.MovementRequest) error {
	args := m.Called(ctx, tx, request)
	return args.Error(0)
}

type MockOutboxManager struct {
	mock.Mock
}

func (m *MockOutboxManager) CreateOutboxEntry(ctx context.Context, tx pgx.Tx, request *shared.MovementRequest) error {
	args := m.Called(ctx, tx, request)
	return args.Error(0)
}

type MockFailureRecorder struct {
	mock.Mock
}

func (m *MockFailureRecorder) RecordFailure(ctx context.Context, request *shared.MovementRequest, failureReason string) error {
	args := m.Called(ctx, request, failureReason)
	return args.Error(0)
}

// MockTx implements the pgx.Tx interface for testing
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return &pgconn.StatementDescription{}, nil
}

func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *MockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *MockTx) Conn() *pgx.Conn {
	return nil
}

type serviceMocks struct {
	validator       *MockMovementValidator
	accountManager  *MockAccountManager
	outboxManager   *MockOutboxManager
	failureRecorder *MockFailureRecorder
	tx              *MockTx
}

func newServiceUnderTest(t *testing.T) (*ProcessingServiceImpl, *serviceMocks) {
	t.Helper()
	mocks := &serviceMocks{
		validator:       &MockMovementValidator{},
		accountManager:  &MockAccountManager{},
		outboxManager:   &MockOutboxManager{},
		failureRecorder: &MockFailureRecorder{},
		tx:              &MockTx{},
	}
	svc := &ProcessingServiceImpl{
		validator:       mocks.validator,
		accountManager:  mocks.accountManager,
		outboxManager:   mocks.outboxManager,
		failureRecorder: mocks.failureRecorder,
		logger:          slog.Default(),
		beginTx: func(ctx context.Context) (pgx.Tx, error) {
			return mocks.tx, nil
		},
	}
	return svc, mocks
}

func withdrawalRequest() *shared.MovementRequest {
	fromID := uuid.New()
	return &shared.MovementRequest{
		TransactionID: uuid.New(),
		FromAccountID: &fromID,
		Type:          shared.TransactionTypeWithdrawal,
		Amount:        money.MustFromString("100.00"),
		Currency:      "USD",
		CorrelationID: "corr-svc",
	}
}

func TestProcessingService_ProcessMovement(t *testing.T) {
	ctx := context.Background()

	t.Run("successful movement commits", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		request := withdrawalRequest()

		mocks.validator.On("Validate", mock.Anything, request).Return(nil)
		mocks.validator.On("CheckIdempotency", mock.Anything, request).Return(false, nil)
		mocks.accountManager.On("ApplyMovement", mock.Anything, mocks.tx, request).Return(nil)
		mocks.outboxManager.On("CreateOutboxEntry", mock.Anything, mocks.tx, request).Return(nil)
		mocks.tx.On("Commit", mock.Anything).Return(nil)

		err := svc.ProcessMovement(ctx, request)
		assert.NoError(t, err)
		mocks.validator.AssertExpectations(t)
		mocks.accountManager.AssertExpectations(t)
		mocks.outboxManager.AssertExpectations(t)
		mocks.tx.AssertExpectations(t)
		mocks.tx.AssertNotCalled(t, "Rollback", mock.Anything)
		mocks.failureRecorder.AssertNotCalled(t, "RecordFailure", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("validation failure is recorded and acknowledged", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		svc.beginTx = func(ctx context.Context) (pgx.Tx, error) {
			t.Fatal("no transaction should be started for an invalid request")
			return nil, nil
		}
		request := withdrawalRequest()

		mocks.validator.On("Validate", mock.Anything, request).Return(shared.ErrMissingAccount)
		mocks.failureRecorder.On("RecordFailure", mock.Anything, request, string(shared.FailureReasonMissingAccount)).Return(nil)

		err := svc.ProcessMovement(ctx, request)
		assert.NoError(t, err)
		mocks.failureRecorder.AssertExpectations(t)
	})

	t.Run("invalid movement type maps to unknown error", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		request := withdrawalRequest()

		mocks.validator.On("Validate", mock.Anything, request).Return(shared.ErrInvalidMovementType)
		mocks.failureRecorder.On("RecordFailure", mock.Anything, request, string(shared.FailureReasonUnknownError)).Return(nil)

		err := svc.ProcessMovement(ctx, request)
		assert.NoError(t, err)
		mocks.failureRecorder.AssertExpectations(t)
	})

	t.Run("already processed movement is skipped", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		request := withdrawalRequest()

		mocks.validator.On("Validate", mock.Anything, request).Return(nil)
		mocks.validator.On("CheckIdempotency", mock.Anything, request).Return(true, nil)

		err := svc.ProcessMovement(ctx, request)
		assert.NoError(t, err)
		mocks.accountManager.AssertNotCalled(t, "ApplyMovement", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("idempotency check error propagates for retry", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		request := withdrawalRequest()

		mocks.validator.On("Validate", mock.Anything, request).Return(nil)
		mocks.validator.On("CheckIdempotency", mock.Anything, request).Return(false, errors.New("mongo unavailable"))

		err := svc.ProcessMovement(ctx, request)
		assert.Error(t, err)
	})

	t.Run("business rejection rolls back and records failure", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		request := withdrawalRequest()

		mocks.validator.On("Validate", mock.Anything, request).Return(nil)
		mocks.validator.On("CheckIdempotency", mock.Anything, request).Return(false, nil)
		mocks.accountManager.On("ApplyMovement", mock.Anything, mocks.tx, request).Return(shared.ErrBelowMinimumBalance)
		mocks.failureRecorder.On("RecordFailure", mock.Anything, request, string(shared.FailureReasonBelowMinimumBalance)).Return(nil)
		mocks.tx.On("Rollback", mock.Anything).Return(nil)

		err := svc.ProcessMovement(ctx, request)
		assert.NoError(t, err)
		mocks.failureRecorder.AssertExpectations(t)
		mocks.tx.AssertCalled(t, "Rollback", mock.Anything)
		mocks.outboxManager.AssertNotCalled(t, "CreateOutboxEntry", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("insufficient funds records its own reason", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		request := withdrawalRequest()

		mocks.validator.On("Validate", mock.Anything, request).Return(nil)
		mocks.validator.On("CheckIdempotency", mock.Anything, request).Return(false, nil)
		mocks.accountManager.On("ApplyMovement", mock.Anything, mocks.tx, request).Return(shared.ErrInsufficientFunds)
		mocks.failureRecorder.On("RecordFailure", mock.Anything, request, string(shared.FailureReasonInsufficientFunds)).Return(nil)
		mocks.tx.On("Rollback", mock.Anything).Return(nil)

		err := svc.ProcessMovement(ctx, request)
		assert.NoError(t, err)
		mocks.failureRecorder.AssertExpectations(t)
	})

	t.Run("currency mismatch records the formatted reason", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		request := withdrawalRequest()
		expectedReason := fmt.Sprintf(string(shared.FailureReasonCurrencyMismatchFormat), request.Currency, "account_currency")

		mocks.validator.On("Validate", mock.Anything, request).Return(nil)
		mocks.validator.On("CheckIdempotency", mock.Anything, request).Return(false, nil)
		mocks.accountManager.On("ApplyMovement", mock.Anything, mocks.tx, request).Return(shared.ErrInvalidCurrency)
		mocks.failureRecorder.On("RecordFailure", mock.Anything, request, expectedReason).Return(nil)
		mocks.tx.On("Rollback", mock.Anything).Return(nil)

		err := svc.ProcessMovement(ctx, request)
		assert.NoError(t, err)
		mocks.failureRecorder.AssertExpectations(t)
	})

	t.Run("infrastructure error propagates for retry", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		request := withdrawalRequest()
		dbErr := errors.New("connection reset")

		mocks.validator.On("Validate", mock.Anything, request).Return(nil)
		mocks.validator.On("CheckIdempotency", mock.Anything, request).Return(false, nil)
		mocks.accountManager.On("ApplyMovement", mock.Anything, mocks.tx, request).Return(dbErr)
		mocks.tx.On("Rollback", mock.Anything).Return(nil)

		err := svc.ProcessMovement(ctx, request)
		assert.ErrorIs(t, err, dbErr)
		mocks.tx.AssertCalled(t, "Rollback", mock.Anything)
		mocks.failureRecorder.AssertNotCalled(t, "RecordFailure", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("outbox error rolls back and propagates", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		request := withdrawalRequest()
		dbErr := errors.New("outbox insert failed")

		mocks.validator.On("Validate", mock.Anything, request).Return(nil)
		mocks.validator.On("CheckIdempotency", mock.Anything, request).Return(false, nil)
		mocks.accountManager.On("ApplyMovement", mock.Anything, mocks.tx, request).Return(nil)
		mocks.outboxManager.On("CreateOutboxEntry", mock.Anything, mocks.tx, request).Return(dbErr)
		mocks.tx.On("Rollback", mock.Anything).Return(nil)

		err := svc.ProcessMovement(ctx, request)
		assert.ErrorIs(t, err, dbErr)
		mocks.tx.AssertCalled(t, "Rollback", mock.Anything)
	})

	t.Run("commit error propagates", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		request := withdrawalRequest()

		mocks.validator.On("Validate", mock.Anything, request).Return(nil)
		mocks.validator.On("CheckIdempotency", mock.Anything, request).Return(false, nil)
		mocks.accountManager.On("ApplyMovement", mock.Anything, mocks.tx, request).Return(nil)
		mocks.outboxManager.On("CreateOutboxEntry", mock.Anything, mocks.tx, request).Return(nil)
		mocks.tx.On("Commit", mock.Anything).Return(errors.New("commit failed"))
		mocks.tx.On("Rollback", mock.Anything).Return(pgx.ErrTxClosed)

		err := svc.ProcessMovement(ctx, request)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit DB transaction")
	})

	t.Run("begin error propagates", func(t *testing.T) {
		svc, mocks := newServiceUnderTest(t)
		svc.beginTx = func(ctx context.Context) (pgx.Tx, error) {
			return nil, errors.New("pool exhausted")
		}
		request := withdrawalRequest()

		mocks.validator.On("Validate", mock.Anything, request).Return(nil)
		mocks.validator.On("CheckIdempotency", mock.Anything, request).Return(false, nil)

		err := svc.ProcessMovement(ctx, request)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin DB transaction")
	})
}
