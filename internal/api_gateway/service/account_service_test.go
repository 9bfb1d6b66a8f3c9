package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
)

var (
	serviceNow   = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	serviceClock = shared.ClockFunc(func() time.Time { return serviceNow })
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockAccountRepo struct {
	mock.Mock
}

func (m *MockAccountRepo) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) GetByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) Update(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepo) WithTx(tx pgx.Tx) account.Repository {
	args := m.Called(tx)
	return args.Get(0).(account.Repository)
}

func TestAccountService_CreateAccount(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		svc := NewAccountService(testLogger(), mockRepo, serviceClock)

		customerID := uuid.New()
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(acc *account.Account) bool {
			return acc.CustomerID == customerID &&
				acc.Status == account.StatusPendingApproval &&
				acc.Balance.Equal(money.MustFromString("250.00")) &&
				acc.OpeningDate.Equal(serviceNow)
		})).Return(nil)

		acc, err := svc.CreateAccount(context.Background(), customerID, account.TypeSavings, money.MustFromString("250.00"), "USD")

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, acc.ID)
		assert.NotEmpty(t, acc.AccountNumber)
		mockRepo.AssertExpectations(t)
	})

	t.Run("NegativeBalanceRejected", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		svc := NewAccountService(testLogger(), mockRepo, serviceClock)

		_, err := svc.CreateAccount(context.Background(), uuid.New(), account.TypeSavings, money.MustFromString("-1.00"), "USD")

		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("RepositoryError", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		svc := NewAccountService(testLogger(), mockRepo, serviceClock)

		mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

		_, err := svc.CreateAccount(context.Background(), uuid.New(), account.TypeChecking, money.Zero(), "USD")

		assert.Error(t, err)
		mockRepo.AssertExpectations(t)
	})
}

func TestAccountService_ApproveAccount(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		svc := NewAccountService(testLogger(), mockRepo, serviceClock)

		acc, err := account.NewAccount(uuid.New(), account.TypeChecking, money.Zero(), "USD", serviceNow.Add(-time.Hour))
		require.NoError(t, err)
		approverID := uuid.New()

		mockRepo.On("GetByID", mock.Anything, acc.ID).Return(acc, nil)
		mockRepo.On("Update", mock.Anything, acc).Return(nil)

		approved, err := svc.ApproveAccount(context.Background(), acc.ID, approverID)

		require.NoError(t, err)
		assert.Equal(t, account.StatusActive, approved.Status)
		require.NotNil(t, approved.ApprovedBy)
		assert.Equal(t, approverID, *approved.ApprovedBy)
		require.NotNil(t, approved.ApprovedAt)
		assert.Equal(t, serviceNow, *approved.ApprovedAt)
		mockRepo.AssertExpectations(t)
	})

	t.Run("AlreadyActive", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		svc := NewAccountService(testLogger(), mockRepo, serviceClock)

		acc, err := account.NewAccount(uuid.New(), account.TypeChecking, money.Zero(), "USD", serviceNow.Add(-time.Hour))
		require.NoError(t, err)
		require.NoError(t, acc.Approve(uuid.New(), serviceNow.Add(-time.Minute)))

		mockRepo.On("GetByID", mock.Anything, acc.ID).Return(acc, nil)

		_, err = svc.ApproveAccount(context.Background(), acc.ID, uuid.New())

		assert.ErrorIs(t, err, account.ErrNotPendingApproval)
		mockRepo.AssertNotCalled(t, "Update")
	})

	t.Run("NotFound", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		svc := NewAccountService(testLogger(), mockRepo, serviceClock)

		missingID := uuid.New()
		mockRepo.On("GetByID", mock.Anything, missingID).
			Return(nil, account.ErrAccountNotFound{AccountID: missingID})

		_, err := svc.ApproveAccount(context.Background(), missingID, uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestAccountService_AccrueInterest(t *testing.T) {
	t.Run("CreditsSavingsAccount", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		svc := NewAccountService(testLogger(), mockRepo, serviceClock)

		acc, err := account.NewAccount(uuid.New(), account.TypeSavings, money.MustFromString("1200.00"), "USD", serviceNow.Add(-time.Hour))
		require.NoError(t, err)
		require.NoError(t, acc.Approve(uuid.New(), serviceNow.Add(-time.Minute)))
		rate := decimal.NewFromFloat(0.5)
		acc.InterestRate = &rate

		mockRepo.On("GetByID", mock.Anything, acc.ID).Return(acc, nil)
		mockRepo.On("Update", mock.Anything, acc).Return(nil)

		credited, err := svc.AccrueInterest(context.Background(), acc.ID)

		require.NoError(t, err)
		assert.True(t, credited.Balance.Equal(money.MustFromString("1206.00")),
			"0.5 percent of 1200.00 is 6.00")
		mockRepo.AssertExpectations(t)
	})

	t.Run("NoRateNothingPersisted", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		svc := NewAccountService(testLogger(), mockRepo, serviceClock)

		acc, err := account.NewAccount(uuid.New(), account.TypeChecking, money.MustFromString("1200.00"), "USD", serviceNow.Add(-time.Hour))
		require.NoError(t, err)
		require.NoError(t, acc.Approve(uuid.New(), serviceNow.Add(-time.Minute)))
		acc.InterestRate = nil

		mockRepo.On("GetByID", mock.Anything, acc.ID).Return(acc, nil)

		unchanged, err := svc.AccrueInterest(context.Background(), acc.ID)

		require.NoError(t, err)
		assert.True(t, unchanged.Balance.Equal(money.MustFromString("1200.00")))
		mockRepo.AssertNotCalled(t, "Update")
	})

	t.Run("ZeroRateNothingPersisted", func(t *testing.T) {
		mockRepo := new(MockAccountRepo)
		svc := NewAccountService(testLogger(), mockRepo, serviceClock)

		acc, err := account.NewAccount(uuid.New(), account.TypeSavings, money.MustFromString("1200.00"), "USD", serviceNow.Add(-time.Hour))
		require.NoError(t, err)
		require.NoError(t, acc.Approve(uuid.New(), serviceNow.Add(-time.Minute)))
		zero := decimal.Zero
		acc.InterestRate = &zero

		mockRepo.On("GetByID", mock.Anything, acc.ID).Return(acc, nil)

		unchanged, err := svc.AccrueInterest(context.Background(), acc.ID)

		require.NoError(t, err)
		assert.True(t, unchanged.Balance.Equal(money.MustFromString("1200.00")))
		mockRepo.AssertNotCalled(t, "Update")
	})
}
