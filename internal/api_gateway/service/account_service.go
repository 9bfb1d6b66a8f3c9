package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	clock       shared.Clock
	logger      *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(logger *slog.Logger, accountRepo account.Repository, clock shared.Clock) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		clock:       clock,
		logger:      logger,
	}
}

// CreateAccount opens a new account in PENDING_APPROVAL
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, customerID uuid.UUID, accountType account.AccountType, initialBalance money.Money, currency string) (*account.Account, error) {
	acc, err := account.NewAccount(customerID, accountType, initialBalance, currency, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Account created", "account_id", acc.ID.String(), "account_number", acc.AccountNumber)
	return acc, nil
}

// GetAccountByID retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

// GetAccountByNumber retrieves an account by its account number
func (s *AccountServiceImpl) GetAccountByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	return s.accountRepo.GetByNumber(ctx, accountNumber)
}

// ApproveAccount activates a PENDING_APPROVAL account. The version check
// in Update guards against a concurrent approval.
func (s *AccountServiceImpl) ApproveAccount(ctx context.Context, id, approverID uuid.UUID) (*account.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := acc.Approve(approverID, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.accountRepo.Update(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Account approved", "account_id", acc.ID.String(), "approved_by", approverID.String())
	return acc, nil
}

// AccrueInterest credits one interest period to the account
func (s *AccountServiceImpl) AccrueInterest(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	before := acc.Balance
	acc.AccrueInterest(s.clock.Now())
	if acc.Balance.Equal(before) {
		// No positive rate configured, nothing to persist
		return acc, nil
	}

	if err := s.accountRepo.Update(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Interest accrued", "account_id", acc.ID.String(), "credited", acc.Balance.Sub(before).String())
	return acc, nil
}
