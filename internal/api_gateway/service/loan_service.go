package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/loan"
	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/platform/persistence"
)

// LoanServiceImpl implements the LoanService interface
type LoanServiceImpl struct {
	loanRepo    loan.Repository
	accountRepo account.Repository
	clock       shared.Clock
	logger      *slog.Logger

	// beginTx is replaceable in tests
	beginTx func(ctx context.Context) (pgx.Tx, error)
}

// NewLoanService creates a new loan service
func NewLoanService(
	logger *slog.Logger,
	pgDB *persistence.PostgresDB,
	loanRepo loan.Repository,
	accountRepo account.Repository,
	clock shared.Clock,
) LoanService {
	return &LoanServiceImpl{
		loanRepo:    loanRepo,
		accountRepo: accountRepo,
		clock:       clock,
		logger:      logger,
		beginTx: func(ctx context.Context) (pgx.Tx, error) {
			return pgDB.Pool().Begin(ctx)
		},
	}
}

// ApplyForLoan files a new PENDING_APPROVAL application against an existing
// account
func (s *LoanServiceImpl) ApplyForLoan(ctx context.Context, customerID, accountID uuid.UUID, loanType loan.LoanType, principal money.Money, annualRate decimal.Decimal, termMonths int, purpose string) (*loan.Loan, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.CustomerID != customerID {
		return nil, fmt.Errorf("account %s does not belong to customer %s: %w", accountID, customerID, shared.ErrInvalidOperation)
	}

	l, err := loan.NewLoan(customerID, accountID, loanType, principal, annualRate, termMonths, purpose, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.loanRepo.Create(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("Loan application filed",
		"loan_id", l.ID.String(),
		"loan_number", l.LoanNumber,
		"principal", l.Principal.String(),
		"monthly_payment", l.MonthlyPayment.String(),
	)
	return l, nil
}

// GetLoanByID retrieves a loan by its ID
func (s *LoanServiceImpl) GetLoanByID(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	return s.loanRepo.GetByID(ctx, id)
}

// GetLoansByCustomer lists a customer's loans, newest application first
func (s *LoanServiceImpl) GetLoansByCustomer(ctx context.Context, customerID uuid.UUID) ([]*loan.Loan, error) {
	return s.loanRepo.GetByCustomer(ctx, customerID)
}

// ApproveLoan approves a pending application
func (s *LoanServiceImpl) ApproveLoan(ctx context.Context, id, approverID uuid.UUID) (*loan.Loan, error) {
	l, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := l.Approve(approverID, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.loanRepo.Update(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("Loan approved", "loan_id", l.ID.String(), "approved_by", approverID.String())
	return l, nil
}

// RejectLoan declines a pending application with a reason
func (s *LoanServiceImpl) RejectLoan(ctx context.Context, id uuid.UUID, reason string) (*loan.Loan, error) {
	l, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := l.Reject(reason); err != nil {
		return nil, err
	}

	if err := s.loanRepo.Update(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("Loan rejected", "loan_id", l.ID.String(), "reason", reason)
	return l, nil
}

// DisburseLoan credits the principal to the linked account and starts the
// repayment schedule. The balance credit and both loan state changes commit
// in one database transaction.
func (s *LoanServiceImpl) DisburseLoan(ctx context.Context, id uuid.UUID) (l *loan.Loan, err error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin DB transaction for loan disbursal %s: %w", id, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error("Failed to rollback loan disbursal", "loan_id", id.String(), "rollback_error", rbErr, "original_error", err)
			}
		}
	}()

	loanRepoTx := s.loanRepo.WithTx(tx)
	accountRepoTx := s.accountRepo.WithTx(tx)

	l, err = loanRepoTx.LockForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}

	acc, err := accountRepoTx.LockForUpdate(ctx, l.AccountID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err = l.Disburse(now); err != nil {
		return nil, err
	}
	if err = acc.Deposit(l.Principal, now); err != nil {
		return nil, err
	}
	// The disbursal transfer settles within this transaction, so the
	// repayment schedule starts immediately.
	if err = l.Activate(now); err != nil {
		return nil, err
	}

	if err = accountRepoTx.Update(ctx, acc); err != nil {
		return nil, err
	}
	if err = loanRepoTx.Update(ctx, l); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit loan disbursal %s: %w", id, err)
	}

	s.logger.Info("Loan disbursed",
		"loan_id", l.ID.String(),
		"account_id", acc.ID.String(),
		"principal", l.Principal.String(),
		"first_payment_due", l.NextPaymentDue,
	)
	return l, nil
}

// MakePayment debits the linked account and reduces the outstanding balance
// atomically, recording the payment. Payments above the outstanding balance
// are rejected.
func (s *LoanServiceImpl) MakePayment(ctx context.Context, loanID uuid.UUID, amount money.Money) (l *loan.Loan, payment *loan.Payment, err error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin DB transaction for loan payment %s: %w", loanID, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error("Failed to rollback loan payment", "loan_id", loanID.String(), "rollback_error", rbErr, "original_error", err)
			}
		}
	}()

	loanRepoTx := s.loanRepo.WithTx(tx)
	accountRepoTx := s.accountRepo.WithTx(tx)

	l, err = loanRepoTx.LockForUpdate(ctx, loanID)
	if err != nil {
		return nil, nil, err
	}

	acc, err := accountRepoTx.LockForUpdate(ctx, l.AccountID)
	if err != nil {
		return nil, nil, err
	}

	now := s.clock.Now()
	paymentType := loan.PaymentTypeRegular
	if amount.Equal(l.OutstandingBalance) {
		paymentType = loan.PaymentTypeEarlyPayoff
	}

	payment, err = loan.NewPayment(loanID, paymentType, amount, now)
	if err != nil {
		return nil, nil, err
	}
	if err = payment.Process(); err != nil {
		return nil, nil, err
	}

	// The split is computed against the balance before the payment lands.
	principalPortion, interestPortion := l.PaymentSplit(amount)
	payment.SetSplit(principalPortion, interestPortion)

	if err = acc.Withdraw(amount, now); err != nil {
		return nil, nil, err
	}
	if err = l.MakePayment(amount, now); err != nil {
		return nil, nil, err
	}
	if err = payment.Complete(l.OutstandingBalance); err != nil {
		return nil, nil, err
	}

	if err = accountRepoTx.Update(ctx, acc); err != nil {
		return nil, nil, err
	}
	if err = loanRepoTx.Update(ctx, l); err != nil {
		return nil, nil, err
	}
	if err = loanRepoTx.CreatePayment(ctx, payment); err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit loan payment %s: %w", loanID, err)
	}

	s.logger.Info("Loan payment applied",
		"loan_id", l.ID.String(),
		"payment_number", payment.PaymentNumber,
		"amount", amount.String(),
		"outstanding_balance", l.OutstandingBalance.String(),
		"status", string(l.Status),
	)
	return l, payment, nil
}

// GetPayments lists the recorded payments of a loan, newest first
func (s *LoanServiceImpl) GetPayments(ctx context.Context, loanID uuid.UUID) ([]*loan.Payment, error) {
	if _, err := s.loanRepo.GetByID(ctx, loanID); err != nil {
		return nil, err
	}
	return s.loanRepo.GetPayments(ctx, loanID)
}

// GetOverdueLoans lists active loans whose maturity date has passed
func (s *LoanServiceImpl) GetOverdueLoans(ctx context.Context, asOf time.Time) ([]*loan.Loan, error) {
	return s.loanRepo.GetOverdue(ctx, asOf)
}
