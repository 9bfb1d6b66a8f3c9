package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bank-core-ledger/internal/domain/shared"
)

// Repository persists loans and their repayment records
type Repository interface {
	Create(ctx context.Context, loan *Loan) error
	GetByID(ctx context.Context, id uuid.UUID) (*Loan, error)
	GetByNumber(ctx context.Context, loanNumber string) (*Loan, error)
	GetByCustomer(ctx context.Context, customerID uuid.UUID) ([]*Loan, error)
	// LockForUpdate acquires a row lock on the loan inside the
	// surrounding transaction.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Loan, error)
	Update(ctx context.Context, loan *Loan) error
	// GetOverdue returns active loans whose maturity date is before the
	// given instant.
	GetOverdue(ctx context.Context, asOf time.Time) ([]*Loan, error)

	CreatePayment(ctx context.Context, payment *Payment) error
	GetPayments(ctx context.Context, loanID uuid.UUID) ([]*Payment, error)

	// WithTx binds the repository to an open transaction.
	WithTx(tx pgx.Tx) Repository
}

// ErrLoanNotFound is returned when no loan matches the lookup
type ErrLoanNotFound struct {
	LoanID uuid.UUID
}

func (e ErrLoanNotFound) Error() string {
	return fmt.Sprintf("loan not found: %s", e.LoanID)
}

func (e ErrLoanNotFound) Is(target error) bool {
	if errors.Is(target, shared.ErrNotFound) {
		return true
	}
	t, ok := target.(ErrLoanNotFound)
	if !ok {
		return false
	}
	return t.LoanID == uuid.Nil || t.LoanID == e.LoanID
}

// ErrConcurrentModification is returned when the optimistic version
// check fails on update
type ErrConcurrentModification struct {
	LoanID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return fmt.Sprintf("loan was modified concurrently: %s", e.LoanID)
}
