package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bank-core-ledger/internal/domain/shared"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByNumber(ctx context.Context, accountNumber string) (*Account, error)
	Update(ctx context.Context, account *Account) error

	// LockForUpdate acquires a pessimistic row lock for the duration of the
	// surrounding transaction. Balance checks and mutations for an account
	// happen only under this lock.
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountID.String()
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is lets callers match any ErrAccountNotFound regardless of id
func (e ErrAccountNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || e.AccountID == t.AccountID
}

// ErrDuplicateAccountNumber indicates account number uniqueness violation
type ErrDuplicateAccountNumber struct {
	AccountNumber string
}

func (e ErrDuplicateAccountNumber) Error() string {
	return "account with number already exists: " + e.AccountNumber
}

func (e ErrDuplicateAccountNumber) Is(target error) bool {
	if target == shared.ErrDuplicateIdentifier {
		return true
	}
	t, ok := target.(ErrDuplicateAccountNumber)
	if !ok {
		return false
	}
	return t.AccountNumber == "" || e.AccountNumber == t.AccountNumber
}
