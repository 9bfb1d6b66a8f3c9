package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bank-core-ledger/internal/domain/shared"
)

// Repository persists transaction records in the document store
type Repository interface {
	Create(ctx context.Context, txn *Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)
	// GetByAccount returns records touching the account, newest first.
	GetByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Transaction, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status shared.TransactionStatus, failureReason string) error
	GetByTimeRange(ctx context.Context, start, end time.Time, limit, offset int) ([]*Transaction, error)
}

// ErrTransactionNotFound is returned when no record matches the lookup
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return fmt.Sprintf("transaction not found: %s", e.TransactionID)
}

func (e ErrTransactionNotFound) Is(target error) bool {
	if errors.Is(target, shared.ErrNotFound) {
		return true
	}
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID
}

// ErrDuplicateTransaction is returned when the id or idempotency key
// already exists
type ErrDuplicateTransaction struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateTransaction) Error() string {
	return fmt.Sprintf("transaction already exists: %s", e.TransactionID)
}

func (e ErrDuplicateTransaction) Is(target error) bool {
	if errors.Is(target, shared.ErrDuplicateIdentifier) {
		return true
	}
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	return t.TransactionID == uuid.Nil || t.TransactionID == e.TransactionID
}
