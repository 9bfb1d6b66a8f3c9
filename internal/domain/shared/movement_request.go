package shared

import (
	"time"

	"github.com/google/uuid"

	"github.com/bank-core-ledger/internal/domain/money"
)

// MovementRequest defines a Kafka message for a money movement. TRANSFER
// carries both accounts, DEPOSIT only the destination, WITHDRAWAL only the
// source; the processor validates presence against the type.
type MovementRequest struct {
	TransactionID  uuid.UUID       `json:"transaction_id"`
	FromAccountID  *uuid.UUID      `json:"from_account_id,omitempty"`
	ToAccountID    *uuid.UUID      `json:"to_account_id,omitempty"`
	Type           TransactionType `json:"type"`
	Amount         money.Money     `json:"amount"`
	Currency       string          `json:"currency"`
	Description    string          `json:"description,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	CorrelationID  string          `json:"correlation_id"`
	Timestamp      time.Time       `json:"timestamp"`
}

// RequiresSource reports whether the movement debits an account
func (r *MovementRequest) RequiresSource() bool {
	return r.Type == TransactionTypeWithdrawal || r.Type == TransactionTypeTransfer
}

// RequiresDestination reports whether the movement credits an account
func (r *MovementRequest) RequiresDestination() bool {
	return r.Type == TransactionTypeDeposit || r.Type == TransactionTypeTransfer
}

// InvolvedAccounts returns the distinct accounts touched by the movement
func (r *MovementRequest) InvolvedAccounts() []uuid.UUID {
	var ids []uuid.UUID
	if r.FromAccountID != nil {
		ids = append(ids, *r.FromAccountID)
	}
	if r.ToAccountID != nil && (r.FromAccountID == nil || *r.ToAccountID != *r.FromAccountID) {
		ids = append(ids, *r.ToAccountID)
	}
	return ids
}
