// Package transaction models the append-only transaction record and its
// state machine. Records advance forward only: PENDING -> PROCESSING ->
// {COMPLETED, FAILED, CANCELLED}, with REVERSED reachable from COMPLETED
// through an external compensating workflow. Records are never deleted and
// the amount is fixed once the record exists.
package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
)

// Common errors
var (
	ErrInvalidAmount     = fmt.Errorf("transaction amount must be positive: %w", shared.ErrInvalidAmount)
	ErrMissingAccount    = fmt.Errorf("transaction requires at least one account: %w", shared.ErrInvalidOperation)
	ErrInvalidTransition = fmt.Errorf("status transition not allowed: %w", shared.ErrInvalidOperation)
)

// Transaction is a single money-movement record
type Transaction struct {
	ID              uuid.UUID                `json:"transaction_id"`
	FromAccountID   *uuid.UUID               `json:"from_account_id,omitempty"`
	ToAccountID     *uuid.UUID               `json:"to_account_id,omitempty"`
	Type            shared.TransactionType   `json:"type"`
	Amount          money.Money              `json:"amount"`
	FeeAmount       money.Money              `json:"fee_amount"`
	ExchangeRate    decimal.Decimal          `json:"exchange_rate"`
	Currency        string                   `json:"currency"`
	Description     string                   `json:"description,omitempty"`
	Status          shared.TransactionStatus `json:"status"`
	ReferenceNumber string                   `json:"reference_number,omitempty"`
	IdempotencyKey  string                   `json:"idempotency_key,omitempty"`
	CorrelationID   string                   `json:"correlation_id,omitempty"`
	FailureReason   string                   `json:"failure_reason,omitempty"`
	TransactionDate time.Time                `json:"transaction_date"`
	ProcessedAt     *time.Time               `json:"processed_at,omitempty"`
	ProcessedBy     *uuid.UUID               `json:"processed_by,omitempty"`
}

// New creates a PENDING transaction record with a freshly generated id
func New(from, to *uuid.UUID, txType shared.TransactionType, amount money.Money, currency, description string, now time.Time) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if from == nil && to == nil {
		return nil, ErrMissingAccount
	}

	return &Transaction{
		ID:              uuid.New(),
		FromAccountID:   from,
		ToAccountID:     to,
		Type:            txType,
		Amount:          amount,
		FeeAmount:       money.Zero(),
		ExchangeRate:    decimal.NewFromInt(1),
		Currency:        currency,
		Description:     description,
		Status:          shared.TransactionStatusPending,
		TransactionDate: now,
	}, nil
}

// FromMovementRequest builds the PENDING record for a submitted movement
func FromMovementRequest(req *shared.MovementRequest) (*Transaction, error) {
	txn, err := New(req.FromAccountID, req.ToAccountID, req.Type, req.Amount, req.Currency, req.Description, req.Timestamp)
	if err != nil {
		return nil, err
	}
	// The id was assigned at submission time and must be preserved.
	txn.ID = req.TransactionID
	txn.IdempotencyKey = req.IdempotencyKey
	txn.CorrelationID = req.CorrelationID
	return txn, nil
}

// IsTransfer reports whether the record moves money between two accounts
func (t *Transaction) IsTransfer() bool {
	return t.Type == shared.TransactionTypeTransfer && t.FromAccountID != nil && t.ToAccountID != nil
}

// IsInternalTransfer reports whether both sides belong to the same
// customer. Derived from the referenced accounts, never stored.
func (t *Transaction) IsInternalTransfer(from, to *account.Account) bool {
	return t.IsTransfer() && from != nil && to != nil && from.CustomerID == to.CustomerID
}

// TotalAmount is the amount plus fee, a derived read used for reporting
func (t *Transaction) TotalAmount() money.Money {
	return t.Amount.Add(t.FeeAmount)
}

// Process moves the record into PROCESSING, stamping the processed time
func (t *Transaction) Process(now time.Time) error {
	if t.Status != shared.TransactionStatusPending {
		return ErrInvalidTransition
	}
	t.Status = shared.TransactionStatusProcessing
	t.ProcessedAt = &now
	return nil
}

// Complete marks a PROCESSING record as COMPLETED
func (t *Transaction) Complete() error {
	if t.Status != shared.TransactionStatusProcessing {
		return ErrInvalidTransition
	}
	t.Status = shared.TransactionStatusCompleted
	return nil
}

// Fail terminates the record with a reason appended to its description.
// Terminal: failed transactions are never retried in place, the caller
// must resubmit as a new transaction.
func (t *Transaction) Fail(reason string) error {
	if t.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	t.Status = shared.TransactionStatusFailed
	t.FailureReason = reason
	t.Description = t.Description + " - FAILED: " + reason
	return nil
}

// Cancel rejects a record before processing begins
func (t *Transaction) Cancel() error {
	if t.Status != shared.TransactionStatusPending {
		return ErrInvalidTransition
	}
	t.Status = shared.TransactionStatusCancelled
	return nil
}

// Reverse marks a COMPLETED record as administratively reversed. The
// compensating balance movement is owned by an external workflow.
func (t *Transaction) Reverse() error {
	if t.Status != shared.TransactionStatusCompleted {
		return ErrInvalidTransition
	}
	t.Status = shared.TransactionStatusReversed
	return nil
}
