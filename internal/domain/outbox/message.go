package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/domain/transaction"
)

// Message stores a completed transaction record for reliable publishing
// to the document store
type Message struct {
	ID            int64               `json:"id"`
	TransactionID uuid.UUID           `json:"transaction_id"`
	AccountID     uuid.UUID           `json:"account_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps the transaction record for deferred publication. The
// account id indexes the message by the debited side, falling back to
// the credited side for inbound-only movements.
func NewMessage(txn *transaction.Transaction, now time.Time) (*Message, error) {
	payload, err := json.Marshal(txn)
	if err != nil {
		return nil, err
	}

	accountID := uuid.Nil
	if txn.FromAccountID != nil {
		accountID = *txn.FromAccountID
	} else if txn.ToAccountID != nil {
		accountID = *txn.ToAccountID
	}

	return &Message{
		TransactionID: txn.ID,
		AccountID:     accountID,
		Payload:       payload,
		Status:        shared.OutboxStatusPending,
		Attempts:      0,
		CreatedAt:     now,
	}, nil
}

func (m *Message) IncrementAttempts(now time.Time) {
	m.Attempts++
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed(now time.Time) {
	m.Status = shared.OutboxStatusProcessed
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed(now time.Time) {
	m.Status = shared.OutboxStatusFailedToPublish
	m.LastAttemptAt = &now
}

// GetTransaction extracts the transaction record from the payload
func (m *Message) GetTransaction() (*transaction.Transaction, error) {
	var txn transaction.Transaction
	if err := json.Unmarshal(m.Payload, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}
