package shared

// TransactionType defines possible transaction operations
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer   TransactionType = "TRANSFER"
	TransactionTypePayment    TransactionType = "PAYMENT"
	TransactionTypeRefund     TransactionType = "REFUND"
	TransactionTypeCharge     TransactionType = "CHARGE"
	TransactionTypeInterest   TransactionType = "INTEREST"
	TransactionTypeFee        TransactionType = "FEE"
)

// MovementTypes are the transaction types submitted through the engine.
// The remaining types exist as record classifications only.
func (t TransactionType) IsMovement() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeWithdrawal || t == TransactionTypeTransfer
}

// TransactionStatus defines transaction processing states
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusCancelled  TransactionStatus = "CANCELLED"
	TransactionStatusReversed   TransactionStatus = "REVERSED"
)

// IsTerminal reports whether the engine drives no further transitions from
// the status. REVERSED is reachable from COMPLETED through an external
// compensating workflow, never through the engine itself.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusCancelled, TransactionStatusReversed:
		return true
	}
	return false
}

// FailureReason defines transaction failure categories
type FailureReason string

const (
	FailureReasonAccountNotFound        FailureReason = "ACCOUNT_NOT_FOUND"
	FailureReasonAccountNotActive       FailureReason = "ACCOUNT_NOT_ACTIVE"
	FailureReasonCurrencyMismatchFormat FailureReason = "CURRENCY_MISMATCH:_REQUEST_%s_ACCOUNT_%s" // To be used with fmt.Sprintf
	FailureReasonInsufficientFunds      FailureReason = "INSUFFICIENT_FUNDS"
	FailureReasonBelowMinimumBalance    FailureReason = "BELOW_MINIMUM_BALANCE"
	FailureReasonInvalidAmount          FailureReason = "INVALID_AMOUNT"
	FailureReasonMissingAccount         FailureReason = "MISSING_ACCOUNT"
	FailureReasonWithdrawalFailed       FailureReason = "WITHDRAWAL_FAILED" // Generic reason if more specific one isn't identified
	FailureReasonUnknownError           FailureReason = "UNKNOWN_ERROR"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
