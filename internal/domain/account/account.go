package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
)

// AccountType classifies the product the account belongs to
type AccountType string

const (
	TypeSavings       AccountType = "SAVINGS"
	TypeChecking      AccountType = "CHECKING"
	TypeFixedDeposit  AccountType = "FIXED_DEPOSIT"
	TypeCurrent       AccountType = "CURRENT"
	TypeBusiness      AccountType = "BUSINESS"
	TypeStudent       AccountType = "STUDENT"
	TypeSeniorCitizen AccountType = "SENIOR_CITIZEN"
)

// AccountStatus is the administrative state of the account. Only ACTIVE
// accounts may be debited; all other states reject withdrawals.
type AccountStatus string

const (
	StatusPendingApproval AccountStatus = "PENDING_APPROVAL"
	StatusActive          AccountStatus = "ACTIVE"
	StatusSuspended       AccountStatus = "SUSPENDED"
	StatusClosed          AccountStatus = "CLOSED"
	StatusFrozen          AccountStatus = "FROZEN"
	StatusUnderReview     AccountStatus = "UNDER_REVIEW"
)

// Common errors
var (
	ErrInvalidAmount         = fmt.Errorf("amount must be positive: %w", shared.ErrInvalidAmount)
	ErrNegativeBalance       = fmt.Errorf("initial balance cannot be negative: %w", shared.ErrInvalidAmount)
	ErrInvalidCurrencyFormat = fmt.Errorf("currency must be a 3-letter code: %w", shared.ErrInvalidAmount)
	ErrWithdrawalNotAllowed  = fmt.Errorf("withdrawal not allowed: %w", shared.ErrInvalidOperation)
	ErrNotPendingApproval    = fmt.Errorf("account is not pending approval: %w", shared.ErrInvalidOperation)
)

// Account represents a bank account. The balance is owned exclusively by
// this type: no other component mutates it directly, and it is never
// persisted negative.
type Account struct {
	ID                      uuid.UUID        `json:"id"`
	AccountNumber           string           `json:"account_number"`
	CustomerID              uuid.UUID        `json:"customer_id"`
	Type                    AccountType      `json:"type"`
	Status                  AccountStatus    `json:"status"`
	Balance                 money.Money      `json:"balance"`
	Currency                string           `json:"currency"`
	InterestRate            *decimal.Decimal `json:"interest_rate,omitempty"` // annual percentage
	MinimumBalance          *money.Money     `json:"minimum_balance,omitempty"`
	DailyTransactionLimit   *money.Money     `json:"daily_transaction_limit,omitempty"`
	MonthlyTransactionLimit *money.Money     `json:"monthly_transaction_limit,omitempty"`
	OpeningDate             time.Time        `json:"opening_date"`
	LastActivityDate        time.Time        `json:"last_activity_date"`
	ApprovedBy              *uuid.UUID       `json:"approved_by,omitempty"`
	ApprovedAt              *time.Time       `json:"approved_at,omitempty"`
	Version                 int              `json:"version"` // For optimistic locking
}

// NewAccount creates an account in PENDING_APPROVAL with the given opening
// balance. The account number is derived from the id, so it is unique
// without coordination.
func NewAccount(customerID uuid.UUID, accountType AccountType, initialBalance money.Money, currency string, now time.Time) (*Account, error) {
	if len(currency) != 3 {
		return nil, ErrInvalidCurrencyFormat
	}
	if initialBalance.IsNegative() {
		return nil, ErrNegativeBalance
	}

	id := uuid.New()
	return &Account{
		ID:               id,
		AccountNumber:    newAccountNumber(id),
		CustomerID:       customerID,
		Type:             accountType,
		Status:           StatusPendingApproval,
		Balance:          initialBalance,
		Currency:         strings.ToUpper(currency),
		OpeningDate:      now,
		LastActivityDate: now,
		Version:          1,
	}, nil
}

func newAccountNumber(id uuid.UUID) string {
	return "ACC-" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:16])
}

// CanWithdraw reports whether a withdrawal of amount would be permitted.
// Pure predicate: false if the account is not ACTIVE, if the balance would
// go negative, or if a minimum balance is configured and the withdrawal
// would drop below it.
func (a *Account) CanWithdraw(amount money.Money) bool {
	if a.Status != StatusActive {
		return false
	}
	remaining := a.Balance.Sub(amount)
	if a.MinimumBalance != nil && remaining.LessThan(*a.MinimumBalance) {
		return false
	}
	return !remaining.IsNegative()
}

// Withdraw subtracts the specified amount from the account balance
func (a *Account) Withdraw(amount money.Money, now time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !a.CanWithdraw(amount) {
		return ErrWithdrawalNotAllowed
	}

	a.Balance = a.Balance.Sub(amount)
	a.LastActivityDate = now
	a.Version++
	return nil
}

// Deposit adds the specified amount to the account balance
func (a *Account) Deposit(amount money.Money, now time.Time) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	a.Balance = a.Balance.Add(amount)
	a.LastActivityDate = now
	a.Version++
	return nil
}

// AccrueInterest credits one period of interest: balance * rate / 100,
// rounded half-up to the currency scale. No-op when no positive rate is
// configured. At-most-once per period is the scheduler's responsibility;
// calling this twice double-accrues.
func (a *Account) AccrueInterest(now time.Time) {
	if a.InterestRate == nil || !a.InterestRate.IsPositive() {
		return
	}

	interest := a.Balance.Mul(*a.InterestRate).Div(decimal.NewFromInt(100)).Round()
	a.Balance = a.Balance.Add(interest)
	a.LastActivityDate = now
	a.Version++
}

// IsOverdraft reports whether the balance is below the configured minimum
func (a *Account) IsOverdraft() bool {
	return a.MinimumBalance != nil && a.Balance.LessThan(*a.MinimumBalance)
}

// Approve activates a pending account, recording who approved it and when
func (a *Account) Approve(approverID uuid.UUID, now time.Time) error {
	if a.Status != StatusPendingApproval {
		return ErrNotPendingApproval
	}

	a.Status = StatusActive
	a.ApprovedBy = &approverID
	a.ApprovedAt = &now
	a.Version++
	return nil
}
