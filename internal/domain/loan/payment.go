package loan

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
)

// PaymentType classifies the repayment
type PaymentType string

const (
	PaymentTypeRegular     PaymentType = "REGULAR"
	PaymentTypeExtra       PaymentType = "EXTRA"
	PaymentTypeLate        PaymentType = "LATE"
	PaymentTypeDefault     PaymentType = "DEFAULT"
	PaymentTypeEarlyPayoff PaymentType = "EARLY_PAYOFF"
)

// PaymentStatus is the lifecycle state of a repayment record. Records
// advance PENDING -> PROCESSING -> {COMPLETED, FAILED}; a PENDING record
// can still be CANCELLED. COMPLETED and FAILED are immutable.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "PENDING"
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	PaymentStatusCompleted  PaymentStatus = "COMPLETED"
	PaymentStatusFailed     PaymentStatus = "FAILED"
	PaymentStatusCancelled  PaymentStatus = "CANCELLED"
)

// ErrInvalidPaymentStatus is returned on out-of-order payment transitions
var ErrInvalidPaymentStatus = fmt.Errorf("payment status transition not allowed: %w", shared.ErrInvalidOperation)

// Payment is a single repayment applied against a loan. The principal and
// interest portions are set when the payment is applied against an
// amortized balance.
type Payment struct {
	ID               uuid.UUID     `json:"payment_id"`
	PaymentNumber    string        `json:"payment_number"`
	LoanID           uuid.UUID     `json:"loan_id"`
	Type             PaymentType   `json:"type"`
	Status           PaymentStatus `json:"status"`
	Amount           money.Money   `json:"amount"`
	LateFee          money.Money   `json:"late_fee"`
	PrincipalPortion *money.Money  `json:"principal_portion,omitempty"`
	InterestPortion  *money.Money  `json:"interest_portion,omitempty"`
	RemainingBalance money.Money   `json:"remaining_balance"`
	FailureReason    string        `json:"failure_reason,omitempty"`
	PaymentDate      time.Time     `json:"payment_date"`
}

// NewPayment creates a PENDING repayment record for a loan
func NewPayment(loanID uuid.UUID, paymentType PaymentType, amount money.Money, now time.Time) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidPayment
	}

	id := uuid.New()
	return &Payment{
		ID:            id,
		PaymentNumber: newPaymentNumber(id),
		LoanID:        loanID,
		Type:          paymentType,
		Status:        PaymentStatusPending,
		Amount:        amount,
		LateFee:       money.Zero(),
		PaymentDate:   now,
	}, nil
}

func newPaymentNumber(id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return "PAY-" + strings.ToUpper(hex[:16])
}

// Process moves a PENDING payment into PROCESSING
func (p *Payment) Process() error {
	if p.Status != PaymentStatusPending {
		return ErrInvalidPaymentStatus
	}
	p.Status = PaymentStatusProcessing
	return nil
}

// Complete marks the payment as applied, snapshotting the balance left
// on the loan after it
func (p *Payment) Complete(remainingBalance money.Money) error {
	if p.Status != PaymentStatusProcessing {
		return ErrInvalidPaymentStatus
	}
	p.Status = PaymentStatusCompleted
	p.RemainingBalance = remainingBalance
	return nil
}

// Fail records why the payment could not be applied
func (p *Payment) Fail(reason string) error {
	if p.Status != PaymentStatusPending && p.Status != PaymentStatusProcessing {
		return ErrInvalidPaymentStatus
	}
	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	return nil
}

// Cancel withdraws a payment before processing begins
func (p *Payment) Cancel() error {
	if p.Status != PaymentStatusPending {
		return ErrInvalidPaymentStatus
	}
	p.Status = PaymentStatusCancelled
	return nil
}

// SetSplit records how the payment divides between interest and principal
func (p *Payment) SetSplit(principal, interest money.Money) {
	p.PrincipalPortion = &principal
	p.InterestPortion = &interest
}

// TotalAmount is the payment plus any late fee assessed with it
func (p *Payment) TotalAmount() money.Money {
	return p.Amount.Add(p.LateFee)
}
