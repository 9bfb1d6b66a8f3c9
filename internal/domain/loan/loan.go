// Package loan models fixed-rate installment loans with standard
// amortization. The monthly installment is computed once at origination
// and never changes over the life of the loan.
package loan

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
)

// LoanType classifies the loan product
type LoanType string

const (
	TypePersonal     LoanType = "PERSONAL"
	TypeHome         LoanType = "HOME"
	TypeAuto         LoanType = "AUTO"
	TypeBusiness     LoanType = "BUSINESS"
	TypeStudent      LoanType = "STUDENT"
	TypeMortgage     LoanType = "MORTGAGE"
	TypeLineOfCredit LoanType = "LINE_OF_CREDIT"
)

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	StatusPendingApproval LoanStatus = "PENDING_APPROVAL"
	StatusApproved        LoanStatus = "APPROVED"
	StatusRejected        LoanStatus = "REJECTED"
	StatusDisbursed       LoanStatus = "DISBURSED"
	StatusActive          LoanStatus = "ACTIVE"
	StatusPaidOff         LoanStatus = "PAID_OFF"
	StatusDefaulted       LoanStatus = "DEFAULTED"
)

const (
	minPrincipal  = 1000
	maxTermMonths = 360
)

// Common errors
var (
	ErrPrincipalTooSmall = fmt.Errorf("principal below minimum loan amount: %w", shared.ErrInvalidAmount)
	ErrInvalidTerm       = fmt.Errorf("term must be between 1 and 360 months: %w", shared.ErrInvalidAmount)
	ErrNegativeRate      = fmt.Errorf("interest rate must not be negative: %w", shared.ErrInvalidAmount)
	ErrInvalidStatus     = fmt.Errorf("operation not allowed in current loan status: %w", shared.ErrInvalidOperation)
	ErrOverpayment       = fmt.Errorf("payment exceeds outstanding balance: %w", shared.ErrInvalidOperation)
	ErrInvalidPayment    = fmt.Errorf("payment amount must be positive: %w", shared.ErrInvalidAmount)
)

// Loan is a fixed-rate installment loan
type Loan struct {
	ID                 uuid.UUID       `json:"loan_id"`
	LoanNumber         string          `json:"loan_number"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	AccountID          uuid.UUID       `json:"account_id"`
	Type               LoanType        `json:"type"`
	Status             LoanStatus      `json:"status"`
	Principal          money.Money     `json:"principal"`
	OutstandingBalance money.Money     `json:"outstanding_balance"`
	AnnualRate         decimal.Decimal `json:"annual_rate"`
	TermMonths         int             `json:"term_months"`
	MonthlyPayment     money.Money     `json:"monthly_payment"`
	TotalPayable       money.Money     `json:"total_payable"`
	Purpose            string          `json:"purpose,omitempty"`
	CollateralDetails  string          `json:"collateral_details,omitempty"`
	ApplicationDate    time.Time       `json:"application_date"`
	ApprovedBy         *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt         *time.Time      `json:"approved_at,omitempty"`
	RejectionReason    string          `json:"rejection_reason,omitempty"`
	DisbursedAt        *time.Time      `json:"disbursed_at,omitempty"`
	MaturityDate       *time.Time      `json:"maturity_date,omitempty"`
	NextPaymentDue     *time.Time      `json:"next_payment_due,omitempty"`
	Version            int             `json:"version"`
}

// NewLoan creates a PENDING_APPROVAL application. The installment and
// total payable are fixed here and never recomputed.
func NewLoan(customerID, accountID uuid.UUID, loanType LoanType, principal money.Money, annualRate decimal.Decimal, termMonths int, purpose string, now time.Time) (*Loan, error) {
	if principal.LessThan(money.FromInt(minPrincipal)) {
		return nil, ErrPrincipalTooSmall
	}
	if termMonths < 1 || termMonths > maxTermMonths {
		return nil, ErrInvalidTerm
	}
	if annualRate.IsNegative() {
		return nil, ErrNegativeRate
	}

	monthly := MonthlyInstallment(principal, annualRate, termMonths)
	totalPayable := monthly.Mul(decimal.NewFromInt(int64(termMonths))).Round()

	id := uuid.New()
	return &Loan{
		ID:                 id,
		LoanNumber:         newLoanNumber(id),
		CustomerID:         customerID,
		AccountID:          accountID,
		Type:               loanType,
		Status:             StatusPendingApproval,
		Principal:          principal,
		OutstandingBalance: totalPayable,
		AnnualRate:         annualRate,
		TermMonths:         termMonths,
		MonthlyPayment:     monthly,
		TotalPayable:       totalPayable,
		Purpose:            purpose,
		ApplicationDate:    now,
		Version:            1,
	}, nil
}

// MonthlyInstallment computes the fixed monthly payment for a principal
// amortized over termMonths at the given annual percentage rate.
// Interest-free loans divide the principal evenly across the term.
func MonthlyInstallment(principal money.Money, annualRate decimal.Decimal, termMonths int) money.Money {
	n := decimal.NewFromInt(int64(termMonths))
	if annualRate.IsZero() {
		return principal.Div(n).Round()
	}

	// r is the monthly rate as a fraction of 1.
	r := annualRate.Div(decimal.NewFromInt(1200))
	factor := r.Add(decimal.NewFromInt(1)).Pow(n)
	numerator := principal.Mul(r).Mul(factor)
	return numerator.Div(factor.Sub(decimal.NewFromInt(1))).Round()
}

func newLoanNumber(id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	return "LN-" + strings.ToUpper(hex[:16])
}

// Approve marks a pending application as APPROVED
func (l *Loan) Approve(approverID uuid.UUID, now time.Time) error {
	if l.Status != StatusPendingApproval {
		return ErrInvalidStatus
	}
	l.Status = StatusApproved
	l.ApprovedBy = &approverID
	l.ApprovedAt = &now
	return nil
}

// Reject declines a pending application with a reason
func (l *Loan) Reject(reason string) error {
	if l.Status != StatusPendingApproval {
		return ErrInvalidStatus
	}
	l.Status = StatusRejected
	l.RejectionReason = reason
	return nil
}

// Disburse releases the approved funds to the linked account. The loan
// matures term months after disbursement.
func (l *Loan) Disburse(now time.Time) error {
	if l.Status != StatusApproved {
		return ErrInvalidStatus
	}
	l.Status = StatusDisbursed
	l.DisbursedAt = &now
	maturity := now.AddDate(0, l.TermMonths, 0)
	l.MaturityDate = &maturity
	return nil
}

// Activate starts the repayment schedule once the disbursal transfer has
// settled. The first installment falls due one month out.
func (l *Loan) Activate(now time.Time) error {
	if l.Status != StatusDisbursed {
		return ErrInvalidStatus
	}
	l.Status = StatusActive
	due := now.AddDate(0, 1, 0)
	l.NextPaymentDue = &due
	return nil
}

// MakePayment reduces the outstanding balance. Payments above the
// outstanding balance are rejected so the loan can never go negative.
// Paying the balance down to zero closes the loan.
func (l *Loan) MakePayment(amount money.Money, now time.Time) error {
	if l.Status != StatusActive {
		return ErrInvalidStatus
	}
	if !amount.IsPositive() {
		return ErrInvalidPayment
	}
	if amount.GreaterThan(l.OutstandingBalance) {
		return ErrOverpayment
	}

	l.OutstandingBalance = l.OutstandingBalance.Sub(amount)
	if l.OutstandingBalance.IsZero() {
		l.Status = StatusPaidOff
		l.NextPaymentDue = nil
		return nil
	}

	due := now.AddDate(0, 1, 0)
	l.NextPaymentDue = &due
	return nil
}

// PaymentSplit divides a payment between interest and principal: one
// monthly period of interest accrues on the current outstanding balance,
// capped at the payment amount, and the rest retires principal. Must be
// called before the payment is applied.
func (l *Loan) PaymentSplit(amount money.Money) (principal, interest money.Money) {
	if l.AnnualRate.IsZero() {
		return amount, money.Zero()
	}
	r := l.AnnualRate.Div(decimal.NewFromInt(1200))
	interest = l.OutstandingBalance.Mul(r).Round()
	if interest.GreaterThan(amount) {
		interest = amount
	}
	return amount.Sub(interest), interest
}

// IsOverdue reports whether an active loan is past its maturity date
func (l *Loan) IsOverdue(now time.Time) bool {
	if l.Status != StatusActive || l.MaturityDate == nil {
		return false
	}
	return now.After(*l.MaturityDate)
}

// MarkDefaulted flags an active loan as DEFAULTED
func (l *Loan) MarkDefaulted() error {
	if l.Status != StatusActive {
		return ErrInvalidStatus
	}
	l.Status = StatusDefaulted
	return nil
}

// TotalInterest is the interest cost over the full term
func (l *Loan) TotalInterest() money.Money {
	return l.TotalPayable.Sub(l.Principal)
}

// RemainingInstallments estimates how many monthly payments remain
func (l *Loan) RemainingInstallments() int {
	if l.MonthlyPayment.IsZero() || !l.OutstandingBalance.IsPositive() {
		return 0
	}
	remaining := l.OutstandingBalance.Decimal().Div(l.MonthlyPayment.Decimal()).Ceil()
	return int(remaining.IntPart())
}

// ValidType reports whether the loan product type is known
func ValidType(t LoanType) bool {
	switch t {
	case TypePersonal, TypeHome, TypeAuto, TypeBusiness, TypeStudent, TypeMortgage, TypeLineOfCredit:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions
func (s LoanStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusPaidOff, StatusDefaulted:
		return true
	}
	return false
}
