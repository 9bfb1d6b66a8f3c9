package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bank-core-ledger/internal/domain/loan"
	"github.com/bank-core-ledger/internal/platform/persistence"
)

const loanColumns = `id, loan_number, customer_id, account_id, loan_type, status, principal,
		outstanding_balance, annual_rate, term_months, monthly_payment, total_payable,
		purpose, collateral_details, application_date, approved_by, approved_at,
		rejection_reason, disbursed_at, maturity_date, next_payment_due, version`

// LoanRepository implements the loan.Repository interface for PostgreSQL
type LoanRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLoanRepository creates a new PostgreSQL loan repository
func NewLoanRepository(logger *slog.Logger, db *persistence.PostgresDB) loan.Repository {
	return &LoanRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so loan and account
// writes commit atomically.
func (r *LoanRepository) WithTx(tx pgx.Tx) loan.Repository {
	return &LoanRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new loan application
func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := r.querier.Exec(ctx, query,
		l.ID, l.LoanNumber, l.CustomerID, l.AccountID, l.Type, l.Status,
		l.Principal, l.OutstandingBalance, l.AnnualRate, l.TermMonths,
		l.MonthlyPayment, l.TotalPayable, l.Purpose, l.CollateralDetails,
		l.ApplicationDate, l.ApprovedBy, l.ApprovedAt, l.RejectionReason,
		l.DisbursedAt, l.MaturityDate, l.NextPaymentDue, l.Version,
	)
	if err != nil {
		r.logger.Error("Failed to create loan", "error", err)
		return fmt.Errorf("failed to create loan: %w", err)
	}

	return nil
}

// GetByID retrieves a loan by its ID
func (r *LoanRepository) GetByID(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	l, err := r.scanLoan(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrLoanNotFound{LoanID: id}
		}
		r.logger.Error("Failed to get loan", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}

	return l, nil
}

// GetByNumber retrieves a loan by its human-facing loan number
func (r *LoanRepository) GetByNumber(ctx context.Context, loanNumber string) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_number = $1`

	l, err := r.scanLoan(r.querier.QueryRow(ctx, query, loanNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrLoanNotFound{}
		}
		r.logger.Error("Failed to get loan by number", "loanNumber", loanNumber, "error", err)
		return nil, fmt.Errorf("failed to get loan by number: %w", err)
	}

	return l, nil
}

// GetByCustomer lists a customer's loans, newest application first
func (r *LoanRepository) GetByCustomer(ctx context.Context, customerID uuid.UUID) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE customer_id = $1 ORDER BY application_date DESC`

	rows, err := r.querier.Query(ctx, query, customerID)
	if err != nil {
		r.logger.Error("Failed to get loans by customer", "customerID", customerID.String(), "error", err)
		return nil, fmt.Errorf("failed to get loans by customer: %w", err)
	}
	defer rows.Close()

	return r.collectLoans(rows)
}

// LockForUpdate obtains a pessimistic lock on the loan row. Must be
// called within a transaction.
func (r *LoanRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1 FOR UPDATE`

	l, err := r.scanLoan(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, loan.ErrLoanNotFound{LoanID: id}
		}
		r.logger.Error("Failed to lock loan for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock loan for update: %w", err)
	}

	return l, nil
}

// Update persists loan state changes with an optimistic version check
func (r *LoanRepository) Update(ctx context.Context, l *loan.Loan) error {
	query := `
		UPDATE loans
		SET status = $1, outstanding_balance = $2, approved_by = $3, approved_at = $4,
			rejection_reason = $5, disbursed_at = $6, maturity_date = $7, next_payment_due = $8, version = $9
		WHERE id = $10 AND version = $11
	`

	result, err := r.querier.Exec(ctx, query,
		l.Status, l.OutstandingBalance, l.ApprovedBy, l.ApprovedAt,
		l.RejectionReason, l.DisbursedAt, l.MaturityDate, l.NextPaymentDue, l.Version+1,
		l.ID, l.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update loan", "id", l.ID.String(), "error", err)
		return fmt.Errorf("failed to update loan: %w", err)
	}

	if result.RowsAffected() == 0 {
		return loan.ErrConcurrentModification{LoanID: l.ID}
	}

	l.Version++
	return nil
}

// GetOverdue lists active loans whose maturity date has passed
func (r *LoanRepository) GetOverdue(ctx context.Context, asOf time.Time) ([]*loan.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans
		WHERE status = $1 AND maturity_date IS NOT NULL AND maturity_date < $2
		ORDER BY maturity_date ASC`

	rows, err := r.querier.Query(ctx, query, loan.StatusActive, asOf)
	if err != nil {
		r.logger.Error("Failed to get overdue loans", "error", err)
		return nil, fmt.Errorf("failed to get overdue loans: %w", err)
	}
	defer rows.Close()

	return r.collectLoans(rows)
}

// CreatePayment stores a repayment record
func (r *LoanRepository) CreatePayment(ctx context.Context, p *loan.Payment) error {
	query := `
		INSERT INTO loan_payments (id, payment_number, loan_id, payment_type, status, amount,
			late_fee, principal_portion, interest_portion, remaining_balance, failure_reason, payment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID, p.PaymentNumber, p.LoanID, p.Type, p.Status, p.Amount,
		p.LateFee, nullMoneyArg(p.PrincipalPortion), nullMoneyArg(p.InterestPortion),
		p.RemainingBalance, p.FailureReason, p.PaymentDate,
	)
	if err != nil {
		r.logger.Error("Failed to create loan payment", "loanID", p.LoanID.String(), "error", err)
		return fmt.Errorf("failed to create loan payment: %w", err)
	}

	return nil
}

// GetPayments lists a loan's repayment history, newest first
func (r *LoanRepository) GetPayments(ctx context.Context, loanID uuid.UUID) ([]*loan.Payment, error) {
	query := `
		SELECT id, payment_number, loan_id, payment_type, status, amount,
			late_fee, principal_portion, interest_portion, remaining_balance, failure_reason, payment_date
		FROM loan_payments
		WHERE loan_id = $1
		ORDER BY payment_date DESC
	`

	rows, err := r.querier.Query(ctx, query, loanID)
	if err != nil {
		r.logger.Error("Failed to get loan payments", "loanID", loanID.String(), "error", err)
		return nil, fmt.Errorf("failed to get loan payments: %w", err)
	}
	defer rows.Close()

	var payments []*loan.Payment
	for rows.Next() {
		var (
			p                loan.Payment
			principalPortion decimal.NullDecimal
			interestPortion  decimal.NullDecimal
		)
		err := rows.Scan(
			&p.ID, &p.PaymentNumber, &p.LoanID, &p.Type, &p.Status, &p.Amount,
			&p.LateFee, &principalPortion, &interestPortion, &p.RemainingBalance, &p.FailureReason, &p.PaymentDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan payment: %w", err)
		}
		p.PrincipalPortion = moneyPtr(principalPortion)
		p.InterestPortion = moneyPtr(interestPortion)
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over loan payments: %w", err)
	}

	return payments, nil
}

func (r *LoanRepository) scanLoan(row pgx.Row) (*loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.LoanNumber, &l.CustomerID, &l.AccountID, &l.Type, &l.Status,
		&l.Principal, &l.OutstandingBalance, &l.AnnualRate, &l.TermMonths,
		&l.MonthlyPayment, &l.TotalPayable, &l.Purpose, &l.CollateralDetails,
		&l.ApplicationDate, &l.ApprovedBy, &l.ApprovedAt, &l.RejectionReason,
		&l.DisbursedAt, &l.MaturityDate, &l.NextPaymentDue, &l.Version,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LoanRepository) collectLoans(rows pgx.Rows) ([]*loan.Loan, error) {
	var loans []*loan.Loan
	for rows.Next() {
		l, err := r.scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over loans: %w", err)
	}

	return loans, nil
}
