package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/loan"
	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/domain/transaction"
)

// AccountService defines the interface for account operations
type AccountService interface {
	// CreateAccount opens a new account in PENDING_APPROVAL
	CreateAccount(ctx context.Context, customerID uuid.UUID, accountType account.AccountType, initialBalance money.Money, currency string) (*account.Account, error)

	// GetAccountByID retrieves an account by its ID
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// GetAccountByNumber retrieves an account by its account number
	GetAccountByNumber(ctx context.Context, accountNumber string) (*account.Account, error)

	// ApproveAccount activates a PENDING_APPROVAL account
	ApproveAccount(ctx context.Context, id, approverID uuid.UUID) (*account.Account, error)

	// AccrueInterest credits one interest period to the account
	AccrueInterest(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// TransactionService defines the interface for movement operations
type TransactionService interface {
	// SubmitMovement queues a movement for asynchronous processing.
	// Returns the transaction ID and, when the idempotency key was seen
	// before, the already-recorded transaction instead of a new submission.
	SubmitMovement(ctx context.Context, request *shared.MovementRequest) (string, *transaction.Transaction, error)

	// GetTransactionByID retrieves a transaction record by its ID
	// Returns nil if the record is not found
	GetTransactionByID(ctx context.Context, transactionID uuid.UUID) (*transaction.Transaction, error)

	// GetTransactionsByAccount retrieves the paginated movement history of
	// an account together with the total record count
	GetTransactionsByAccount(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*transaction.Transaction, int64, error)
}

// LoanService defines the interface for loan operations
type LoanService interface {
	// ApplyForLoan files a new PENDING_APPROVAL application
	ApplyForLoan(ctx context.Context, customerID, accountID uuid.UUID, loanType loan.LoanType, principal money.Money, annualRate decimal.Decimal, termMonths int, purpose string) (*loan.Loan, error)

	// GetLoanByID retrieves a loan by its ID
	GetLoanByID(ctx context.Context, id uuid.UUID) (*loan.Loan, error)

	// GetLoansByCustomer lists a customer's loans, newest application first
	GetLoansByCustomer(ctx context.Context, customerID uuid.UUID) ([]*loan.Loan, error)

	// ApproveLoan approves a pending application
	ApproveLoan(ctx context.Context, id, approverID uuid.UUID) (*loan.Loan, error)

	// RejectLoan declines a pending application with a reason
	RejectLoan(ctx context.Context, id uuid.UUID, reason string) (*loan.Loan, error)

	// DisburseLoan credits the principal to the linked account and starts
	// the repayment schedule. The credit and the loan state change share
	// one database transaction.
	DisburseLoan(ctx context.Context, id uuid.UUID) (*loan.Loan, error)

	// MakePayment debits the linked account and reduces the outstanding
	// balance atomically, recording the payment
	MakePayment(ctx context.Context, loanID uuid.UUID, amount money.Money) (*loan.Loan, *loan.Payment, error)

	// GetPayments lists the recorded payments of a loan, newest first
	GetPayments(ctx context.Context, loanID uuid.UUID) ([]*loan.Payment, error)

	// GetOverdueLoans lists active loans whose maturity date has passed
	GetOverdueLoans(ctx context.Context, asOf time.Time) ([]*loan.Loan, error)
}
