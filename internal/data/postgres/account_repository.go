// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the core ledger.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/platform/persistence"
)

const accountColumns = `id, account_number, customer_id, account_type, status, balance, currency,
		interest_rate, minimum_balance, daily_transaction_limit, monthly_transaction_limit,
		opening_date, last_activity_date, approved_by, approved_at, version`

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account. A unique constraint on account_number
// guards against number collisions.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.AccountNumber,
		acc.CustomerID,
		acc.Type,
		acc.Status,
		acc.Balance,
		acc.Currency,
		nullDecimalArg(acc.InterestRate),
		nullMoneyArg(acc.MinimumBalance),
		nullMoneyArg(acc.DailyTransactionLimit),
		nullMoneyArg(acc.MonthlyTransactionLimit),
		acc.OpeningDate,
		acc.LastActivityDate,
		acc.ApprovedBy,
		acc.ApprovedAt,
		acc.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return account.ErrDuplicateAccountNumber{AccountNumber: acc.AccountNumber}
		}
		r.logger.Error("Failed to create account", "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetByNumber retrieves an account by its human-facing account number
func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, accountNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{}
		}
		r.logger.Error("Failed to get account by number", "accountNumber", accountNumber, "error", err)
		return nil, fmt.Errorf("failed to get account by number: %w", err)
	}

	return acc, nil
}

// Update persists the account state. The version check detects writes
// that raced past the row lock.
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET status = $1, balance = $2, interest_rate = $3, minimum_balance = $4,
			daily_transaction_limit = $5, monthly_transaction_limit = $6,
			last_activity_date = $7, approved_by = $8, approved_at = $9, version = $10
		WHERE id = $11 AND version = $12
	`

	result, err := r.querier.Exec(ctx, query,
		acc.Status,
		acc.Balance,
		nullDecimalArg(acc.InterestRate),
		nullMoneyArg(acc.MinimumBalance),
		nullMoneyArg(acc.DailyTransactionLimit),
		nullMoneyArg(acc.MonthlyTransactionLimit),
		acc.LastActivityDate,
		acc.ApprovedBy,
		acc.ApprovedAt,
		acc.Version,
		acc.ID,
		acc.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update account", "id", acc.ID.String(), "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountID: acc.ID}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the account and returns its
// current state. Must be called within a transaction.
func (r *AccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`

	acc, err := r.scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to lock account for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock account for update: %w", err)
	}

	return acc, nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var (
		acc          account.Account
		interestRate decimal.NullDecimal
		minBalance   decimal.NullDecimal
		dailyLimit   decimal.NullDecimal
		monthlyLimit decimal.NullDecimal
	)

	err := row.Scan(
		&acc.ID,
		&acc.AccountNumber,
		&acc.CustomerID,
		&acc.Type,
		&acc.Status,
		&acc.Balance,
		&acc.Currency,
		&interestRate,
		&minBalance,
		&dailyLimit,
		&monthlyLimit,
		&acc.OpeningDate,
		&acc.LastActivityDate,
		&acc.ApprovedBy,
		&acc.ApprovedAt,
		&acc.Version,
	)
	if err != nil {
		return nil, err
	}

	if interestRate.Valid {
		acc.InterestRate = &interestRate.Decimal
	}
	acc.MinimumBalance = moneyPtr(minBalance)
	acc.DailyTransactionLimit = moneyPtr(dailyLimit)
	acc.MonthlyTransactionLimit = moneyPtr(monthlyLimit)

	return &acc, nil
}

func nullMoneyArg(m *money.Money) interface{} {
	if m == nil {
		return nil
	}
	return *m
}

func nullDecimalArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return *d
}

func moneyPtr(nd decimal.NullDecimal) *money.Money {
	if !nd.Valid {
		return nil
	}
	m := money.New(nd.Decimal)
	return &m
}
