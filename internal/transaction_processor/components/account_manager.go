package components

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/transaction_processor/service"
)

// AccountManagerImpl implements the AccountManager interface
type AccountManagerImpl struct {
	accountRepo account.Repository
	clock       shared.Clock
	logger      *slog.Logger
}

// NewAccountManager creates a new AccountManagerImpl
func NewAccountManager(accountRepo account.Repository, clock shared.Clock, logger *slog.Logger) service.AccountManager {
	return &AccountManagerImpl{
		accountRepo: accountRepo,
		clock:       clock,
		logger:      logger,
	}
}

// ApplyMovement locks the involved accounts, validates the movement against
// them, and moves the balances inside the surrounding transaction. For a
// transfer the debit and credit share that transaction, so they commit
// together or not at all.
func (m *AccountManagerImpl) ApplyMovement(ctx context.Context, tx pgx.Tx, request *shared.MovementRequest) error {
	logger := m.logger
	if request.CorrelationID != "" {
		logger = m.logger.With("correlation_id", request.CorrelationID)
	}

	accountRepoTx := m.accountRepo.WithTx(tx)

	// Lock in ascending id order so two concurrent transfers touching the
	// same pair of accounts cannot deadlock.
	ids := request.InvolvedAccounts()
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	locked := make(map[uuid.UUID]*account.Account, len(ids))
	for _, id := range ids {
		acc, err := accountRepoTx.LockForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound{}) {
				logger.Warn("Account not found for lock", "req_id", request.TransactionID.String(), "acc_id", id.String())
				return err
			}
			logger.Error("Failed to lock account", "req_id", request.TransactionID.String(), "acc_id", id.String(), "error", err)
			return fmt.Errorf("failed to lock account %s: %w", id.String(), err)
		}
		if acc.Currency != request.Currency {
			logger.Error("Currency mismatch", "req_id", request.TransactionID.String(), "req_curr", request.Currency, "acc_curr", acc.Currency)
			return shared.ErrInvalidCurrency
		}
		logger.Info("Account locked", "req_id", request.TransactionID.String(), "acc_id", acc.ID.String(), "bal", acc.Balance.String(), "ver", acc.Version)
		locked[id] = acc
	}

	now := m.clock.Now()

	// Debit the source first: a transfer must never credit the destination
	// when the debit is rejected.
	if request.RequiresSource() {
		source := locked[*request.FromAccountID]
		if source.Status != account.StatusActive {
			logger.Warn("Source account not active", "req_id", request.TransactionID.String(), "acc_id", source.ID.String(), "status", source.Status)
			return shared.ErrAccountNotActive
		}
		if !source.CanWithdraw(request.Amount) {
			if source.Balance.Sub(request.Amount).IsNegative() {
				logger.Warn("Insufficient funds", "req_id", request.TransactionID.String(), "acc_id", source.ID.String(), "bal", source.Balance.String(), "amt", request.Amount.String())
				return shared.ErrInsufficientFunds
			}
			logger.Warn("Withdrawal would breach the minimum balance", "req_id", request.TransactionID.String(), "acc_id", source.ID.String(), "bal", source.Balance.String(), "amt", request.Amount.String())
			return shared.ErrBelowMinimumBalance
		}
		if err := source.Withdraw(request.Amount, now); err != nil {
			logger.Warn("Failed to apply withdrawal to account model", "req_id", request.TransactionID.String(), "error", err)
			return err
		}
	}

	if request.RequiresDestination() {
		destination := locked[*request.ToAccountID]
		if err := destination.Deposit(request.Amount, now); err != nil {
			logger.Error("Failed to apply deposit to account model", "req_id", request.TransactionID.String(), "error", err)
			return err
		}
	}

	for _, id := range ids {
		acc := locked[id]
		if err := accountRepoTx.Update(ctx, acc); err != nil {
			if errors.Is(err, account.ErrConcurrentModification{AccountID: acc.ID}) {
				logger.Warn("Concurrent modification on account update", "req_id", request.TransactionID.String(), "acc_id", acc.ID.String())
			} else {
				logger.Error("Failed to update account in DB", "req_id", request.TransactionID.String(), "acc_id", acc.ID.String(), "error", err)
			}
			return err
		}
		logger.Info("Account updated in DB", "req_id", request.TransactionID.String(), "acc_id", acc.ID.String(), "new_bal", acc.Balance.String(), "new_ver", acc.Version)
	}

	return nil
}
