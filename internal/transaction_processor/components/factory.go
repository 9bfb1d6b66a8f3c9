package components

import (
	"log/slog"

	"github.com/bank-core-ledger/internal/config"
	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/outbox"
	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/domain/transaction"
	"github.com/bank-core-ledger/internal/platform/persistence"
	"github.com/bank-core-ledger/internal/transaction_processor/service"
)

// CreateProcessingService creates a new ProcessingService with all its dependencies.
func CreateProcessingService(
	pgDB *persistence.PostgresDB,
	accountRepo account.Repository,
	outboxRepo outbox.Repository,
	transactionRepo transaction.Repository,
	clock shared.Clock,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	validator := NewMovementValidator(transactionRepo, logger)
	accountManager := NewAccountManager(accountRepo, clock, logger)
	outboxManager := NewOutboxManager(outboxRepo, clock, logger)
	failureRecorder := NewFailureRecorder(transactionRepo, clock, logger)

	baseService := service.NewProcessingService(
		pgDB,
		validator,
		accountManager,
		outboxManager,
		failureRecorder,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
