package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bank-core-ledger/internal/api_gateway/handler"
	"github.com/bank-core-ledger/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
	loanHandler *handler.LoanHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.GET("/number/:accountNumber", accountHandler.GetByNumber)
			accounts.POST("/:id/approve", accountHandler.Approve)
			accounts.POST("/:id/interest", accountHandler.AccrueInterest)
			accounts.GET("/:id/transactions", transactionHandler.GetByAccountID)
		}

		// Movement operations
		transactions := v1.Group("/transactions")
		{
			transactions.POST("", transactionHandler.Create)
			transactions.GET("/:id", transactionHandler.GetByID)
		}

		// Loan operations
		loans := v1.Group("/loans")
		{
			loans.POST("", loanHandler.Apply)
			loans.GET("", loanHandler.ListByCustomer)
			loans.GET("/overdue", loanHandler.Overdue)
			loans.GET("/:id", loanHandler.GetByID)
			loans.POST("/:id/approve", loanHandler.Approve)
			loans.POST("/:id/reject", loanHandler.Reject)
			loans.POST("/:id/disburse", loanHandler.Disburse)
			loans.POST("/:id/payments", loanHandler.MakePayment)
			loans.GET("/:id/payments", loanHandler.GetPayments)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
