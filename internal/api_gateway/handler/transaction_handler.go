package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bank-core-ledger/internal/api_gateway/middleware"
	"github.com/bank-core-ledger/internal/api_gateway/service"
	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
	"github.com/bank-core-ledger/internal/domain/transaction"
)

// TransactionHandler handles HTTP requests for movement operations
type TransactionHandler struct {
	transactionService service.TransactionService
	clock              shared.Clock
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService, clock shared.Clock) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		clock:              clock,
		logger:             logger,
	}
}

// Create submits a new movement (deposit, withdrawal or transfer) with
// idempotency support. Processing is asynchronous: the response is 202
// with a PENDING transaction id.
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	movementType := shared.TransactionType(req.Type)

	fromAccountID, err := parseOptionalUUID(req.FromAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid source account ID")
		return
	}
	toAccountID, err := parseOptionalUUID(req.ToAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid destination account ID")
		return
	}

	request := &shared.MovementRequest{Type: movementType, FromAccountID: fromAccountID, ToAccountID: toAccountID}
	if request.RequiresSource() && fromAccountID == nil {
		RespondBadRequest(c, "from_account_id is required for "+req.Type)
		return
	}
	if request.RequiresDestination() && toAccountID == nil {
		RespondBadRequest(c, "to_account_id is required for "+req.Type)
		return
	}

	amount, err := money.FromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		RespondBadRequest(c, "Amount must be a positive decimal")
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	request.TransactionID = uuid.New()
	request.Amount = amount
	request.Currency = req.Currency
	request.Description = req.Description
	request.IdempotencyKey = req.IdempotencyKey
	request.CorrelationID = middleware.GetCorrelationID(c)
	request.Timestamp = h.clock.Now().UTC()

	transactionID, existing, err := h.transactionService.SubmitMovement(c.Request.Context(), request)
	if err != nil {
		h.logger.Error("Failed to submit movement", "error", err)
		RespondInternalError(c)
		return
	}
	if existing != nil {
		RespondOK(c, mapTransactionToResponse(existing))
		return
	}

	RespondAccepted(c, gin.H{
		"transaction_id": transactionID,
		"status":         "PENDING",
	})
}

// GetByID retrieves a transaction record by its ID, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	txn, err := h.transactionService.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get transaction", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	if txn == nil {
		RespondNotFound(c, "Transaction not found")
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// GetByAccountID retrieves the paginated movement history of an account
func (h *TransactionHandler) GetByAccountID(c *gin.Context) {
	accountIDParam := c.Param("id")
	accountID, err := uuid.Parse(accountIDParam)
	if err != nil {
		h.logger.Error("Invalid account ID", "account_id", accountIDParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	records, total, err := h.transactionService.GetTransactionsByAccount(
		c.Request.Context(),
		accountID,
		pagination.Page,
		pagination.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to get transactions", "account_id", accountIDParam, "error", err)
		RespondInternalError(c)
		return
	}

	transactions := make([]TransactionResponse, 0, len(records))
	for _, txn := range records {
		transactions = append(transactions, mapTransactionToResponse(txn))
	}

	RespondWithPaginatedData(c, http.StatusOK, transactions, pagination.Page, pagination.PerPage, int(total))
}

func parseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// mapTransactionToResponse maps a transaction record to a response DTO
func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	response := TransactionResponse{
		TransactionID: txn.ID.String(),
		Type:          string(txn.Type),
		Amount:        txn.Amount.String(),
		Currency:      txn.Currency,
		Description:   txn.Description,
		Status:        string(txn.Status),
		FailureReason: txn.FailureReason,
		CreatedAt:     txn.TransactionDate.Format(time.RFC3339),
	}

	if txn.FromAccountID != nil {
		response.FromAccountID = txn.FromAccountID.String()
	}
	if txn.ToAccountID != nil {
		response.ToAccountID = txn.ToAccountID.String()
	}
	if !txn.FeeAmount.IsZero() {
		response.FeeAmount = txn.FeeAmount.String()
	}
	if txn.ProcessedAt != nil {
		response.ProcessedAt = txn.ProcessedAt.Format(time.RFC3339)
	}

	return response
}
