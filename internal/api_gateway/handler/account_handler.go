package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bank-core-ledger/internal/api_gateway/service"
	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create handles opening of a new account
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		RespondBadRequest(c, "Invalid customer ID")
		return
	}

	initialBalance := money.Zero()
	if req.InitialBalance != "" {
		initialBalance, err = money.FromString(req.InitialBalance)
		if err != nil {
			RespondBadRequest(c, "Invalid initial balance")
			return
		}
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), customerID, account.AccountType(req.Type), initialBalance, req.Currency)
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateIdentifier) {
			RespondConflict(c, "Account number already exists")
			return
		}
		if errors.Is(err, shared.ErrInvalidAmount) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create account", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid account ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// GetByNumber retrieves an account by its human-facing account number
func (h *AccountHandler) GetByNumber(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	if accountNumber == "" {
		RespondBadRequest(c, "Account number is required")
		return
	}

	acc, err := h.accountService.GetAccountByNumber(c.Request.Context(), accountNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "account_number", accountNumber, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// Approve activates a PENDING_APPROVAL account
func (h *AccountHandler) Approve(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var req ApproveAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	approverID, err := uuid.Parse(req.ApprovedBy)
	if err != nil {
		RespondBadRequest(c, "Invalid approver ID")
		return
	}

	acc, err := h.accountService.ApproveAccount(c.Request.Context(), id, approverID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		if errors.Is(err, account.ErrNotPendingApproval) {
			RespondConflict(c, "Account is not pending approval")
			return
		}
		h.logger.Error("Failed to approve account", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// AccrueInterest credits one interest period to the account
func (h *AccountHandler) AccrueInterest(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	acc, err := h.accountService.AccrueInterest(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to accrue interest", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	response := AccountResponse{
		ID:               acc.ID.String(),
		AccountNumber:    acc.AccountNumber,
		CustomerID:       acc.CustomerID.String(),
		Type:             string(acc.Type),
		Status:           string(acc.Status),
		Balance:          acc.Balance.String(),
		Currency:         acc.Currency,
		OpeningDate:      acc.OpeningDate.Format(time.RFC3339),
		LastActivityDate: acc.LastActivityDate.Format(time.RFC3339),
	}

	if acc.InterestRate != nil {
		response.InterestRate = acc.InterestRate.String()
	}
	if acc.MinimumBalance != nil {
		response.MinimumBalance = acc.MinimumBalance.String()
	}

	return response
}
