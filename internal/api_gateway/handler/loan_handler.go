package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bank-core-ledger/internal/api_gateway/service"
	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/loan"
	"github.com/bank-core-ledger/internal/domain/money"
	"github.com/bank-core-ledger/internal/domain/shared"
)

// LoanHandler handles HTTP requests for loan operations
type LoanHandler struct {
	loanService service.LoanService
	logger      *slog.Logger
	clock       shared.Clock
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(logger *slog.Logger, loanService service.LoanService, clock shared.Clock) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
		logger:      logger,
		clock:       clock,
	}
}

// Apply submits a new loan application
func (h *LoanHandler) Apply(c *gin.Context) {
	var req ApplyLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	customerID, _ := uuid.Parse(req.CustomerID)
	accountID, _ := uuid.Parse(req.AccountID)

	principal, err := money.FromString(req.Principal)
	if err != nil {
		RespondBadRequest(c, "Principal must be a decimal amount")
		return
	}
	annualRate, err := decimal.NewFromString(req.AnnualRate)
	if err != nil {
		RespondBadRequest(c, "Annual rate must be a decimal percentage")
		return
	}

	l, err := h.loanService.ApplyForLoan(
		c.Request.Context(),
		customerID,
		accountID,
		loan.LoanType(req.Type),
		principal,
		annualRate,
		req.TermMonths,
		req.Purpose,
	)
	if err != nil {
		h.logger.Error("Failed to create loan application", "error", err)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			RespondNotFound(c, "Account not found")
		case errors.Is(err, shared.ErrInvalidAmount):
			RespondBadRequest(c, err.Error())
		case errors.Is(err, shared.ErrInvalidOperation):
			RespondBadRequest(c, err.Error())
		default:
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapLoanToResponse(l))
}

// GetByID retrieves a loan by its ID
func (h *LoanHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid loan ID")
		return
	}

	l, err := h.loanService.GetLoanByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			RespondNotFound(c, "Loan not found")
			return
		}
		h.logger.Error("Failed to get loan", "loan_id", id, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapLoanToResponse(l))
}

// ListByCustomer retrieves all loans belonging to a customer
func (h *LoanHandler) ListByCustomer(c *gin.Context) {
	customerID, err := uuid.Parse(c.Query("customer_id"))
	if err != nil {
		RespondBadRequest(c, "customer_id query parameter is required")
		return
	}

	loans, err := h.loanService.GetLoansByCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.logger.Error("Failed to list loans", "customer_id", customerID, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]LoanResponse, 0, len(loans))
	for _, l := range loans {
		responses = append(responses, mapLoanToResponse(l))
	}

	RespondOK(c, responses)
}

// Approve marks a pending application as approved
func (h *LoanHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid loan ID")
		return
	}

	var req ApproveLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	approverID, _ := uuid.Parse(req.ApprovedBy)

	l, err := h.loanService.ApproveLoan(c.Request.Context(), id, approverID)
	if err != nil {
		h.respondLoanStateError(c, id, "approve", err)
		return
	}

	RespondOK(c, mapLoanToResponse(l))
}

// Reject declines a pending application with a reason
func (h *LoanHandler) Reject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid loan ID")
		return
	}

	var req RejectLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	l, err := h.loanService.RejectLoan(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.respondLoanStateError(c, id, "reject", err)
		return
	}

	RespondOK(c, mapLoanToResponse(l))
}

// Disburse credits the principal to the linked account and activates
// the repayment schedule
func (h *LoanHandler) Disburse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid loan ID")
		return
	}

	l, err := h.loanService.DisburseLoan(c.Request.Context(), id)
	if err != nil {
		h.respondLoanStateError(c, id, "disburse", err)
		return
	}

	RespondOK(c, mapLoanToResponse(l))
}

// MakePayment applies a repayment against an active loan
func (h *LoanHandler) MakePayment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid loan ID")
		return
	}

	var req LoanPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := money.FromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		RespondBadRequest(c, "Amount must be a positive decimal")
		return
	}

	l, payment, err := h.loanService.MakePayment(c.Request.Context(), id, amount)
	if err != nil {
		h.logger.Error("Failed to make loan payment", "loan_id", id, "error", err)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			RespondNotFound(c, "Loan not found")
		case errors.Is(err, loan.ErrOverpayment):
			RespondBadRequest(c, "Payment exceeds outstanding balance")
		case errors.Is(err, account.ErrWithdrawalNotAllowed):
			RespondBadRequest(c, "Linked account cannot cover the payment")
		case errors.Is(err, shared.ErrInvalidOperation):
			RespondConflict(c, err.Error())
		case errors.Is(err, shared.ErrInvalidAmount):
			RespondBadRequest(c, err.Error())
		default:
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, gin.H{
		"loan":    mapLoanToResponse(l),
		"payment": mapPaymentToResponse(payment),
	})
}

// GetPayments lists the repayment history of a loan
func (h *LoanHandler) GetPayments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid loan ID")
		return
	}

	payments, err := h.loanService.GetPayments(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			RespondNotFound(c, "Loan not found")
			return
		}
		h.logger.Error("Failed to list loan payments", "loan_id", id, "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]LoanPaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, mapPaymentToResponse(p))
	}

	RespondOK(c, responses)
}

// Overdue lists active loans whose next installment date has passed
func (h *LoanHandler) Overdue(c *gin.Context) {
	asOf := h.clock.Now().UTC()
	if raw := c.Query("as_of"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondBadRequest(c, "as_of must be an RFC3339 timestamp")
			return
		}
		asOf = parsed
	}

	loans, err := h.loanService.GetOverdueLoans(c.Request.Context(), asOf)
	if err != nil {
		h.logger.Error("Failed to list overdue loans", "error", err)
		RespondInternalError(c)
		return
	}

	responses := make([]LoanResponse, 0, len(loans))
	for _, l := range loans {
		responses = append(responses, mapLoanToResponse(l))
	}

	RespondOK(c, responses)
}

func (h *LoanHandler) respondLoanStateError(c *gin.Context, id uuid.UUID, action string, err error) {
	h.logger.Error("Failed to "+action+" loan", "loan_id", id, "error", err)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		RespondNotFound(c, "Loan not found")
	case errors.Is(err, shared.ErrInvalidOperation):
		RespondConflict(c, err.Error())
	default:
		RespondInternalError(c)
	}
}

// mapLoanToResponse maps a loan to a response DTO
func mapLoanToResponse(l *loan.Loan) LoanResponse {
	response := LoanResponse{
		ID:                 l.ID.String(),
		LoanNumber:         l.LoanNumber,
		CustomerID:         l.CustomerID.String(),
		AccountID:          l.AccountID.String(),
		Type:               string(l.Type),
		Status:             string(l.Status),
		Principal:          l.Principal.String(),
		OutstandingBalance: l.OutstandingBalance.String(),
		AnnualRate:         l.AnnualRate.String(),
		TermMonths:         l.TermMonths,
		MonthlyPayment:     l.MonthlyPayment.String(),
		TotalPayable:       l.TotalPayable.String(),
		TotalInterest:      l.TotalInterest().String(),
		Purpose:            l.Purpose,
		ApplicationDate:    l.ApplicationDate.Format(time.RFC3339),
		RejectionReason:    l.RejectionReason,
	}

	if l.DisbursedAt != nil {
		response.DisbursedAt = l.DisbursedAt.Format(time.RFC3339)
	}
	if l.MaturityDate != nil {
		response.MaturityDate = l.MaturityDate.Format(time.RFC3339)
	}
	if l.NextPaymentDue != nil {
		response.NextPaymentDue = l.NextPaymentDue.Format(time.RFC3339)
	}

	return response
}

func mapPaymentToResponse(p *loan.Payment) LoanPaymentResponse {
	response := LoanPaymentResponse{
		PaymentID:        p.ID.String(),
		PaymentNumber:    p.PaymentNumber,
		LoanID:           p.LoanID.String(),
		Type:             string(p.Type),
		Status:           string(p.Status),
		Amount:           p.Amount.String(),
		RemainingBalance: p.RemainingBalance.String(),
		PaymentDate:      p.PaymentDate.Format(time.RFC3339),
	}

	if p.PrincipalPortion != nil {
		response.PrincipalPortion = p.PrincipalPortion.String()
	}
	if p.InterestPortion != nil {
		response.InterestPortion = p.InterestPortion.String()
	}

	return response
}
