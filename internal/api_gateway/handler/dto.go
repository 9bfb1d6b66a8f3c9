package handler

// CreateAccountRequest represents a request to open a new account
type CreateAccountRequest struct {
	CustomerID     string `json:"customer_id" binding:"required,uuid"`
	Type           string `json:"type" binding:"required,oneof=SAVINGS CHECKING FIXED_DEPOSIT CURRENT BUSINESS STUDENT SENIOR_CITIZEN"`
	InitialBalance string `json:"initial_balance,omitempty"`
	Currency       string `json:"currency" binding:"required,len=3"`
}

// ApproveAccountRequest carries the approving officer
type ApproveAccountRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required,uuid"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID               string `json:"id"`
	AccountNumber    string `json:"account_number"`
	CustomerID       string `json:"customer_id"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	Balance          string `json:"balance"`
	Currency         string `json:"currency"`
	InterestRate     string `json:"interest_rate,omitempty"`
	MinimumBalance   string `json:"minimum_balance,omitempty"`
	OpeningDate      string `json:"opening_date"`
	LastActivityDate string `json:"last_activity_date"`
}

// CreateTransactionRequest represents a request to submit a money movement
type CreateTransactionRequest struct {
	FromAccountID  string `json:"from_account_id,omitempty" binding:"omitempty,uuid"`
	ToAccountID    string `json:"to_account_id,omitempty" binding:"omitempty,uuid"`
	Type           string `json:"type" binding:"required,oneof=DEPOSIT WITHDRAWAL TRANSFER"`
	Amount         string `json:"amount" binding:"required"`
	Currency       string `json:"currency" binding:"required,len=3"`
	Description    string `json:"description,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// TransactionResponse represents a transaction record in API responses
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	FromAccountID string `json:"from_account_id,omitempty"`
	ToAccountID   string `json:"to_account_id,omitempty"`
	Type          string `json:"type"`
	Amount        string `json:"amount"`
	FeeAmount     string `json:"fee_amount,omitempty"`
	Currency      string `json:"currency"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
	ProcessedAt   string `json:"processed_at,omitempty"`
}

// ApplyLoanRequest represents a loan application
type ApplyLoanRequest struct {
	CustomerID string `json:"customer_id" binding:"required,uuid"`
	AccountID  string `json:"account_id" binding:"required,uuid"`
	Type       string `json:"type" binding:"required,oneof=PERSONAL HOME AUTO BUSINESS STUDENT MORTGAGE LINE_OF_CREDIT"`
	Principal  string `json:"principal" binding:"required"`
	AnnualRate string `json:"annual_rate" binding:"required"`
	TermMonths int    `json:"term_months" binding:"required,min=1,max=360"`
	Purpose    string `json:"purpose,omitempty"`
}

// ApproveLoanRequest carries the approving officer
type ApproveLoanRequest struct {
	ApprovedBy string `json:"approved_by" binding:"required,uuid"`
}

// RejectLoanRequest carries the rejection reason
type RejectLoanRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// LoanPaymentRequest represents a repayment against a loan
type LoanPaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// LoanResponse represents a loan in API responses
type LoanResponse struct {
	ID                 string `json:"id"`
	LoanNumber         string `json:"loan_number"`
	CustomerID         string `json:"customer_id"`
	AccountID          string `json:"account_id"`
	Type               string `json:"type"`
	Status             string `json:"status"`
	Principal          string `json:"principal"`
	OutstandingBalance string `json:"outstanding_balance"`
	AnnualRate         string `json:"annual_rate"`
	TermMonths         int    `json:"term_months"`
	MonthlyPayment     string `json:"monthly_payment"`
	TotalPayable       string `json:"total_payable"`
	TotalInterest      string `json:"total_interest"`
	Purpose            string `json:"purpose,omitempty"`
	ApplicationDate    string `json:"application_date"`
	RejectionReason    string `json:"rejection_reason,omitempty"`
	DisbursedAt        string `json:"disbursed_at,omitempty"`
	MaturityDate       string `json:"maturity_date,omitempty"`
	NextPaymentDue     string `json:"next_payment_due,omitempty"`
}

// LoanPaymentResponse represents a repayment record in API responses
type LoanPaymentResponse struct {
	PaymentID        string `json:"payment_id"`
	PaymentNumber    string `json:"payment_number"`
	LoanID           string `json:"loan_id"`
	Type             string `json:"type"`
	Status           string `json:"status"`
	Amount           string `json:"amount"`
	PrincipalPortion string `json:"principal_portion,omitempty"`
	InterestPortion  string `json:"interest_portion,omitempty"`
	RemainingBalance string `json:"remaining_balance"`
	PaymentDate      string `json:"payment_date"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
