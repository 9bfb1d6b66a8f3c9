package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bank-core-ledger/internal/domain/account"
	"github.com/bank-core-ledger/internal/domain/money"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, customerID uuid.UUID, accountType account.AccountType, initialBalance money.Money, currency string) (*account.Account, error) {
	args := m.Called(ctx, customerID, accountType, initialBalance, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccountByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) ApproveAccount(ctx context.Context, id, approverID uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id, approverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) AccrueInterest(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.Default()
	return r
}

func testAccount(customerID uuid.UUID) *account.Account {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	id := uuid.New()
	return &account.Account{
		ID:               id,
		AccountNumber:    "ACC-0000000001",
		CustomerID:       customerID,
		Type:             account.TypeChecking,
		Status:           account.StatusPendingApproval,
		Balance:          money.MustFromString("100.00"),
		Currency:         "USD",
		OpeningDate:      now,
		LastActivityDate: now,
		Version:          1,
	}
}

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()

	var topLevel Response
	require.NoError(t, json.Unmarshal(body, &topLevel))
	require.NotNil(t, topLevel.Data, "'data' field should not be nil")

	dataBytes, err := json.Marshal(topLevel.Data)
	require.NoError(t, err)

	var out T
	require.NoError(t, json.Unmarshal(dataBytes, &out))
	return out
}

func TestAccountHandler_Create(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		customerID := uuid.New()
		expectedAccount := testAccount(customerID)
		mockService.On("CreateAccount", mock.Anything, customerID, account.TypeChecking, money.MustFromString("100.00"), "USD").
			Return(expectedAccount, nil)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		reqBody := CreateAccountRequest{
			CustomerID:     customerID.String(),
			Type:           "CHECKING",
			InitialBalance: "100.00",
			Currency:       "USD",
		}
		jsonBody, _ := json.Marshal(reqBody)

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		responseBody := decodeData[AccountResponse](t, rr.Body.Bytes())
		assert.Equal(t, expectedAccount.ID.String(), responseBody.ID)
		assert.Equal(t, expectedAccount.AccountNumber, responseBody.AccountNumber)
		assert.Equal(t, "PENDING_APPROVAL", responseBody.Status)
		assert.Equal(t, "100.00", responseBody.Balance)
		assert.Equal(t, "USD", responseBody.Currency)

		mockService.AssertExpectations(t)
	})

	t.Run("DefaultsToZeroBalance", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		customerID := uuid.New()
		expectedAccount := testAccount(customerID)
		expectedAccount.Balance = money.Zero()
		mockService.On("CreateAccount", mock.Anything, customerID, account.TypeSavings, money.Zero(), "USD").
			Return(expectedAccount, nil)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		jsonBody, _ := json.Marshal(CreateAccountRequest{
			CustomerID: customerID.String(),
			Type:       "SAVINGS",
			Currency:   "USD",
		})
		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBufferString(`{"invalid`))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "CreateAccount")
	})

	t.Run("UnknownAccountType", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		jsonBody, _ := json.Marshal(CreateAccountRequest{
			CustomerID: uuid.New().String(),
			Type:       "OFFSHORE",
			Currency:   "USD",
		})
		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "CreateAccount")
	})

	t.Run("NegativeInitialBalance", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		customerID := uuid.New()
		mockService.On("CreateAccount", mock.Anything, customerID, account.TypeChecking, money.MustFromString("-10.00"), "USD").
			Return(nil, account.ErrNegativeBalance)

		router := setupTestRouter()
		router.POST("/accounts", handler.Create)

		jsonBody, _ := json.Marshal(CreateAccountRequest{
			CustomerID:     customerID.String(),
			Type:           "CHECKING",
			InitialBalance: "-10.00",
			Currency:       "USD",
		})
		req, _ := http.NewRequest(http.MethodPost, "/accounts", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_GetByID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		expectedAccount := testAccount(uuid.New())
		mockService.On("GetAccountByID", mock.Anything, expectedAccount.ID).Return(expectedAccount, nil)

		router := setupTestRouter()
		router.GET("/accounts/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+expectedAccount.ID.String(), nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		responseBody := decodeData[AccountResponse](t, rr.Body.Bytes())
		assert.Equal(t, expectedAccount.ID.String(), responseBody.ID)
		assert.Equal(t, expectedAccount.CustomerID.String(), responseBody.CustomerID)

		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		missingID := uuid.New()
		mockService.On("GetAccountByID", mock.Anything, missingID).
			Return(nil, account.ErrAccountNotFound{AccountID: missingID})

		router := setupTestRouter()
		router.GET("/accounts/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/"+missingID.String(), nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidID", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/accounts/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/not-a-uuid", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetAccountByID")
	})
}

func TestAccountHandler_GetByNumber(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		expectedAccount := testAccount(uuid.New())
		mockService.On("GetAccountByNumber", mock.Anything, expectedAccount.AccountNumber).
			Return(expectedAccount, nil)

		router := setupTestRouter()
		router.GET("/accounts/number/:accountNumber", handler.GetByNumber)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/number/"+expectedAccount.AccountNumber, nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		responseBody := decodeData[AccountResponse](t, rr.Body.Bytes())
		assert.Equal(t, expectedAccount.AccountNumber, responseBody.AccountNumber)
		assert.Equal(t, expectedAccount.ID.String(), responseBody.ID)

		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		mockService.On("GetAccountByNumber", mock.Anything, "ACC-MISSING").
			Return(nil, account.ErrAccountNotFound{})

		router := setupTestRouter()
		router.GET("/accounts/number/:accountNumber", handler.GetByNumber)

		req, _ := http.NewRequest(http.MethodGet, "/accounts/number/ACC-MISSING", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_Approve(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		approverID := uuid.New()
		approved := testAccount(uuid.New())
		approved.Status = account.StatusActive
		mockService.On("ApproveAccount", mock.Anything, approved.ID, approverID).Return(approved, nil)

		router := setupTestRouter()
		router.POST("/accounts/:id/approve", handler.Approve)

		jsonBody, _ := json.Marshal(ApproveAccountRequest{ApprovedBy: approverID.String()})
		req, _ := http.NewRequest(http.MethodPost, "/accounts/"+approved.ID.String()+"/approve", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		responseBody := decodeData[AccountResponse](t, rr.Body.Bytes())
		assert.Equal(t, "ACTIVE", responseBody.Status)

		mockService.AssertExpectations(t)
	})

	t.Run("AlreadyActive", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		accountID := uuid.New()
		approverID := uuid.New()
		mockService.On("ApproveAccount", mock.Anything, accountID, approverID).
			Return(nil, account.ErrNotPendingApproval)

		router := setupTestRouter()
		router.POST("/accounts/:id/approve", handler.Approve)

		jsonBody, _ := json.Marshal(ApproveAccountRequest{ApprovedBy: approverID.String()})
		req, _ := http.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/approve", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAccountHandler_AccrueInterest(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		credited := testAccount(uuid.New())
		credited.Status = account.StatusActive
		credited.Balance = money.MustFromString("100.33")
		mockService.On("AccrueInterest", mock.Anything, credited.ID).Return(credited, nil)

		router := setupTestRouter()
		router.POST("/accounts/:id/interest", handler.AccrueInterest)

		req, _ := http.NewRequest(http.MethodPost, "/accounts/"+credited.ID.String()+"/interest", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		responseBody := decodeData[AccountResponse](t, rr.Body.Bytes())
		assert.Equal(t, "100.33", responseBody.Balance)

		mockService.AssertExpectations(t)
	})

	t.Run("ServiceError", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(logger, mockService)

		accountID := uuid.New()
		mockService.On("AccrueInterest", mock.Anything, accountID).
			Return(nil, errors.New("database unavailable"))

		router := setupTestRouter()
		router.POST("/accounts/:id/interest", handler.AccrueInterest)

		req, _ := http.NewRequest(http.MethodPost, "/accounts/"+accountID.String()+"/interest", nil)
		rr := httptest.NewRecorder()

		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		mockService.AssertExpectations(t)
	})
}
