package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	portssvc "github.com/manan0901/Vibecoder-sub000/internal/core/ports/services"
	"github.com/manan0901/Vibecoder-sub000/internal/dto"
	"github.com/manan0901/Vibecoder-sub000/internal/handlers"
	"github.com/manan0901/Vibecoder-sub000/internal/middleware"
	"github.com/manan0901/Vibecoder-sub000/internal/utils"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock PaymentService ---
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateOrder(ctx context.Context, buyerID string, req dto.CreateOrderRequest) (*portssvc.OrderResult, error) {
	args := m.Called(ctx, buyerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.OrderResult), args.Error(1)
}
func (m *MockPaymentService) Settle(ctx context.Context, req dto.SettleRequest) (*domain.Transaction, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockPaymentService) MarkPaymentFailed(ctx context.Context, gatewayOrderID, gatewayPaymentID, reason string) (*domain.Transaction, error) {
	args := m.Called(ctx, gatewayOrderID, gatewayPaymentID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockPaymentService) Refund(ctx context.Context, transactionID string, req dto.RefundRequest, requestedBy string) (*portssvc.RefundResult, error) {
	args := m.Called(ctx, transactionID, req, requestedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.RefundResult), args.Error(1)
}
func (m *MockPaymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature, eventID string) error {
	args := m.Called(ctx, rawBody, signature, eventID)
	return args.Error(0)
}
func (m *MockPaymentService) GetStatus(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockPaymentService) GetTransactionDetails(ctx context.Context, transactionID, userID string, role domain.UserRole) (*portssvc.TransactionDetails, error) {
	args := m.Called(ctx, transactionID, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.TransactionDetails), args.Error(1)
}
func (m *MockPaymentService) ListTransactions(ctx context.Context, userID string, role domain.UserRole, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	args := m.Called(ctx, userID, role, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListTransactionsResponse), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.PaymentSvcFacade = (*MockPaymentService)(nil)

// --- Test Suite ---
type PaymentHandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	svc       *MockPaymentService
	jwtSecret string
}

const testIssuer = "vibecoder-test"

// generateTestToken creates a signed JWT for userID acting in role.
func (suite *PaymentHandlerTestSuite) generateTestToken(userID string, role domain.UserRole) string {
	token, err := utils.GenerateJWT(userID, string(role), suite.jwtSecret, time.Hour, testIssuer)
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return token
}

func (suite *PaymentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"
	suite.svc = new(MockPaymentService)

	container := &portssvc.ServiceContainer{
		Orders:     suite.svc,
		Settlement: suite.svc,
		Refunds:    suite.svc,
		Webhooks:   suite.svc,
		Ledger:     suite.svc,
	}
	handlers.RegisterWebhookRoutes(suite.router, container.Webhooks)
	v1 := suite.router.Group("/api/v1", middleware.AuthMiddleware(suite.jwtSecret, testIssuer))
	handlers.RegisterPaymentRoutes(v1, container, "rzp_test_key")
}

func (suite *PaymentHandlerTestSuite) do(method, url, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) string {
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body["error"]
}

func purchaseRow(status domain.TransactionStatus) *domain.Transaction {
	return &domain.Transaction{
		TransactionID:  "order_1",
		Kind:           domain.KindPurchase,
		Status:         status,
		Amount:         299900,
		CurrencyCode:   "INR",
		BuyerID:        "buyer-1",
		SellerID:       "seller-1",
		ProjectID:      "proj-1",
		GatewayOrderID: "order_1",
		ReceiptID:      "rcpt_1",
	}
}

// --- Test Cases ---

func (suite *PaymentHandlerTestSuite) TestCreateOrder_Success() {
	req := dto.CreateOrderRequest{ProjectID: "proj-1", Amount: 299900, CurrencyCode: "INR"}
	suite.svc.On("CreateOrder", mock.Anything, "buyer-1", req).Return(&portssvc.OrderResult{
		Order:       external.GatewayOrder{ID: "order_1", Amount: 299900, Currency: "INR"},
		Transaction: *purchaseRow(domain.StatusPending),
	}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/payments/orders", suite.generateTestToken("buyer-1", domain.RoleBuyer), req)

	suite.Equal(http.StatusCreated, w.Code)
	var res dto.CreateOrderResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal("order_1", res.OrderID)
	suite.Equal("PENDING", res.Status)
	suite.Equal("rzp_test_key", res.KeyID)
	suite.svc.AssertExpectations(suite.T())
}

func (suite *PaymentHandlerTestSuite) TestCreateOrder_BindingError() {
	w := suite.do(http.MethodPost, "/api/v1/payments/orders", suite.generateTestToken("buyer-1", domain.RoleBuyer),
		map[string]any{"projectID": "proj-1", "amount": -1, "currencyCode": "INR"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.svc.AssertNotCalled(suite.T(), "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentHandlerTestSuite) TestCreateOrder_ErrorMapping() {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"already purchased", fmt.Errorf("eligibility: %w", apperrors.NewEligibilityError("project already purchased")), http.StatusUnprocessableEntity, "project already purchased"},
		{"project missing", apperrors.NewNotFoundError("project not found"), http.StatusNotFound, "project not found"},
		{"gateway down", apperrors.NewGatewayError("payment gateway unreachable", fmt.Errorf("dial tcp 10.0.0.1:443")), http.StatusBadGateway, "Failed to create order"},
		{"storage failure", apperrors.NewAppError(500, "failed to insert transaction", fmt.Errorf("pq: secret detail")), http.StatusInternalServerError, "Failed to create order"},
	}
	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.SetupTest()
			suite.svc.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			w := suite.do(http.MethodPost, "/api/v1/payments/orders", suite.generateTestToken("buyer-1", domain.RoleBuyer),
				dto.CreateOrderRequest{ProjectID: "proj-1", Amount: 100, CurrencyCode: "INR"})

			suite.Equal(tt.wantStatus, w.Code)
			suite.Equal(tt.wantError, decodeError(w))
		})
	}
}

func (suite *PaymentHandlerTestSuite) TestCreateOrder_Unauthenticated() {
	w := suite.do(http.MethodPost, "/api/v1/payments/orders", "", dto.CreateOrderRequest{ProjectID: "proj-1", Amount: 100, CurrencyCode: "INR"})
	suite.Equal(http.StatusUnauthorized, w.Code)
}

func (suite *PaymentHandlerTestSuite) TestVerifyPayment() {
	req := dto.SettleRequest{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: "abc"}
	want := req
	want.CallerID, want.CallerRole = "buyer-1", domain.RoleBuyer
	suite.svc.On("Settle", mock.Anything, want).Return(purchaseRow(domain.StatusCompleted), nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/payments/verify", suite.generateTestToken("buyer-1", domain.RoleBuyer), req)

	suite.Equal(http.StatusOK, w.Code)
	var res dto.TransactionResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal("COMPLETED", res.Status)
}

func (suite *PaymentHandlerTestSuite) TestVerifyPayment_CallerComesFromToken() {
	suite.svc.On("Settle", mock.Anything, mock.MatchedBy(func(r dto.SettleRequest) bool {
		return r.CallerID == "someone-else" && r.CallerRole == domain.RoleBuyer
	})).Return(nil, fmt.Errorf("settle order_1: %w", domain.ErrNotOrderBuyer)).Once()

	// caller fields in the body are ignored
	w := suite.do(http.MethodPost, "/api/v1/payments/verify", suite.generateTestToken("someone-else", domain.RoleBuyer), map[string]any{
		"razorpay_order_id":   "order_1",
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  "deadbeef",
		"CallerID":            "buyer-1",
		"CallerRole":          "admin",
	})

	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal("only the buyer can settle this order", decodeError(w))
	suite.svc.AssertExpectations(suite.T())
}

func (suite *PaymentHandlerTestSuite) TestVerifyPayment_BadSignature() {
	suite.svc.On("Settle", mock.Anything, mock.Anything).Return(nil, apperrors.NewSignatureError("invalid payment signature")).Once()

	w := suite.do(http.MethodPost, "/api/v1/payments/verify", suite.generateTestToken("buyer-1", domain.RoleBuyer),
		dto.SettleRequest{GatewayOrderID: "order_1", GatewayPaymentID: "pay_1", Signature: "bad"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("invalid payment signature", decodeError(w))
}

func (suite *PaymentHandlerTestSuite) TestGetOrderStatus_PartiesOnly() {
	suite.svc.On("GetStatus", mock.Anything, "order_1").Return(purchaseRow(domain.StatusPending), nil)

	w := suite.do(http.MethodGet, "/api/v1/payments/orders/order_1/status", suite.generateTestToken("seller-1", domain.RoleSeller), nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/payments/orders/order_1/status", suite.generateTestToken("someone", domain.RoleBuyer), nil)
	suite.Equal(http.StatusForbidden, w.Code)

	w = suite.do(http.MethodGet, "/api/v1/payments/orders/order_1/status", suite.generateTestToken("admin-1", domain.RoleAdmin), nil)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *PaymentHandlerTestSuite) TestListTransactions_PassesRoleAndPaging() {
	suite.svc.On("ListTransactions", mock.Anything, "seller-1", domain.RoleSeller, dto.ListTransactionsParams{Page: 2, Limit: 5}).
		Return(&dto.ListTransactionsResponse{Transactions: []dto.TransactionResponse{}, Page: 2, Limit: 5, Total: 7}, nil).Once()

	w := suite.do(http.MethodGet, "/api/v1/payments/transactions?page=2&limit=5", suite.generateTestToken("seller-1", domain.RoleSeller), nil)

	suite.Equal(http.StatusOK, w.Code)
	var res dto.ListTransactionsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal(7, res.Total)
	suite.svc.AssertExpectations(suite.T())
}

func (suite *PaymentHandlerTestSuite) TestListTransactions_LimitTooLarge() {
	w := suite.do(http.MethodGet, "/api/v1/payments/transactions?limit=500", suite.generateTestToken("buyer-1", domain.RoleBuyer), nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *PaymentHandlerTestSuite) TestGetTransaction_Forbidden() {
	suite.svc.On("GetTransactionDetails", mock.Anything, "order_1", "stranger", domain.RoleBuyer).
		Return(nil, apperrors.NewAppError(403, "not a party to this transaction", nil)).Once()

	w := suite.do(http.MethodGet, "/api/v1/payments/transactions/order_1", suite.generateTestToken("stranger", domain.RoleBuyer), nil)

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *PaymentHandlerTestSuite) TestRefund_AdminOnly() {
	w := suite.do(http.MethodPost, "/api/v1/payments/transactions/order_1/refund", suite.generateTestToken("buyer-1", domain.RoleBuyer),
		dto.RefundRequest{Reason: "x"})

	suite.Equal(http.StatusForbidden, w.Code)
	suite.svc.AssertNotCalled(suite.T(), "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *PaymentHandlerTestSuite) TestRefund_Success() {
	original := purchaseRow(domain.StatusRefunded)
	parent := "order_1"
	suite.svc.On("Refund", mock.Anything, "order_1", dto.RefundRequest{Reason: "buyer request"}, "admin-1").Return(&portssvc.RefundResult{
		Refund:   domain.Transaction{TransactionID: "order_1_refund", Kind: domain.KindRefund, Status: domain.StatusCompleted, Amount: 299900, ParentTransactionID: &parent},
		Original: *original,
	}, nil).Once()

	w := suite.do(http.MethodPost, "/api/v1/payments/transactions/order_1/refund", suite.generateTestToken("admin-1", domain.RoleAdmin),
		dto.RefundRequest{Reason: "buyer request"})

	suite.Equal(http.StatusOK, w.Code)
	var res dto.RefundResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	suite.Equal("REFUND", res.Refund.Kind)
	suite.Equal("REFUNDED", res.Original.Status)
}

func (suite *PaymentHandlerTestSuite) TestWebhook_PassesRawBodyAndHeaders() {
	body := []byte(`{"event":"payment.captured"}`)
	suite.svc.On("HandleWebhook", mock.Anything, body, "sig", "evt_1").Return(nil).Once()

	req, _ := http.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", "sig")
	req.Header.Set("X-Razorpay-Event-Id", "evt_1")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	suite.svc.AssertExpectations(suite.T())
}

func (suite *PaymentHandlerTestSuite) TestWebhook_GatewayErrorAsksForRedelivery() {
	suite.svc.On("HandleWebhook", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(apperrors.NewGatewayError("payment gateway unreachable", nil)).Once()

	req, _ := http.NewRequest(http.MethodPost, "/webhooks/razorpay", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusBadGateway, w.Code)
}

func TestPaymentHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}
