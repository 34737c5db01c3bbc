package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	portssvc "github.com/manan0901/Vibecoder-sub000/internal/core/ports/services"
	"github.com/manan0901/Vibecoder-sub000/internal/core/services"
	"github.com/manan0901/Vibecoder-sub000/internal/dto"
	"github.com/manan0901/Vibecoder-sub000/internal/repositories/database/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock PaymentGateway ---
type MockPaymentGateway struct {
	mock.Mock
}

var _ external.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) CreateOrder(ctx context.Context, req external.CreateOrderRequest) (*external.GatewayOrder, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*external.GatewayOrder), args.Error(1)
}

func (m *MockPaymentGateway) FetchPayment(ctx context.Context, paymentID string) (*external.GatewayPayment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*external.GatewayPayment), args.Error(1)
}

func (m *MockPaymentGateway) Refund(ctx context.Context, req external.RefundRequest) (*external.GatewayRefund, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*external.GatewayRefund), args.Error(1)
}

// --- Mock Notifier ---
type MockNotifier struct {
	mock.Mock
}

var _ external.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Notify(ctx context.Context, event string, payload map[string]any) error {
	args := m.Called(ctx, event, payload)
	return args.Error(0)
}

// --- In-test deduper and cache ---
type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeDeduper() *fakeDeduper { return &fakeDeduper{seen: map[string]bool{}} }

func (d *fakeDeduper) FirstSeen(ctx context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen[eventID] {
		return false, nil
	}
	d.seen[eventID] = true
	return true, nil
}

func (d *fakeDeduper) Forget(ctx context.Context, eventID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, eventID)
	return nil
}

type fakeCache struct {
	mu   sync.Mutex
	rows map[string]domain.Transaction
	hits int
}

func newFakeCache() *fakeCache { return &fakeCache{rows: map[string]domain.Transaction{}} }

func (c *fakeCache) Get(ctx context.Context, id string) (*domain.Transaction, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rows[id]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &row, true, nil
}

func (c *fakeCache) Set(ctx context.Context, txn domain.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[txn.TransactionID] = txn
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.rows, id)
	}
	return nil
}

const (
	testSigningSecret = "key-secret-for-tests"
	testWebhookSecret = "webhook-secret-for-tests"
	testPrice         = int64(299900)
	testCurrency      = "INR"
)

// PaymentTestSuite wires the real services over the in-memory ledger with a mocked gateway.
type PaymentTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *memory.TransactionStore
	catalog  *memory.Catalog
	gateway  *MockPaymentGateway
	notifier *MockNotifier
	cache    *fakeCache
	deduper  *fakeDeduper

	orders     portssvc.OrderSvc
	settlement portssvc.SettlementSvc
	refunds    portssvc.RefundSvc
	webhooks   portssvc.WebhookSvc
	ledger     portssvc.LedgerReaderSvc

	buyerID   string
	sellerID  string
	projectID string
}

func (suite *PaymentTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewTransactionStore()
	suite.catalog = memory.NewCatalog()
	suite.gateway = new(MockPaymentGateway)
	suite.notifier = new(MockNotifier)
	suite.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	suite.cache = newFakeCache()
	suite.deduper = newFakeDeduper()

	suite.buyerID = "buyer-1"
	suite.sellerID = "seller-1"
	suite.projectID = "proj-1"
	suite.catalog.PutBuyer(domain.Buyer{UserID: suite.buyerID, Email: "b@example.com", IsActive: true})
	suite.catalog.PutBuyer(domain.Buyer{UserID: suite.sellerID, Email: "s@example.com", IsActive: true})
	suite.catalog.PutProject(domain.Project{
		ProjectID:    suite.projectID,
		SellerID:     suite.sellerID,
		Title:        "Landing page kit",
		Price:        testPrice,
		CurrencyCode: testCurrency,
		Purchasable:  true,
	})

	policy, err := domain.NewCommissionPolicy(decimal.RequireFromString("0.10"))
	suite.Require().NoError(err)

	opts := []services.ServiceOption{
		services.WithNotifier(suite.notifier),
		services.WithStatusCache(suite.cache),
		services.WithGatewayTimeout(time.Second),
		services.WithSideEffectRunner(services.NewSideEffectRunner(time.Second, true)),
	}
	suite.orders = services.NewOrderService(suite.store, suite.catalog, suite.catalog, suite.gateway, opts...)
	suite.settlement = services.NewSettlementService(suite.store, suite.catalog, suite.gateway, policy, testSigningSecret, opts...)
	suite.refunds = services.NewRefundService(suite.store, suite.gateway, opts...)
	suite.ledger = services.NewLedgerService(suite.store, opts...)
	suite.webhooks = services.NewWebhookService(suite.settlement, suite.deduper, testWebhookSecret, testSigningSecret, opts...)
}

// openOrder creates a PENDING purchase whose gateway order id is orderID.
func (suite *PaymentTestSuite) openOrder(orderID string) *portssvc.OrderResult {
	suite.gateway.On("CreateOrder", mock.Anything, mock.AnythingOfType("external.CreateOrderRequest")).
		Return(&external.GatewayOrder{ID: orderID, Amount: testPrice, Currency: testCurrency, Status: "created"}, nil).Once()

	res, err := suite.orders.CreateOrder(suite.ctx, suite.buyerID, dto.CreateOrderRequest{
		ProjectID:    suite.projectID,
		Amount:       testPrice,
		CurrencyCode: testCurrency,
	})
	suite.Require().NoError(err)
	return res
}

// capturedPayment makes the gateway report paymentID as captured for orderID.
func (suite *PaymentTestSuite) capturedPayment(orderID, paymentID string) {
	suite.gateway.On("FetchPayment", mock.Anything, paymentID).Return(&external.GatewayPayment{
		ID:       paymentID,
		OrderID:  orderID,
		Amount:   testPrice,
		Currency: testCurrency,
		Status:   external.PaymentStatusCaptured,
		Method:   "upi",
	}, nil)
}

func (suite *PaymentTestSuite) settleRequest(orderID, paymentID string) dto.SettleRequest {
	return dto.SettleRequest{
		GatewayOrderID:   orderID,
		GatewayPaymentID: paymentID,
		Signature:        services.SignPayment(testSigningSecret, orderID, paymentID),
		CallerID:         suite.buyerID,
		CallerRole:       domain.RoleBuyer,
	}
}

// expectRefund makes the gateway accept one refund of amount against paymentID.
func (suite *PaymentTestSuite) expectRefund(paymentID string, amount int64) {
	suite.gateway.On("Refund", mock.Anything, mock.MatchedBy(func(r external.RefundRequest) bool {
		return r.PaymentID == paymentID && r.Amount == amount
	})).Return(&external.GatewayRefund{ID: "rfnd_" + paymentID, PaymentID: paymentID, Amount: amount, Status: "processed"}, nil).Once()
}

// compensation returns the compensating refund recorded on a failed row.
func (suite *PaymentTestSuite) compensation(id string) map[string]any {
	comp, ok := suite.row(id).Metadata[domain.MetaCompensation].(map[string]any)
	suite.Require().True(ok, "no compensation recorded on %s", id)
	return comp
}

// settled opens and settles one purchase.
func (suite *PaymentTestSuite) settled(orderID, paymentID string) *domain.Transaction {
	suite.openOrder(orderID)
	suite.capturedPayment(orderID, paymentID)
	txn, err := suite.settlement.Settle(suite.ctx, suite.settleRequest(orderID, paymentID))
	suite.Require().NoError(err)
	return txn
}

func (suite *PaymentTestSuite) row(id string) *domain.Transaction {
	txn, err := suite.store.FindTransactionByID(suite.ctx, id)
	suite.Require().NoError(err)
	return txn
}

func (suite *PaymentTestSuite) children(id string) []domain.Transaction {
	rows, err := suite.store.FindChildTransactions(suite.ctx, id)
	suite.Require().NoError(err)
	return rows
}

func childrenOfKind(rows []domain.Transaction, kind domain.TransactionKind) []domain.Transaction {
	var out []domain.Transaction
	for _, r := range rows {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}
