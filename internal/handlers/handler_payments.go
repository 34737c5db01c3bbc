package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	portssvc "github.com/manan0901/Vibecoder-sub000/internal/core/ports/services"
	"github.com/manan0901/Vibecoder-sub000/internal/dto"
	"github.com/manan0901/Vibecoder-sub000/internal/middleware"
)

// paymentHandler handles buyer, seller and admin payment endpoints.
type paymentHandler struct {
	orders     portssvc.OrderSvc
	settlement portssvc.SettlementSvc
	refunds    portssvc.RefundSvc
	ledger     portssvc.LedgerReaderSvc
	keyID      string
}

func newPaymentHandler(services *portssvc.ServiceContainer, keyID string) *paymentHandler {
	return &paymentHandler{
		orders:     services.Orders,
		settlement: services.Settlement,
		refunds:    services.Refunds,
		ledger:     services.Ledger,
		keyID:      keyID,
	}
}

// RegisterPaymentRoutes registers the authenticated payment routes on rg.
func RegisterPaymentRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer, keyID string) {
	h := newPaymentHandler(services, keyID)

	payments := rg.Group("/payments")
	{
		payments.POST("/orders", h.createOrder)
		payments.GET("/orders/:orderID/status", h.getOrderStatus)
		payments.POST("/verify", h.verifyPayment)
		payments.GET("/transactions", h.listTransactions)
		payments.GET("/transactions/:transactionID", h.getTransaction)
		payments.POST("/transactions/:transactionID/refund", middleware.RequireRole(domain.RoleAdmin), h.refundTransaction)
	}
}

// caller returns the authenticated user, writing 401 when absent.
func caller(c *gin.Context, logger *slog.Logger) (string, domain.UserRole, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", "", false
	}
	return userID, middleware.GetUserRoleFromContext(c), true
}

// createOrder godoc
// @Summary Open a purchase
// @Description Checks eligibility, opens a gateway order and records a PENDING purchase for the caller
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   order body dto.CreateOrderRequest true "Project and the price the buyer saw"
// @Success 201 {object} dto.CreateOrderResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Project or buyer not found"
// @Failure 422 {object} map[string]string "Purchase not eligible"
// @Failure 502 {object} map[string]string "Payment gateway unavailable"
// @Security BearerAuth
// @Router /payments/orders [post]
func (h *paymentHandler) createOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateOrder", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	buyerID, _, ok := caller(c, logger)
	if !ok {
		return
	}

	logger.Info("Received request to create order", slog.String("project_id", req.ProjectID), slog.Int64("amount", req.Amount))
	res, err := h.orders.CreateOrder(c.Request.Context(), buyerID, req)
	if err != nil {
		respondError(c, logger, err, "Failed to create order")
		return
	}

	c.JSON(http.StatusCreated, dto.CreateOrderResponse{
		OrderID:       res.Order.ID,
		TransactionID: res.Transaction.TransactionID,
		ReceiptID:     res.Transaction.ReceiptID,
		Amount:        res.Transaction.Amount,
		CurrencyCode:  res.Transaction.CurrencyCode,
		Status:        string(res.Transaction.Status),
		KeyID:         h.keyID,
	})
}

// verifyPayment godoc
// @Summary Settle a checkout callback
// @Description Verifies the gateway signature and payment, then completes the purchase with its commission split. Repeated calls return the settled row.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   callback body dto.SettleRequest true "Checkout callback fields"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input or signature"
// @Failure 403 {object} map[string]string "Caller is not the buyer"
// @Failure 404 {object} map[string]string "Order not found"
// @Failure 409 {object} map[string]string "Purchase can no longer be settled or payment not captured"
// @Failure 502 {object} map[string]string "Payment gateway unavailable"
// @Security BearerAuth
// @Router /payments/verify [post]
func (h *paymentHandler) verifyPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for VerifyPayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	userID, role, ok := caller(c, logger)
	if !ok {
		return
	}
	req.CallerID, req.CallerRole = userID, role

	logger = logger.With(slog.String("gateway_order_id", req.GatewayOrderID))
	txn, err := h.settlement.Settle(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to verify payment")
		return
	}
	logger.Info("Payment verified", slog.String("status", string(txn.Status)))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// getOrderStatus godoc
// @Summary Get the status of an order
// @Tags payments
// @Produce  json
// @Param   orderID path string true "Gateway order ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not a party to the order"
// @Failure 404 {object} map[string]string "Order not found"
// @Security BearerAuth
// @Router /payments/orders/{orderID}/status [get]
func (h *paymentHandler) getOrderStatus(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, role, ok := caller(c, logger)
	if !ok {
		return
	}
	orderID := c.Param("orderID")

	txn, err := h.ledger.GetStatus(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve order status")
		return
	}
	if role != domain.RoleAdmin && txn.BuyerID != userID && txn.SellerID != userID {
		logger.Warn("User forbidden to read order status", slog.String("order_id", orderID))
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// listTransactions godoc
// @Summary List the caller's ledger rows
// @Description Buyers see their purchases and refunds, sellers see sales and commissions, admins see everything.
// @Tags payments
// @Produce  json
// @Param   page query int false "Page number (default 1)"
// @Param   limit query int false "Page size (default 20, max 100)"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /payments/transactions [get]
func (h *paymentHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}
	userID, role, ok := caller(c, logger)
	if !ok {
		return
	}

	res, err := h.ledger.ListTransactions(c.Request.Context(), userID, role, params)
	if err != nil {
		respondError(c, logger, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, res)
}

// getTransaction godoc
// @Summary Get a ledger row with its commission and refund rows
// @Tags payments
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TransactionDetailsResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Not a party to the transaction"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Security BearerAuth
// @Router /payments/transactions/{transactionID} [get]
func (h *paymentHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, role, ok := caller(c, logger)
	if !ok {
		return
	}

	details, err := h.ledger.GetTransactionDetails(c.Request.Context(), c.Param("transactionID"), userID, role)
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.TransactionDetailsResponse{
		Transaction: dto.ToTransactionResponse(&details.Transaction),
		Children:    dto.ToTransactionResponses(details.Children),
	})
}

// refundTransaction godoc
// @Summary Refund a completed purchase
// @Description Admin only. Omitting amount refunds the full purchase.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   transactionID path string true "Purchase transaction ID"
// @Param   refund body dto.RefundRequest true "Refund amount and reason"
// @Success 200 {object} dto.RefundResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Failure 404 {object} map[string]string "Transaction not found"
// @Failure 422 {object} map[string]string "Not refundable or refused by gateway"
// @Failure 502 {object} map[string]string "Payment gateway unavailable"
// @Security BearerAuth
// @Router /payments/transactions/{transactionID}/refund [post]
func (h *paymentHandler) refundTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for Refund", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	adminID, _, ok := caller(c, logger)
	if !ok {
		return
	}
	transactionID := c.Param("transactionID")

	logger.Info("Received refund request", slog.String("transaction_id", transactionID))
	res, err := h.refunds.Refund(c.Request.Context(), transactionID, req, adminID)
	if err != nil {
		respondError(c, logger, err, "Failed to refund transaction")
		return
	}
	c.JSON(http.StatusOK, dto.RefundResponse{
		Refund:   dto.ToTransactionResponse(&res.Refund),
		Original: dto.ToTransactionResponse(&res.Original),
	})
}
