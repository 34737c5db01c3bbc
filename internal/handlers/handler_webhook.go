package handlers

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	portssvc "github.com/manan0901/Vibecoder-sub000/internal/core/ports/services"
	"github.com/manan0901/Vibecoder-sub000/internal/middleware"
)

const (
	headerWebhookSignature = "X-Razorpay-Signature"
	headerWebhookEventID   = "X-Razorpay-Event-Id"
	maxWebhookBody         = 1 << 20
)

type webhookHandler struct {
	webhooks portssvc.WebhookSvc
}

// RegisterWebhookRoutes registers the unauthenticated gateway callback. Deliveries are
// authenticated by their body signature instead of a JWT.
func RegisterWebhookRoutes(r gin.IRouter, webhooks portssvc.WebhookSvc) {
	h := &webhookHandler{webhooks: webhooks}
	r.POST("/webhooks/razorpay", h.receive)
}

// receive godoc
// @Summary Receive a payment gateway webhook
// @Tags webhooks
// @Accept  json
// @Produce  json
// @Param   X-Razorpay-Signature header string true "HMAC-SHA256 of the raw body"
// @Param   X-Razorpay-Event-Id header string false "Delivery id used for dedupe"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Bad signature or body"
// @Failure 502 {object} map[string]string "Gateway unavailable, redeliver later"
// @Router /webhooks/razorpay [post]
func (h *webhookHandler) receive(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		logger.Warn("Failed to read webhook body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	eventID := c.GetHeader(headerWebhookEventID)
	logger = logger.With(slog.String("event_id", eventID))
	err = h.webhooks.HandleWebhook(c.Request.Context(), body, c.GetHeader(headerWebhookSignature), eventID)
	if err != nil {
		respondError(c, logger, err, "Failed to process webhook")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
