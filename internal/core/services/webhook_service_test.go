package services_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type WebhookServiceTestSuite struct {
	PaymentTestSuite
}

func webhookBody(event, orderID, paymentID, status string, amount int64) []byte {
	body, _ := json.Marshal(map[string]any{
		"event": event,
		"payload": map[string]any{
			"payment": map[string]any{
				"entity": map[string]any{
					"id":                paymentID,
					"order_id":          orderID,
					"amount":            amount,
					"currency":          testCurrency,
					"status":            status,
					"error_code":        "BAD_REQUEST_ERROR",
					"error_description": "card declined",
				},
			},
		},
	})
	return body
}

func (suite *WebhookServiceTestSuite) TestCaptured_SettlesPurchase() {
	suite.openOrder("order_1")
	suite.capturedPayment("order_1", "pay_1")
	body := webhookBody("payment.captured", "order_1", "pay_1", "captured", testPrice)

	err := suite.webhooks.HandleWebhook(suite.ctx, body, services.SignWebhook(testWebhookSecret, body), "evt_1")

	suite.Require().NoError(err)
	row := suite.row("order_1")
	suite.Equal(domain.StatusCompleted, row.Status)
	suite.Len(childrenOfKind(suite.children("order_1"), domain.KindCommission), 1)
}

func (suite *WebhookServiceTestSuite) TestRedeliveryIsIgnored() {
	suite.openOrder("order_1")
	suite.capturedPayment("order_1", "pay_1")
	body := webhookBody("payment.captured", "order_1", "pay_1", "captured", testPrice)
	sig := services.SignWebhook(testWebhookSecret, body)

	suite.Require().NoError(suite.webhooks.HandleWebhook(suite.ctx, body, sig, "evt_1"))
	suite.Require().NoError(suite.webhooks.HandleWebhook(suite.ctx, body, sig, "evt_1"))

	suite.gateway.AssertNumberOfCalls(suite.T(), "FetchPayment", 1)
	suite.Len(childrenOfKind(suite.children("order_1"), domain.KindCommission), 1)
}

func (suite *WebhookServiceTestSuite) TestCallbackAndWebhookSettleOnce() {
	suite.settled("order_1", "pay_1")
	body := webhookBody("order.paid", "order_1", "pay_1", "captured", testPrice)

	err := suite.webhooks.HandleWebhook(suite.ctx, body, services.SignWebhook(testWebhookSecret, body), "evt_2")

	suite.Require().NoError(err)
	suite.Len(childrenOfKind(suite.children("order_1"), domain.KindCommission), 1)
	suite.Equal(int64(1), suite.catalog.SaleCount(suite.projectID))
}

func (suite *WebhookServiceTestSuite) TestBadSignatureRejected() {
	suite.openOrder("order_1")
	body := webhookBody("payment.captured", "order_1", "pay_1", "captured", testPrice)

	err := suite.webhooks.HandleWebhook(suite.ctx, body, services.SignWebhook("wrong-secret", body), "evt_1")

	suite.ErrorIs(err, apperrors.ErrSignature)
	suite.Equal(domain.StatusPending, suite.row("order_1").Status)
	suite.gateway.AssertNotCalled(suite.T(), "FetchPayment", mock.Anything, mock.Anything)
}

func (suite *WebhookServiceTestSuite) TestPaymentFailedMarksPurchase() {
	suite.openOrder("order_1")
	body := webhookBody("payment.failed", "order_1", "pay_1", "failed", testPrice)

	err := suite.webhooks.HandleWebhook(suite.ctx, body, services.SignWebhook(testWebhookSecret, body), "evt_3")

	suite.Require().NoError(err)
	row := suite.row("order_1")
	suite.Equal(domain.StatusFailed, row.Status)
	suite.Equal(domain.ReasonGatewayPaymentFailed, row.FailureReason())
	suite.Equal("BAD_REQUEST_ERROR: card declined", row.Metadata[domain.MetaGatewayError])
}

func (suite *WebhookServiceTestSuite) TestCapturedForFailedPurchaseRefundsBuyer() {
	suite.openOrder("order_1")
	bad := suite.settleRequest("order_1", "pay_1")
	bad.Signature = "deadbeef"
	_, err := suite.settlement.Settle(suite.ctx, bad)
	suite.Require().ErrorIs(err, domain.ErrInvalidSignature)

	suite.capturedPayment("order_1", "pay_1")
	suite.expectRefund("pay_1", testPrice)
	body := webhookBody("payment.captured", "order_1", "pay_1", "captured", testPrice)

	err = suite.webhooks.HandleWebhook(suite.ctx, body, services.SignWebhook(testWebhookSecret, body), "evt_7")

	suite.Require().NoError(err)
	row := suite.row("order_1")
	suite.Equal(domain.StatusFailed, row.Status)
	suite.Empty(childrenOfKind(suite.children("order_1"), domain.KindCommission))
	comp := suite.compensation("order_1")
	suite.Equal("refunded", comp["status"])
	suite.Equal("rfnd_pay_1", comp["gateway_refund_id"])
	suite.gateway.AssertExpectations(suite.T())

	redelivered := webhookBody("order.paid", "order_1", "pay_1", "captured", testPrice)
	suite.Require().NoError(suite.webhooks.HandleWebhook(suite.ctx, redelivered, services.SignWebhook(testWebhookSecret, redelivered), "evt_8"))
	suite.gateway.AssertNumberOfCalls(suite.T(), "Refund", 1)
}

func (suite *WebhookServiceTestSuite) TestCapturedForFailedPurchaseRetriesOnGatewayOutage() {
	suite.openOrder("order_1")
	_, err := suite.settlement.MarkPaymentFailed(suite.ctx, "order_1", "pay_0", "card declined")
	suite.Require().NoError(err)
	suite.gateway.On("FetchPayment", mock.Anything, "pay_1").
		Return(nil, apperrors.NewGatewayError("timeout", errors.New("deadline exceeded"))).Once()
	body := webhookBody("payment.captured", "order_1", "pay_1", "captured", testPrice)

	err = suite.webhooks.HandleWebhook(suite.ctx, body, services.SignWebhook(testWebhookSecret, body), "evt_9")

	suite.ErrorIs(err, apperrors.ErrGateway)
	first, derr := suite.deduper.FirstSeen(suite.ctx, "evt_9")
	suite.Require().NoError(derr)
	suite.True(first, "failed delivery must stay retryable")
}

func (suite *WebhookServiceTestSuite) TestAuthorizedEventDoesNotSettle() {
	suite.openOrder("order_1")
	body := webhookBody("payment.authorized", "order_1", "pay_1", "authorized", testPrice)

	err := suite.webhooks.HandleWebhook(suite.ctx, body, services.SignWebhook(testWebhookSecret, body), "evt_10")

	suite.NoError(err)
	suite.Equal(domain.StatusPending, suite.row("order_1").Status)
	suite.Empty(suite.children("order_1"))
	suite.Zero(suite.catalog.SaleCount(suite.projectID))
	suite.gateway.AssertNotCalled(suite.T(), "FetchPayment", mock.Anything, mock.Anything)
}

func (suite *WebhookServiceTestSuite) TestUnknownOrderAcknowledged() {
	body := webhookBody("payment.captured", "order_ghost", "pay_9", "captured", testPrice)

	err := suite.webhooks.HandleWebhook(suite.ctx, body, services.SignWebhook(testWebhookSecret, body), "evt_4")

	suite.NoError(err)
}

func (suite *WebhookServiceTestSuite) TestUnhandledEventIgnored() {
	body := []byte(`{"event":"refund.processed","payload":{}}`)

	err := suite.webhooks.HandleWebhook(suite.ctx, body, services.SignWebhook(testWebhookSecret, body), "evt_5")

	suite.NoError(err)
}

func (suite *WebhookServiceTestSuite) TestMalformedBody() {
	body := []byte(`{"event":`)

	err := suite.webhooks.HandleWebhook(suite.ctx, body, services.SignWebhook(testWebhookSecret, body), "evt_6")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestWebhookServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WebhookServiceTestSuite))
}
