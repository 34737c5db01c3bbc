package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignPayment computes the checkout proof for an order/payment pair:
// hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func SignPayment(secret, gatewayOrderID, gatewayPaymentID string) string {
	return sign(secret, []byte(gatewayOrderID+"|"+gatewayPaymentID))
}

// VerifyPaymentSignature checks a checkout proof in constant time.
func VerifyPaymentSignature(secret, gatewayOrderID, gatewayPaymentID, proof string) bool {
	return equalHex(SignPayment(secret, gatewayOrderID, gatewayPaymentID), proof)
}

// SignWebhook computes the signature the gateway sends with a webhook body.
func SignWebhook(secret string, body []byte) string {
	return sign(secret, body)
}

// VerifyWebhookSignature checks a webhook body signature in constant time. An empty
// secret never verifies.
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" {
		return false
	}
	return equalHex(SignWebhook(secret, body), signature)
}

func sign(secret string, message []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

func equalHex(expected, got string) bool {
	if got == "" {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(got))
}
