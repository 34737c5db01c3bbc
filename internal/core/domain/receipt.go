package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt is the archived, human-auditable record of a settled purchase.
type Receipt struct {
	ReceiptID        string          `json:"receiptID"`
	TransactionID    string          `json:"transactionID"`
	GatewayOrderID   string          `json:"gatewayOrderID"`
	GatewayPaymentID string          `json:"gatewayPaymentID"`
	BuyerID          string          `json:"buyerID"`
	SellerID         string          `json:"sellerID"`
	ProjectID        string          `json:"projectID"`
	Amount           int64           `json:"amount"`
	CurrencyCode     string          `json:"currencyCode"`
	CommissionAmount int64           `json:"commissionAmount"`
	SellerAmount     int64           `json:"sellerAmount"`
	CommissionRate   decimal.Decimal `json:"commissionRate"`
	IssuedAt         time.Time       `json:"issuedAt"`
}

// ReceiptFor builds the receipt of a completed purchase.
func ReceiptFor(t Transaction) Receipt {
	r := Receipt{
		ReceiptID:      t.ReceiptID,
		TransactionID:  t.TransactionID,
		GatewayOrderID: t.GatewayOrderID,
		BuyerID:        t.BuyerID,
		SellerID:       t.SellerID,
		ProjectID:      t.ProjectID,
		Amount:         t.Amount,
		CurrencyCode:   t.CurrencyCode,
	}
	if t.GatewayPaymentID != nil {
		r.GatewayPaymentID = *t.GatewayPaymentID
	}
	if t.CommissionAmount != nil {
		r.CommissionAmount = *t.CommissionAmount
	}
	if t.SellerAmount != nil {
		r.SellerAmount = *t.SellerAmount
	}
	if t.CommissionRate != nil {
		r.CommissionRate = *t.CommissionRate
	}
	if t.CompletedAt != nil {
		r.IssuedAt = *t.CompletedAt
	}
	return r
}
