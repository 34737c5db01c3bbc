package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/models"
	"github.com/shopspring/decimal"
)

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) (models.Transaction, error) {
	meta, err := MarshalMetadata(d.Metadata)
	if err != nil {
		return models.Transaction{}, err
	}
	m := models.Transaction{
		TransactionID:       d.TransactionID,
		Kind:                string(d.Kind),
		Amount:              d.Amount,
		CurrencyCode:        d.CurrencyCode,
		Status:              string(d.Status),
		BuyerID:             d.BuyerID,
		SellerID:            d.SellerID,
		ProjectID:           d.ProjectID,
		GatewayOrderID:      d.GatewayOrderID,
		GatewayPaymentID:    d.GatewayPaymentID,
		ParentTransactionID: d.ParentTransactionID,
		ReceiptID:           d.ReceiptID,
		CommissionAmount:    d.CommissionAmount,
		SellerAmount:        d.SellerAmount,
		Metadata:            meta,
		CompletedAt:         d.CompletedAt,
		FailedAt:            d.FailedAt,
		RefundedAt:          d.RefundedAt,
		AuditFields:         models.AuditFields(d.AuditFields),
	}
	if d.CommissionRate != nil {
		m.CommissionRate = decimal.NewNullDecimal(*d.CommissionRate)
	}
	return m, nil
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) (domain.Transaction, error) {
	meta, err := UnmarshalMetadata(m.Metadata)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", m.TransactionID, err)
	}
	d := domain.Transaction{
		TransactionID:       m.TransactionID,
		Kind:                domain.TransactionKind(m.Kind),
		Amount:              m.Amount,
		CurrencyCode:        m.CurrencyCode,
		Status:              domain.TransactionStatus(m.Status),
		BuyerID:             m.BuyerID,
		SellerID:            m.SellerID,
		ProjectID:           m.ProjectID,
		GatewayOrderID:      m.GatewayOrderID,
		GatewayPaymentID:    m.GatewayPaymentID,
		ParentTransactionID: m.ParentTransactionID,
		ReceiptID:           m.ReceiptID,
		CommissionAmount:    m.CommissionAmount,
		SellerAmount:        m.SellerAmount,
		Metadata:            meta,
		CompletedAt:         m.CompletedAt,
		FailedAt:            m.FailedAt,
		RefundedAt:          m.RefundedAt,
		AuditFields:         domain.AuditFields(m.AuditFields),
	}
	if m.CommissionRate.Valid {
		rate := m.CommissionRate.Decimal
		d.CommissionRate = &rate
	}
	return d, nil
}

// ToDomainTransactionSlice converts a slice of model Transactions to a slice of domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) ([]domain.Transaction, error) {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		d, err := ToDomainTransaction(m)
		if err != nil {
			return nil, err
		}
		ds[i] = d
	}
	return ds, nil
}

// MarshalMetadata encodes metadata for a jsonb column; nil becomes an empty object.
func MarshalMetadata(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return b, nil
}

// UnmarshalMetadata decodes a jsonb column. Numbers are kept as json.Number so minor-unit
// amounts survive the round trip exactly.
func UnmarshalMetadata(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var meta map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if len(meta) == 0 {
		return nil, nil
	}
	return meta, nil
}
