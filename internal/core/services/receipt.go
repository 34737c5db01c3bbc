package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/manan0901/Vibecoder-sub000/internal/utils"
)

// maxReceiptLen is the gateway's limit on the receipt field.
const maxReceiptLen = 40

// newReceiptID builds rcpt_<project6>_<buyer6>_<unixmillis>_<hex6>.
func newReceiptID(projectID, buyerID string, at time.Time) (string, error) {
	suffix, err := utils.RandomHex(3)
	if err != nil {
		return "", fmt.Errorf("generate receipt suffix: %w", err)
	}
	id := fmt.Sprintf("rcpt_%s_%s_%d_%s", shortID(projectID), shortID(buyerID), at.UnixMilli(), suffix)
	if len(id) > maxReceiptLen {
		id = id[:maxReceiptLen]
	}
	return id, nil
}

// shortID keeps the first six alphanumeric characters of id.
func shortID(id string) string {
	var b strings.Builder
	for _, r := range id {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			if b.Len() == 6 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "x"
	}
	return b.String()
}

// newDerivedTransactionID identifies COMMISSION and REFUND rows.
func newDerivedTransactionID() string {
	return "txn_" + uuid.NewString()
}

func commissionReceiptID(purchaseReceipt string) string {
	return purchaseReceipt + "-commission"
}

func refundReceiptID(purchaseReceipt string) string {
	return purchaseReceipt + "-refund"
}
