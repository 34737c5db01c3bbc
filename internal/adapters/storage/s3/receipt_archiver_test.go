package s3

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock S3 ---
type MockS3 struct {
	s3iface.S3API
	mock.Mock
}

func (m *MockS3) PutObjectWithContext(ctx aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*s3.PutObjectOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func sampleReceipt() domain.Receipt {
	return domain.Receipt{
		ReceiptID:        "rcpt_proj1_buyer1_abc",
		TransactionID:    "order_1",
		ProjectID:        "proj-1",
		Amount:           299900,
		CurrencyCode:     "INR",
		CommissionAmount: 29990,
		SellerAmount:     269910,
		CommissionRate:   decimal.RequireFromString("0.10"),
	}
}

func TestArchive_UploadsJSON(t *testing.T) {
	client := new(MockS3)
	var uploaded *s3.PutObjectInput
	client.On("PutObjectWithContext", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { uploaded = args.Get(1).(*s3.PutObjectInput) }).
		Return(&s3.PutObjectOutput{}, nil).Once()
	archiver := NewReceiptArchiverWithClient(client, "receipts-bucket")

	location, err := archiver.Archive(context.Background(), sampleReceipt())

	require.NoError(t, err)
	assert.Equal(t, "s3://receipts-bucket/receipts/proj-1/rcpt_proj1_buyer1_abc.json", location)
	assert.Equal(t, "receipts-bucket", aws.StringValue(uploaded.Bucket))
	assert.Equal(t, "application/json", aws.StringValue(uploaded.ContentType))
	assert.Equal(t, "order_1", aws.StringValue(uploaded.Metadata["transaction-id"]))

	raw, err := io.ReadAll(uploaded.Body)
	require.NoError(t, err)
	var got domain.Receipt
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, int64(269910), got.SellerAmount)
	assert.True(t, got.CommissionRate.Equal(decimal.RequireFromString("0.1")))
}

func TestArchive_UploadFailure(t *testing.T) {
	boom := errors.New("access denied")
	client := new(MockS3)
	client.On("PutObjectWithContext", mock.Anything, mock.Anything).Return(nil, boom).Once()

	_, err := NewReceiptArchiverWithClient(client, "b").Archive(context.Background(), sampleReceipt())

	assert.ErrorIs(t, err, boom)
}
