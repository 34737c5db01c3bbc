// Package s3 archives settled receipts to an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
)

// Options configures the archive bucket. A non-empty Endpoint selects a MinIO-style
// deployment with path-style addressing.
type Options struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKeyID  string
	SecretKey    string
	DisableSSL   bool
	CreateBucket bool
}

// ReceiptArchiver writes each receipt once as receipts/<project>/<receipt>.json.
type ReceiptArchiver struct {
	client s3iface.S3API
	bucket string
}

var _ external.ReceiptArchiver = (*ReceiptArchiver)(nil)

// NewReceiptArchiver opens an AWS session for opts.
func NewReceiptArchiver(opts Options, logger *slog.Logger) (*ReceiptArchiver, error) {
	awsConfig := &aws.Config{Region: aws.String(opts.Region)}
	if opts.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(opts.AccessKeyID, opts.SecretKey, "")
	}
	if opts.Endpoint != "" {
		awsConfig.Endpoint = aws.String(opts.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
		awsConfig.DisableSSL = aws.Bool(opts.DisableSSL)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	client := s3.New(sess)

	if opts.CreateBucket {
		if _, err := client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(opts.Bucket)}); err != nil {
			if _, err := client.CreateBucket(&s3.CreateBucketInput{Bucket: aws.String(opts.Bucket)}); err != nil {
				logger.Warn("Could not create receipt bucket", slog.String("bucket", opts.Bucket), slog.String("error", err.Error()))
			}
		}
	}

	logger.Info("Receipt archive configured", slog.String("bucket", opts.Bucket), slog.String("endpoint", opts.Endpoint))
	return NewReceiptArchiverWithClient(client, opts.Bucket), nil
}

func NewReceiptArchiverWithClient(client s3iface.S3API, bucket string) *ReceiptArchiver {
	return &ReceiptArchiver{client: client, bucket: bucket}
}

func receiptKey(r domain.Receipt) string {
	return fmt.Sprintf("receipts/%s/%s.json", r.ProjectID, r.ReceiptID)
}

func (a *ReceiptArchiver) Archive(ctx context.Context, receipt domain.Receipt) (string, error) {
	body, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode receipt %s: %w", receipt.ReceiptID, err)
	}
	key := receiptKey(receipt)

	_, err = a.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]*string{
			"transaction-id": aws.String(receipt.TransactionID),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt %s: %w", receipt.ReceiptID, err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
