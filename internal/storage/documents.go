package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"delivery-backend/internal/config"
	"delivery-backend/internal/timeutil"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of the S3 client the archive needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// DocumentStore archives printed labels and picking lists to an S3-compatible bucket
type DocumentStore struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewDocumentStore builds the S3 client from config. Static keys are used when
// given, otherwise the default AWS credential chain.
func NewDocumentStore(ctx context.Context, cfg config.DocumentsConfig) (*DocumentStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("configure document storage: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	log.Printf("[Documents] Archiving prints to bucket %s", cfg.Bucket)
	return NewDocumentStoreWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func NewDocumentStoreWithClient(client ObjectPutter, bucket, prefix string) *DocumentStore {
	return &DocumentStore{client: client, bucket: bucket, prefix: prefix}
}

// ObjectKey names the archived copy of one print, e.g. prints/<order>/label-20250101-101500.pdf
func (d *DocumentStore) ObjectKey(orderID, kind string, at time.Time) string {
	prefix := d.prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%s%s/%s-%s.pdf", prefix, orderID, kind, timeutil.FormatLocal(at, "20060102-150405"))
}

// PutPDF uploads one document and returns its object key
func (d *DocumentStore) PutPDF(ctx context.Context, orderID, kind string, data []byte) (string, error) {
	key := d.ObjectKey(orderID, kind, timeutil.Now())
	_, err := d.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}
