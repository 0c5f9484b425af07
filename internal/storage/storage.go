// Package storage uploads ciphertext frames to an S3-compatible content
// gateway and hands back the locator that gets committed on chain.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/Nkovaturient/blocklock-kit/internal/config"
	"github.com/Nkovaturient/blocklock-kit/internal/logging"
)

// Seams for tests; production code never reassigns these.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ObjectAPI is the slice of the S3 client the gateway uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Gateway stores and retrieves opaque ciphertext blobs. Locators have the
// form s3://<bucket>/<key>; the key is random, so the locator carries no
// information about the plaintext.
type Gateway struct {
	client    ObjectAPI
	presigner *s3.PresignClient
	bucket    string
	log       logging.Logger
}

// NewGateway wraps an existing object client. Most callers use Connect.
func NewGateway(client ObjectAPI, bucket string, log logging.Logger) *Gateway {
	return &Gateway{client: client, bucket: bucket, log: log}
}

// Connect builds a gateway from config, pointing the SDK at the configured
// MinIO-style endpoint with static credentials.
func Connect(ctx context.Context, cfg *config.Config, log logging.Logger) (*Gateway, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	g := NewGateway(client, cfg.S3Bucket, log)
	g.presigner = s3.NewPresignClient(client)
	return g, nil
}

// RandomObjectKey buckets objects by day so gateway listings stay navigable.
func RandomObjectKey() string {
	d := time.Now()
	return fmt.Sprintf("releases/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

// Upload stores frame under a fresh random key and returns its locator.
func (g *Gateway) Upload(ctx context.Context, frame []byte) (string, error) {
	key := RandomObjectKey()

	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(frame),
	})
	if err != nil {
		return "", fmt.Errorf("upload object: %w", err)
	}

	locator := fmt.Sprintf("s3://%s/%s", g.bucket, key)
	g.log.Debug(ctx, "uploaded ciphertext", "locator", locator, "size", len(frame))
	return locator, nil
}

// Fetch retrieves the blob a locator points at.
func (g *Gateway) Fetch(ctx context.Context, locator string) ([]byte, error) {
	bucket, key, err := ParseLocator(locator)
	if err != nil {
		return nil, err
	}

	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}

// PresignGet returns a time-limited direct-download URL for a locator, so
// revealed content can be shared without handing out gateway credentials.
func (g *Gateway) PresignGet(ctx context.Context, locator string, ttl time.Duration) (string, error) {
	if g.presigner == nil {
		return "", errors.New("presigning is not available for this gateway")
	}

	bucket, key, err := ParseLocator(locator)
	if err != nil {
		return "", err
	}

	req, err := presignGetObject(g.presigner, ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// ParseLocator splits an s3://bucket/key locator.
func ParseLocator(locator string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(locator, "s3://")
	if !ok {
		return "", "", fmt.Errorf("unsupported locator %q", locator)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed locator %q", locator)
	}
	return bucket, key, nil
}
