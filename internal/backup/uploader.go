package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/BruksfildServices01/courier-manager/internal/models"
)

// Uploader pushes one serialized snapshot to a connection's destination.
type Uploader interface {
	Upload(ctx context.Context, conn models.DatabaseConnection, name string, payload []byte) error
}

// --------------------------------------------------
// S3
// --------------------------------------------------

// PutObjectAPI is the subset of *s3.Client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader reads the destination from the connection: endpointUrl is
// "<scheme>://<host>/<bucket>[/<prefix>]" and apiKey is "ACCESS_KEY:SECRET_KEY".
// Works with AWS and S3-compatible services (path-style addressing).
type S3Uploader struct {
	region    string
	newClient func(endpoint, access, secret string) PutObjectAPI
}

func NewS3Uploader(region string) *S3Uploader {
	return &S3Uploader{region: region, newClient: defaultS3Client(region)}
}

func defaultS3Client(region string) func(endpoint, access, secret string) PutObjectAPI {
	return func(endpoint, access, secret string) PutObjectAPI {
		return s3.New(s3.Options{
			Region:       region,
			Credentials:  credentials.NewStaticCredentialsProvider(access, secret, ""),
			BaseEndpoint: aws.String(endpoint),
			UsePathStyle: true,
		})
	}
}

type s3Target struct {
	endpoint string
	bucket   string
	prefix   string
}

func parseS3Target(raw string) (s3Target, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return s3Target{}, fmt.Errorf("invalid endpoint: %w", err)
	}
	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if u.Host == "" || parts[0] == "" {
		return s3Target{}, fmt.Errorf("endpoint must be <host>/<bucket>[/<prefix>]")
	}
	t := s3Target{
		endpoint: u.Scheme + "://" + u.Host,
		bucket:   parts[0],
	}
	if len(parts) == 2 {
		t.prefix = parts[1]
	}
	return t, nil
}

func (u *S3Uploader) Upload(ctx context.Context, conn models.DatabaseConnection, name string, payload []byte) error {
	target, err := parseS3Target(conn.EndpointURL)
	if err != nil {
		return err
	}
	access, secret, ok := strings.Cut(conn.APIKey, ":")
	if !ok || access == "" || secret == "" {
		return fmt.Errorf("apiKey must be ACCESS_KEY:SECRET_KEY")
	}

	client := u.newClient(target.endpoint, access, secret)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(target.bucket),
		Key:           aws.String(path.Join(target.prefix, name)),
		Body:          bytes.NewReader(payload),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(payload))),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// --------------------------------------------------
// Webhook
// --------------------------------------------------

type WebhookUploader struct {
	client *http.Client
}

func NewWebhookUploader(client *http.Client) *WebhookUploader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebhookUploader{client: client}
}

func (u *WebhookUploader) Upload(ctx context.Context, conn models.DatabaseConnection, name string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, conn.EndpointURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Backup-Name", name)
	if conn.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+conn.APIKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
