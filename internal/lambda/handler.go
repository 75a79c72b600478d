package lambda

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stahnma/gh-orgstars/internal/commands"
	"go.uber.org/zap"
)

// Event is the Lambda input. An empty Organization exports the configured
// default.
type Event struct {
	Organization string `json:"organization"`
}

// Uploader is the part of the S3 client the handler uses.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewUploader builds the S3 client for region.
func NewUploader(ctx context.Context, region string) (Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// NewHandler returns a Lambda handler function that exports an organization
// and uploads the JSON to S3. newUploader is called once per invocation.
func NewHandler(app *commands.App, newUploader func(ctx context.Context, region string) (Uploader, error)) func(context.Context, Event) (string, error) {
	return func(ctx context.Context, event Event) (string, error) {
		org := strings.TrimSpace(event.Organization)
		if org == "" {
			org = app.Config.Organization
		}

		s3Bucket := app.Config.S3BucketName
		s3ObjectKey := app.Config.S3ObjectKey
		if s3Bucket == "" || s3ObjectKey == "" {
			return "", fmt.Errorf("S3_BUCKET_NAME and S3_OBJECT_KEY must be set")
		}

		var buf bytes.Buffer
		if err := app.ExportJSON(ctx, &buf, org, false); err != nil {
			return "", fmt.Errorf("export: %w", err)
		}
		if buf.Len() == 0 {
			return "", fmt.Errorf("export command produced no output")
		}

		s3ObjectKey = objectKey(s3ObjectKey, time.Now())

		uploader, err := newUploader(ctx, app.Config.AWSRegion)
		if err != nil {
			return "", err
		}

		_, err = uploader.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s3Bucket),
			Key:         aws.String(s3ObjectKey),
			Body:        bytes.NewReader(buf.Bytes()),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return "", fmt.Errorf("failed to upload file to S3: %w", err)
		}

		app.Logger.Info("export uploaded",
			zap.String("organization", org),
			zap.String("bucket", s3Bucket),
			zap.String("key", s3ObjectKey))
		return fmt.Sprintf("Exported %s to s3://%s/%s", org, s3Bucket, s3ObjectKey), nil
	}
}

// objectKey fills a single %s in key with the date.
func objectKey(key string, now time.Time) string {
	if strings.Count(key, "%s") != 1 {
		return key
	}
	return fmt.Sprintf(key, now.Format("2006-Jan-02"))
}
