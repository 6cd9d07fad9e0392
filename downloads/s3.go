package downloads

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/MilitaerMilitz/2D-Kailexcraft/fsutil"
)

// S3Options configures access to s3:// pack sources. Empty fields fall back
// to the default AWS credential chain and region resolution.
type S3Options struct {
	Region          string `json:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	AccessKeyID     string `json:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`
}

func (o S3Options) client(ctx context.Context) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if o.Region != "" {
		opts = append(opts, config.WithRegion(o.Region))
	}
	if o.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	}), nil
}

func (c *Client) downloadS3(ctx context.Context, destPath, bucket, key string) error {
	client, err := c.S3.client(ctx)
	if err != nil {
		return err
	}

	obj, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classifyS3Error(bucket, key, err)
	}
	defer obj.Body.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	if _, err := fsutil.CopyContext(ctx, out, obj.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

func (c *Client) s3ContentLength(ctx context.Context, bucket, key string) int64 {
	client, err := c.S3.client(ctx)
	if err != nil {
		return -1
	}
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil || head.ContentLength == nil {
		return -1
	}
	return aws.ToInt64(head.ContentLength)
}

func classifyS3Error(bucket, key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NotFound":
			return fmt.Errorf("s3://%s/%s: %s: %w", bucket, key, apiErr.ErrorCode(), os.ErrNotExist)
		}
		return fmt.Errorf("s3://%s/%s: %s: %s", bucket, key, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return fmt.Errorf("s3://%s/%s: %w", bucket, key, err)
}
