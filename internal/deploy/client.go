package deploy

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/vizsite/internal/errors"
)

// Client is the subset of the S3 API used by the publisher.
type Client interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// ClientOptions configures the S3 client.
type ClientOptions struct {
	// Region is the bucket region. Falls back to AWS_REGION and
	// AWS_DEFAULT_REGION.
	Region string

	// Endpoint points the client at an S3-compatible host. Path-style
	// addressing is used when it is set.
	Endpoint string
}

// NewClient creates an S3 client using credentials from AWS_ACCESS_KEY_ID,
// AWS_SECRET_ACCESS_KEY and the optional AWS_SESSION_TOKEN.
func NewClient(opts ClientOptions) (*s3.Client, error) {
	region := firstNonEmpty(opts.Region, os.Getenv("AWS_REGION"), os.Getenv("AWS_DEFAULT_REGION"))
	if region == "" {
		return nil, errors.New(errors.CodeDeployConfig).
			WithDetail("No region set. Set deploy.region in vizsite.json or AWS_REGION.")
	}

	creds, err := envCredentials()
	if err != nil {
		return nil, err
	}

	s3opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(creds),
	}
	if opts.Endpoint != "" {
		s3opts.BaseEndpoint = aws.String(opts.Endpoint)
		s3opts.UsePathStyle = true
	}
	return s3.New(s3opts), nil
}

// envCredentials reads static credentials from the environment.
func envCredentials() (aws.CredentialsProvider, error) {
	id := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return nil, errors.New(errors.CodeDeployConfig).
			WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set.")
	}
	token := os.Getenv("AWS_SESSION_TOKEN")

	return aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "Environment",
		}, nil
	}), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
