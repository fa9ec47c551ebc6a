package config

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/navintent/internal/errors"
)

// maxRemoteConfigSize bounds how much of a remote object is read.
const maxRemoteConfigSize = 1 << 20

// ObjectGetter is the subset of *s3.Client used to fetch configuration.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// IsRemote reports whether location addresses an S3 object.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "s3://")
}

// ParseS3URI splits s3://bucket/key into its parts.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, perr := url.Parse(uri)
	if perr != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", errors.New("E151").WithDetail("Cannot parse " + uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", errors.New("E151").WithDetail(uri + " has no object key")
	}
	return u.Host, key, nil
}

// LoadS3 fetches and parses configuration stored at an s3:// URI.
func LoadS3(ctx context.Context, client ObjectGetter, uri string) (*Config, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("E150").
			WithDetail("GetObject " + uri + " failed").
			WithSuggestion("Check the bucket name, key and AWS credentials").
			Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxRemoteConfigSize+1))
	if err != nil {
		return nil, errors.New("E150").WithDetail("Reading " + uri + " failed").Wrap(err)
	}
	if len(data) > maxRemoteConfigSize {
		return nil, errors.New("E150").WithDetail(uri + " is larger than 1 MiB")
	}

	cfg, err := Parse(data, uri)
	if err != nil {
		return nil, err
	}
	cfg.configPath = uri
	return cfg, nil
}

// NewS3Client builds an S3 client from the standard AWS environment
// variables. Without AWS_ACCESS_KEY_ID the client signs nothing, which works
// for public buckets. A non-empty endpoint switches to path-style addressing
// for S3-compatible stores.
func NewS3Client(region, endpoint string) *s3.Client {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	cfg := aws.Config{Region: region}
	if os.Getenv("AWS_ACCESS_KEY_ID") != "" {
		cfg.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials))
	} else {
		cfg.Credentials = aws.AnonymousCredentials{}
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

func envCredentials(context.Context) (aws.Credentials, error) {
	return aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "navintent-env",
	}, nil
}
