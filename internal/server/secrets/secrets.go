// Package secrets resolves the key used to sign access tokens.
//
// Sources, by priority: an S3 object (when a bucket is configured), the
// configured key, and the insecure development fallback.
package secrets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/eeye/internal/server/config"
)

// Source names where a signing key came from.
type Source string

const (
	SourceS3       Source = "s3"
	SourceConfig   Source = "config"
	SourceFallback Source = "insecure-fallback"
)

// maxSecretSize caps how much of the S3 object is read.
const maxSecretSize = 64 << 10

// ErrEmptySecret is returned when the S3 object holds no key material.
var ErrEmptySecret = errors.New("secret object is empty")

type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// seams for tests
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig
	newObjectClient      = func(cfg aws.Config, optFns ...func(*s3.Options)) objectGetter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Secret is a resolved signing key.
type Secret struct {
	Key    []byte
	Source Source
}

// Insecure reports whether the key is the development fallback.
func (s Secret) Insecure() bool {
	return s.Source == SourceFallback
}

// Resolve picks the signing key for cfg.
func Resolve(ctx context.Context, cfg *config.Config) (Secret, error) {
	if cfg.S3Bucket != "" {
		key, err := fetchFromS3(ctx, cfg)
		if err != nil {
			return Secret{}, fmt.Errorf("load secret from s3://%s/%s: %w", cfg.S3Bucket, cfg.S3SecretObjectKey, err)
		}
		return Secret{Key: key, Source: SourceS3}, nil
	}

	if !cfg.UsesInsecureSecret() {
		return Secret{Key: []byte(cfg.SecretKey), Source: SourceConfig}, nil
	}

	return Secret{Key: []byte(config.InsecureSecretKey), Source: SourceFallback}, nil
}

func fetchFromS3(ctx context.Context, cfg *config.Config) ([]byte, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := newObjectClient(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(cfg.S3Bucket),
		Key:    aws.String(cfg.S3SecretObjectKey),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxSecretSize))
	if err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrEmptySecret
	}
	return data, nil
}
