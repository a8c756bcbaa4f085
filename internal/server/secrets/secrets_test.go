package secrets

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/eeye/internal/server/config"
)

type fakeObjects struct {
	body   string
	err    error
	bucket string
	key    string
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func stubAWS(t *testing.T, objects *fakeObjects, loadErr error) *s3.Options {
	t.Helper()

	origLoad := loadDefaultAWSConfig
	origClient := newObjectClient
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newObjectClient = origClient
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		if loadErr != nil {
			return aws.Config{}, loadErr
		}
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		return aws.Config{Region: lo.Region}, nil
	}

	var captured s3.Options
	newObjectClient = func(cfg aws.Config, optFns ...func(*s3.Options)) objectGetter {
		for _, fn := range optFns {
			fn(&captured)
		}
		return objects
	}
	return &captured
}

func s3Config() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.S3Bucket = "eeye-secrets"
	cfg.S3BaseEndpoint = "http://127.0.0.1:9000"
	cfg.S3AccessKey = "minio"
	cfg.S3SecretAccessKey = "minio123"
	return cfg
}

func TestResolve_FromS3(t *testing.T) {
	objects := &fakeObjects{body: "  s3-signing-key\n"}
	opts := stubAWS(t, objects, nil)

	secret, err := Resolve(context.Background(), s3Config())
	require.NoError(t, err)

	assert.Equal(t, []byte("s3-signing-key"), secret.Key)
	assert.Equal(t, SourceS3, secret.Source)
	assert.False(t, secret.Insecure())
	assert.Equal(t, "eeye-secrets", objects.bucket)
	assert.Equal(t, "eeye/secret_key", objects.key)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestResolve_S3Errors(t *testing.T) {
	t.Run("empty object", func(t *testing.T) {
		stubAWS(t, &fakeObjects{body: " \n"}, nil)
		_, err := Resolve(context.Background(), s3Config())
		assert.ErrorIs(t, err, ErrEmptySecret)
	})

	t.Run("get object fails", func(t *testing.T) {
		boom := errors.New("no such key")
		stubAWS(t, &fakeObjects{err: boom}, nil)
		_, err := Resolve(context.Background(), s3Config())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("aws config fails", func(t *testing.T) {
		boom := errors.New("load-fail")
		stubAWS(t, &fakeObjects{}, boom)
		_, err := Resolve(context.Background(), s3Config())
		assert.ErrorIs(t, err, boom)
	})
}

func TestResolve_ConfiguredKey(t *testing.T) {
	cfg := &config.Config{SecretKey: "configured"}

	secret, err := Resolve(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, []byte("configured"), secret.Key)
	assert.Equal(t, SourceConfig, secret.Source)
}

func TestResolve_Fallback(t *testing.T) {
	for _, key := range []string{"", config.InsecureSecretKey} {
		secret, err := Resolve(context.Background(), &config.Config{SecretKey: key})
		require.NoError(t, err)
		assert.Equal(t, []byte(config.InsecureSecretKey), secret.Key)
		assert.True(t, secret.Insecure())
	}
}
