package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nkovaturient/blocklock-kit/internal/config"
	"github.com/Nkovaturient/blocklock-kit/internal/logging"
)

type fakeObjectAPI struct {
	objects map[string][]byte
	putErr  error
	getErr  error
	lastKey string
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{objects: make(map[string][]byte)}
}

func (f *fakeObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.lastKey = *params.Key
	f.objects[*params.Bucket+"/"+*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[*params.Bucket+"/"+*params.Key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestGateway_UploadFetchRoundTrip(t *testing.T) {
	api := newFakeObjectAPI()
	g := NewGateway(api, "releases", logging.Nop())
	ctx := context.Background()

	frame := []byte("opaque ciphertext frame")
	locator, err := g.Upload(ctx, frame)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(locator, "s3://releases/releases/"), locator)
	assert.Contains(t, locator, api.lastKey)

	got, err := g.Fetch(ctx, locator)
	require.NoError(t, err)
	assert.Equal(t, frame, got)
}

func TestGateway_UploadKeysAreUnique(t *testing.T) {
	api := newFakeObjectAPI()
	g := NewGateway(api, "releases", logging.Nop())
	ctx := context.Background()

	loc1, err := g.Upload(ctx, []byte("a"))
	require.NoError(t, err)
	loc2, err := g.Upload(ctx, []byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, loc1, loc2)
}

func TestGateway_UploadError(t *testing.T) {
	api := newFakeObjectAPI()
	api.putErr = errors.New("gateway down")
	g := NewGateway(api, "releases", logging.Nop())

	_, err := g.Upload(context.Background(), []byte("x"))
	assert.ErrorContains(t, err, "gateway down")
}

func TestGateway_FetchBadLocator(t *testing.T) {
	g := NewGateway(newFakeObjectAPI(), "releases", logging.Nop())

	_, err := g.Fetch(context.Background(), "https://example.com/x")
	assert.Error(t, err)
}

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name       string
		locator    string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"valid", "s3://b/k/with/slashes", "b", "k/with/slashes", false},
		{"missing scheme", "b/k", "", "", true},
		{"no key", "s3://b", "", "", true},
		{"empty bucket", "s3:///k", "", "", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := ParseLocator(tt.locator)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestConnect_AppliesEndpointAndRegion(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		return aws.Config{}, nil
	}

	var capturedEndpoint string
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		require.NotNil(t, opts.BaseEndpoint)
		capturedEndpoint = *opts.BaseEndpoint
		return &s3.Client{}
	}

	cfg := &config.Config{
		S3Region:       "eu-west-1",
		S3RootUser:     "admin",
		S3RootPassword: "pw",
		S3Bucket:       "releases",
		S3BaseEndpoint: "http://127.0.0.1:9000/",
	}

	g, err := Connect(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)
	require.NotNil(t, g)
	assert.Equal(t, "http://127.0.0.1:9000/", capturedEndpoint)
}

func TestPresignGet(t *testing.T) {
	orig := presignGetObject
	t.Cleanup(func() { presignGetObject = orig })

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		assert.Equal(t, "releases", *in.Bucket)
		assert.Equal(t, "some/key", *in.Key)
		return &v4.PresignedHTTPRequest{URL: "http://signed.example/some/key?sig=abc"}, nil
	}

	g := NewGateway(newFakeObjectAPI(), "releases", logging.Nop())
	g.presigner = s3.NewPresignClient(&s3.Client{})

	url, err := g.PresignGet(context.Background(), "s3://releases/some/key", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "http://signed.example/some/key?sig=abc", url)
}

func TestPresignGet_UnavailableWithoutPresigner(t *testing.T) {
	g := NewGateway(newFakeObjectAPI(), "releases", logging.Nop())

	_, err := g.PresignGet(context.Background(), "s3://releases/k", 15*time.Minute)
	assert.ErrorContains(t, err, "presigning is not available")
}

func TestConnect_ConfigLoadError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := Connect(context.Background(), &config.Config{}, logging.Nop())
	assert.ErrorContains(t, err, "load-fail")
}
