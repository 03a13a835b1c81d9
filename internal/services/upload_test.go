package services

import (
	"context"
	"strings"
	"testing"

	"roastme-backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUploadService(t *testing.T, publicURL string) *UploadService {
	t.Helper()
	svc, err := NewUploadService(context.Background(), config.AWSConfig{
		Region:    "us-east-1",
		S3Bucket:  "roasts",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
		Endpoint:  "http://localhost:9000",
		PublicURL: publicURL,
	})
	require.NoError(t, err)
	return svc
}

func TestPresign(t *testing.T) {
	svc := newTestUploadService(t, "https://cdn.example.com/")

	resp, err := svc.Presign(context.Background(), UploadRequest{
		Filename:    "Selfie.PNG",
		ContentType: "image/png",
	}, "fp")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Key, "roasts/"))
	assert.True(t, strings.HasSuffix(resp.Key, ".png"))
	assert.True(t, strings.HasPrefix(resp.UploadURL, "http://localhost:9000/roasts/"+resp.Key))
	assert.Contains(t, resp.UploadURL, "X-Amz-Signature=")
	assert.Equal(t, "https://cdn.example.com/"+resp.Key, resp.ImageURL)
	assert.Equal(t, 300, resp.ExpiresIn)
}

func TestPresign_DefaultObjectURL(t *testing.T) {
	svc := newTestUploadService(t, "")

	resp, err := svc.Presign(context.Background(), UploadRequest{ContentType: "image/jpeg"}, "fp")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(resp.Key, ".jpg"))
	assert.Equal(t, "https://roasts.s3.us-east-1.amazonaws.com/"+resp.Key, resp.ImageURL)
}

func TestPresign_RejectsNonImages(t *testing.T) {
	svc := newTestUploadService(t, "")

	for _, ct := range []string{"", "application/pdf", "text/html"} {
		_, err := svc.Presign(context.Background(), UploadRequest{ContentType: ct}, "fp")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, ct)
		assert.Equal(t, "content_type", verr.Field)
	}
}

func TestNewUploadService_RequiresBucket(t *testing.T) {
	_, err := NewUploadService(context.Background(), config.AWSConfig{Region: "us-east-1"})
	assert.Error(t, err)
}
