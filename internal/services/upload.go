package services

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"roastme-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const uploadURLTTL = 5 * time.Minute

// UploadService issues pre-signed S3 URLs for roast images
type UploadService struct {
	presigner *s3.PresignClient
	bucket    string
	region    string
	publicURL string
}

// NewUploadService creates a new upload service
func NewUploadService(ctx context.Context, cfg config.AWSConfig) (*UploadService, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("aws.s3_bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &UploadService{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
		region:    cfg.Region,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}, nil
}

// UploadRequest represents a request to get a pre-signed URL
type UploadRequest struct {
	Filename    string `json:"filename" validate:"max=255"`
	ContentType string `json:"content_type" validate:"required"`
}

// UploadResponse carries the pre-signed PUT URL and the image URL to submit
// with a roast or story once the upload finishes
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	ImageURL  string `json:"image_url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in"`
}

// Presign generates a pre-signed URL for uploading one image
func (s *UploadService) Presign(ctx context.Context, req UploadRequest, fingerprint string) (*UploadResponse, error) {
	req.ContentType = strings.ToLower(strings.TrimSpace(req.ContentType))
	if err := validateInput(req); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(req.ContentType, "image/") {
		return nil, &ValidationError{Field: "content_type", Message: "must be an image type"}
	}

	key := fmt.Sprintf("roasts/%s%s", uuid.New().String(), imageExtension(req.Filename, req.ContentType))

	request, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(req.ContentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLTTL
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	log.Debug().Str("key", key).Str("fingerprint", fingerprint).Msg("Upload URL issued")

	return &UploadResponse{
		UploadURL: request.URL,
		ImageURL:  s.objectURL(key),
		Key:       key,
		ExpiresIn: int(uploadURLTTL.Seconds()),
	}, nil
}

func (s *UploadService) objectURL(key string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// imageExtension prefers the filename's extension and falls back to the
// content type
func imageExtension(filename, contentType string) string {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" && len(ext) <= 6 {
		return ext
	}
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
