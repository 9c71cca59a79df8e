package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nutrition-tracker-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadURLExpiry = 5 * time.Minute

// ErrUnsupportedContentType is returned for photo types that cannot be uploaded
var ErrUnsupportedContentType = errors.New("unsupported content type")

// PhotoService issues upload URLs for meal photos
type PhotoService struct {
	presigner *s3.PresignClient
	bucket    string
	baseURL   string
}

// NewPhotoService creates a new photo service
func NewPhotoService(ctx context.Context, cfg config.AWSConfig) (*PhotoService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
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

	return &PhotoService{
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.S3Bucket,
		baseURL:   publicBaseURL(cfg),
	}, nil
}

// UploadRequest represents a request for a photo upload URL
type UploadRequest struct {
	ContentType string `json:"content_type"`
}

// UploadResponse carries the pre-signed URL and the image reference to
// analyze once the upload is done
type UploadResponse struct {
	UploadURL string `json:"upload_url"`
	ImageURL  string `json:"image_url"`
	ExpiresIn int    `json:"expires_in"`
}

// GetUploadURL generates a pre-signed PUT URL for a meal photo
func (s *PhotoService) GetUploadURL(ctx context.Context, userID, contentType string) (*UploadResponse, error) {
	if contentType == "" {
		contentType = "image/jpeg"
	}
	ext, ok := photoExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedContentType, contentType)
	}

	key := fmt.Sprintf("meals/%s/%s.%s", userID, uuid.New().String(), ext)

	request, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLExpiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate pre-signed URL: %w", err)
	}

	return &UploadResponse{
		UploadURL: request.URL,
		ImageURL:  s.baseURL + "/" + key,
		ExpiresIn: int(uploadURLExpiry.Seconds()),
	}, nil
}

var photoExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
}

func publicBaseURL(cfg config.AWSConfig) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.S3Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.Region)
	}
}
