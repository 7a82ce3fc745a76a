package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// MaxImageBytes bounds a single chat image upload.
const MaxImageBytes = 10 << 20

var (
	ErrNotConfigured      = errors.New("s3 client not initialized")
	ErrInvalidContentType = errors.New("content type must be an image")
	ErrInvalidSize        = errors.New("image size out of range")
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type S3Config struct {
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicBase string
	PresignTTL time.Duration
}

type Client struct {
	cfg     S3Config
	s3      *s3.Client
	presign *s3.PresignClient
}

// ImageUpload is a presigned PUT the browser uploads to directly. FileURL is what
// gets sent as the image message once the upload succeeds.
type ImageUpload struct {
	Key       string            `json:"key"`
	UploadURL string            `json:"upload_url"`
	Headers   map[string]string `json:"headers"`
	FileURL   string            `json:"file_url"`
	ExpiresAt time.Time         `json:"expires_at"`
}

func NewClient(ctx context.Context, cfg S3Config) (*Client, error) {
	if cfg.Region == "" || cfg.Bucket == "" {
		return nil, errors.New("s3 region and bucket are required")
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = 15 * time.Minute
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	endpoint := ""
	if cfg.Endpoint != "" {
		parsed, err := url.Parse(cfg.Endpoint)
		if err != nil || parsed.Host == "" {
			return nil, fmt.Errorf("invalid s3 endpoint %q", cfg.Endpoint)
		}
		endpoint = parsed.String()
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		cfg:     cfg,
		s3:      s3Client,
		presign: s3.NewPresignClient(s3Client),
	}, nil
}

// ImageKey places an upload under the room it belongs to.
func ImageKey(roomID uuid.UUID, contentType string) string {
	return fmt.Sprintf("rooms/%s/%s%s", roomID, uuid.NewString(), allowedImageTypes[contentType])
}

func ValidateImage(contentType string, sizeBytes int64) error {
	if _, ok := allowedImageTypes[strings.ToLower(contentType)]; !ok {
		return ErrInvalidContentType
	}
	if sizeBytes <= 0 || sizeBytes > MaxImageBytes {
		return ErrInvalidSize
	}
	return nil
}

// PresignImage returns a presigned PUT for a chat image in roomID.
func (c *Client) PresignImage(ctx context.Context, roomID uuid.UUID, contentType string, sizeBytes int64) (*ImageUpload, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	contentType = strings.ToLower(contentType)
	if err := ValidateImage(contentType, sizeBytes); err != nil {
		return nil, err
	}

	key := ImageKey(roomID, contentType)
	uploadURL, headers, err := c.PresignPut(ctx, key, contentType, sizeBytes)
	if err != nil {
		return nil, err
	}

	return &ImageUpload{
		Key:       key,
		UploadURL: uploadURL,
		Headers:   headers,
		FileURL:   c.FileURL(key),
		ExpiresAt: time.Now().Add(c.cfg.PresignTTL).UTC(),
	}, nil
}

func (c *Client) PresignPut(ctx context.Context, key, contentType string, sizeBytes int64) (string, map[string]string, error) {
	if c == nil {
		return "", nil, ErrNotConfigured
	}
	if key == "" {
		return "", nil, errors.New("object key is required")
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	if sizeBytes > 0 {
		input.ContentLength = aws.Int64(sizeBytes)
	}

	presigned, err := c.presign.PresignPutObject(ctx, input, func(po *s3.PresignOptions) {
		po.Expires = c.cfg.PresignTTL
	})
	if err != nil {
		return "", nil, err
	}

	headers := map[string]string{}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	if sizeBytes > 0 {
		headers["Content-Length"] = strconv.FormatInt(sizeBytes, 10)
	}

	return presigned.URL, headers, nil
}

// FileURL is the public URL of key. Without a public base it falls back to the
// virtual-hosted S3 address.
func (c *Client) FileURL(key string) string {
	if c == nil || key == "" {
		return ""
	}
	if c.cfg.PublicBase != "" {
		return strings.TrimRight(c.cfg.PublicBase, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.cfg.Bucket, c.cfg.Region, key)
}
