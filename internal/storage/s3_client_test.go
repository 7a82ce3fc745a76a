package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), S3Config{
		Region:     "us-east-1",
		Bucket:     "studio-uploads",
		AccessKey:  "AKIDEXAMPLE",
		SecretKey:  "secret",
		Endpoint:   "http://localhost:9000",
		PublicBase: "https://cdn.example.com/",
		PresignTTL: 5 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestValidateImage(t *testing.T) {
	cases := []struct {
		contentType string
		size        int64
		want        error
	}{
		{"image/png", 1024, nil},
		{"IMAGE/JPEG", 1024, nil},
		{"application/pdf", 1024, ErrInvalidContentType},
		{"image/png", 0, ErrInvalidSize},
		{"image/png", MaxImageBytes + 1, ErrInvalidSize},
	}
	for _, tc := range cases {
		if err := ValidateImage(tc.contentType, tc.size); !errors.Is(err, tc.want) {
			t.Fatalf("ValidateImage(%q, %d): want=%v got=%v", tc.contentType, tc.size, tc.want, err)
		}
	}
}

func TestPresignImage(t *testing.T) {
	c := newTestClient(t)
	room := uuid.New()

	up, err := c.PresignImage(context.Background(), room, "image/png", 2048)
	if err != nil {
		t.Fatalf("PresignImage: %v", err)
	}

	prefix := "rooms/" + room.String() + "/"
	if !strings.HasPrefix(up.Key, prefix) || !strings.HasSuffix(up.Key, ".png") {
		t.Fatalf("unexpected key %q", up.Key)
	}
	if up.FileURL != "https://cdn.example.com/"+up.Key {
		t.Fatalf("unexpected file url %q", up.FileURL)
	}
	if up.Headers["Content-Type"] != "image/png" || up.Headers["Content-Length"] != "2048" {
		t.Fatalf("unexpected headers %v", up.Headers)
	}

	u, err := url.Parse(up.UploadURL)
	if err != nil {
		t.Fatalf("parse upload url: %v", err)
	}
	if u.Host != "localhost:9000" {
		t.Fatalf("upload host: want=localhost:9000 got=%s", u.Host)
	}
	if u.Query().Get("X-Amz-Signature") == "" {
		t.Fatal("upload url is not signed")
	}
}

func TestPresignImageRejectsNonImage(t *testing.T) {
	c := newTestClient(t)
	if _, err := c.PresignImage(context.Background(), uuid.New(), "text/html", 10); !errors.Is(err, ErrInvalidContentType) {
		t.Fatalf("want ErrInvalidContentType got %v", err)
	}
}

func TestNilClient(t *testing.T) {
	var c *Client
	if _, err := c.PresignImage(context.Background(), uuid.New(), "image/png", 10); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured got %v", err)
	}
}
