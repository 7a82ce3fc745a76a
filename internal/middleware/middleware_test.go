package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"uniform-studio/internal/redis"
	"uniform-studio/internal/services"
	studio_errors "uniform-studio/pkg/errors"
	"uniform-studio/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type fakeParser struct {
	claims services.AccessClaims
}

func (p fakeParser) ParseAccessToken(token string) (services.AccessClaims, error) {
	if token != "good" {
		return services.AccessClaims{}, studio_errors.ErrUnauthorized
	}
	return p.claims, nil
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (l *fakeLimiter) result() (*redis.RateLimitResult, error) {
	if l.err != nil {
		return nil, l.err
	}
	remaining := 4
	if !l.allowed {
		remaining = 0
	}
	return &redis.RateLimitResult{Allowed: l.allowed, Remaining: remaining, ResetIn: 30 * time.Second, Limit: 5}, nil
}

func (l *fakeLimiter) AllowMessage(ctx context.Context, schoolID string) (*redis.RateLimitResult, error) {
	l.keys = append(l.keys, schoolID)
	return l.result()
}

func (l *fakeLimiter) AllowAuth(ctx context.Context, ip string) (*redis.RateLimitResult, error) {
	l.keys = append(l.keys, ip)
	return l.result()
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	schoolID := uuid.New()
	parser := fakeParser{claims: services.AccessClaims{SchoolID: schoolID.String(), Email: "a@school.test", Name: "A"}}

	r := gin.New()
	r.GET("/me", AuthMiddleware(parser), func(c *gin.Context) {
		id, ok := services.IdentityFromContext(c.Request.Context())
		if !ok || id.SchoolID != schoolID || id.Email != "a@school.test" {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})

	cases := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{name: "bearer header", header: "Bearer good", want: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", want: http.StatusOK},
		{name: "token query", query: "?token=good", want: http.StatusOK},
		{name: "missing", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if rec := serve(r, req); rec.Code != tc.want {
				t.Fatalf("status: want=%d got=%d", tc.want, rec.Code)
			}
		})
	}
}

func TestAuthMiddlewareRejectsClaimsWithoutEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	parser := fakeParser{claims: services.AccessClaims{SchoolID: uuid.NewString()}}

	r := gin.New()
	r.GET("/me", AuthMiddleware(parser), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	if rec := serve(r, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}
}

func TestAuthRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		limiter *fakeLimiter
		want    int
	}{
		{name: "allowed", limiter: &fakeLimiter{allowed: true}, want: http.StatusOK},
		{name: "denied", limiter: &fakeLimiter{allowed: false}, want: http.StatusTooManyRequests},
		{name: "limiter down", limiter: &fakeLimiter{err: errors.New("redis down")}, want: http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/login", AuthRateLimitMiddleware(tc.limiter), func(c *gin.Context) { c.Status(http.StatusOK) })

			rec := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
			if rec.Code != tc.want {
				t.Fatalf("status: want=%d got=%d", tc.want, rec.Code)
			}
			if tc.limiter.err == nil && rec.Header().Get("X-RateLimit-Limit") != "5" {
				t.Fatalf("missing rate limit headers: %v", rec.Header())
			}
		})
	}
}

func TestMessageRateLimitKeysBySchool(t *testing.T) {
	gin.SetMode(gin.TestMode)
	schoolID := uuid.New()
	limiter := &fakeLimiter{allowed: true}
	parser := fakeParser{claims: services.AccessClaims{SchoolID: schoolID.String(), Email: "a@school.test"}}

	r := gin.New()
	r.POST("/messages", AuthMiddleware(parser), MessageRateLimitMiddleware(limiter), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/messages", nil)
	req.Header.Set("Authorization", "Bearer good")
	if rec := serve(r, req); rec.Code != http.StatusCreated {
		t.Fatalf("status: want=%d got=%d", http.StatusCreated, rec.Code)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != schoolID.String() {
		t.Fatalf("limiter keys: want=[%s] got=%v", schoolID, limiter.keys)
	}

	unauth := gin.New()
	unauth.POST("/messages", MessageRateLimitMiddleware(limiter), func(c *gin.Context) { c.Status(http.StatusCreated) })
	if rec := serve(unauth, httptest.NewRequest(http.MethodPost, "/messages", nil)); rec.Code != http.StatusUnauthorized {
		t.Fatalf("without school: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		id, _ := c.Request.Context().Value(logger.RequestIdKey).(string)
		c.String(http.StatusOK, id)
	})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	if len(generated) != 32 || rec.Body.String() != generated {
		t.Fatalf("generated id: header=%q body=%q", generated, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	if got := serve(r, req).Header().Get(RequestIDHeader); got != "client-supplied" {
		t.Fatalf("kept id: want=%q got=%q", "client-supplied", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 65))
	if got := serve(r, req).Header().Get(RequestIDHeader); len(got) != 32 {
		t.Fatalf("oversized id should be replaced, got %q", got)
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	r.GET("/v1/requests", func(c *gin.Context) { c.Status(http.StatusOK) })

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/v1/requests", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		return serve(r, req)
	}

	rec := preflight("http://localhost:3000")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("allowed preflight: want=%d got=%d", http.StatusNoContent, rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow-origin: want=%q got=%q", "http://localhost:3000", got)
	}

	if rec := preflight("http://evil.test"); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign preflight: want=%d got=%d", http.StatusForbidden, rec.Code)
	}
}

func TestErrorHandlerRendersAttachedError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(logger.NewNop()))
	r.GET("/missing", func(c *gin.Context) { _ = c.Error(studio_errors.ErrNotFound) })
	r.GET("/written", func(c *gin.Context) {
		c.String(http.StatusTeapot, "short and stout")
		_ = c.Error(errors.New("boom"))
	})

	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/missing", nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("attached error: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
	if rec := serve(r, httptest.NewRequest(http.MethodGet, "/written", nil)); rec.Code != http.StatusTeapot {
		t.Fatalf("written response: want=%d got=%d", http.StatusTeapot, rec.Code)
	}
}
