package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"uniform-studio/pkg/logger"

	"go.uber.org/zap"
)

// Client asks the external payment gateway for a checkout URL.
type Client interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type PaymentRequest struct {
	OrderID     string `json:"orderId"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	OrderType   string `json:"orderType"`
	ReturnURL   string `json:"returnUrl"`
}

type PaymentResult struct {
	URL string `json:"url"`
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 1000 {
		msg = msg[:1000] + "..."
	}
	return fmt.Sprintf("payment gateway http %d: %s", e.StatusCode, msg)
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("missing PAYMENT_GATEWAY_URL")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &client{
		log:        log,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// CreatePayment is sent once. A failed call is surfaced, never retried, so an order
// can't be charged twice.
func (c *client) CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/payments", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.WithContext(ctx).Warn("payment gateway request failed", zap.String("order_id", req.OrderID), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out PaymentResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	if strings.TrimSpace(out.URL) == "" {
		return nil, errors.New("payment gateway returned no url")
	}
	return &out, nil
}
