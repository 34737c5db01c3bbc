// Package razorpay is the REST client for the Razorpay orders, payments and refunds API.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	"github.com/manan0901/Vibecoder-sub000/internal/middleware"
)

// Client talks to the gateway with HTTP basic auth (key id / key secret).
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

var _ external.PaymentGateway = (*Client)(nil)

// NewClient builds a client. timeout bounds every request; per-call deadlines from the
// caller's context still apply.
func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type orderBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt,omitempty"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type refundBody struct {
	Amount int64             `json:"amount"`
	Notes  map[string]string `json:"notes,omitempty"`
}

type errorEnvelope struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) CreateOrder(ctx context.Context, req external.CreateOrderRequest) (*external.GatewayOrder, error) {
	var order external.GatewayOrder
	body := orderBody{Amount: req.Amount, Currency: req.Currency, Receipt: req.Receipt, Notes: req.Notes}
	if err := c.do(ctx, http.MethodPost, "/v1/orders", body, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*external.GatewayPayment, error) {
	var payment external.GatewayPayment
	if err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (c *Client) Refund(ctx context.Context, req external.RefundRequest) (*external.GatewayRefund, error) {
	var refund external.GatewayRefund
	path := "/v1/payments/" + url.PathEscape(req.PaymentID) + "/refund"
	if err := c.do(ctx, http.MethodPost, path, refundBody{Amount: req.Amount, Notes: req.Notes}, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return apperrors.NewAppError(http.StatusInternalServerError, "failed to encode gateway request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to build gateway request", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Gateway request failed", slog.String("method", method), slog.String("path", path), slog.String("error", err.Error()))
		return apperrors.NewGatewayError("payment gateway unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.NewGatewayError("failed to read gateway response", err)
	}
	logger.Debug("Gateway request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	switch {
	case resp.StatusCode >= 500:
		return apperrors.NewGatewayError("payment gateway error", fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode))
	case resp.StatusCode >= 400:
		return rejection(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperrors.NewGatewayError("malformed gateway response", err)
	}
	return nil
}

// rejection turns a 4xx body into an error matching external.ErrGatewayRejected.
func rejection(status int, raw []byte) error {
	var env errorEnvelope
	_ = json.Unmarshal(raw, &env)
	code := env.Error.Code
	if code == "" {
		code = http.StatusText(status)
	}
	if env.Error.Description != "" {
		return fmt.Errorf("%s: %s: %w", code, env.Error.Description, external.ErrGatewayRejected)
	}
	return fmt.Errorf("%s: %w", code, external.ErrGatewayRejected)
}
