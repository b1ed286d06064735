// Package crm hands finished quotations to the external CRM / document
// generation webhook.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type Client struct {
	url        string
	token      string
	httpClient *http.Client
	newBackOff func() backoff.BackOff
	logger     *zap.Logger
}

// Receipt is the webhook's answer. Both fields are optional.
type Receipt struct {
	ID          string `json:"id"`
	DocumentURL string `json:"document_url"`
}

// StatusError is a non-2xx webhook reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.Code, e.Body)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBackOff replaces the retry policy used for every submission.
func WithBackOff(f func() backoff.BackOff) Option {
	return func(c *Client) { c.newBackOff = f }
}

func NewClient(url, token string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		url:   url,
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = time.Minute
			return b
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit POSTs the payload as JSON. Network errors, 429 and 5xx replies are
// retried with exponential backoff; other 4xx replies fail at once.
func (c *Client) Submit(ctx context.Context, payload any) (*Receipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var receipt *Receipt
	attempt := 0
	err = backoff.RetryNotify(
		func() error {
			attempt++
			r, err := c.post(ctx, body)
			if err != nil {
				var se *StatusError
				if errors.As(err, &se) && se.Code < 500 && se.Code != http.StatusTooManyRequests {
					return backoff.Permanent(err)
				}
				return err
			}
			receipt = r
			return nil
		},
		backoff.WithContext(c.newBackOff(), ctx),
		func(err error, next time.Duration) {
			c.logger.Warn("CRM submission failed, retrying...",
				zap.Int("attempt", attempt),
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("submit quotation: %w", err)
	}
	return receipt, nil
}

func (c *Client) post(ctx context.Context, body []byte) (*Receipt, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	var receipt Receipt
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &receipt); err != nil {
			c.logger.Debug("CRM reply is not JSON", zap.Int("status", resp.StatusCode))
		}
	}
	return &receipt, nil
}
