// Package client posts chat queries to the recipe backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrRequestFailed covers every way a chat request can fail: transport errors,
// timeouts, non-2xx statuses and undecodable bodies.
var ErrRequestFailed = errors.New("chat request failed")

const maxResponseBytes = 1 << 20

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Response *string `json:"response"`
}

// Client is the HTTP chat client.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a client for endpoint. A zero timeout waits for the server indefinitely.
func New(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string { return c.endpoint }

// Send posts query and returns the server's response text.
func (c *Client) Send(ctx context.Context, query string) (string, error) {
	start := time.Now()
	reply, err := c.send(ctx, query)
	if err != nil {
		c.logger.Warn("chat request failed",
			zap.String("endpoint", c.endpoint),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	c.logger.Debug("chat request done",
		zap.String("endpoint", c.endpoint),
		zap.Int("reply_len", len(reply)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reply, nil
}

func (c *Client) send(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(chatRequest{Query: query})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Response == nil {
		return "", errors.New("response field missing")
	}
	return *out.Response, nil
}
