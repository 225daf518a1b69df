// Package iplookup resolves the signer's public IP through an external lookup service.
package iplookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"esign-canvas/internal/config"
)

// Unknown is reported whenever the address cannot be determined.
const Unknown = "unknown"

const maxResponseBytes = 1024

var Module = fx.Module("iplookup",
	fx.Provide(NewClient),
)

// Resolver returns the public IP for a request. It never fails: lookup errors degrade to
// the request's client IP and then to Unknown.
type Resolver interface {
	PublicIP(ctx context.Context, clientIP string) string
}

// Client calls the configured lookup URL, which answers either plain text or {"ip": "..."}.
type Client struct {
	config     *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *config.Config, logger *zap.Logger) Resolver {
	timeout := cfg.Metadata.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) PublicIP(ctx context.Context, clientIP string) string {
	fallback := strings.TrimSpace(clientIP)
	if fallback == "" {
		fallback = Unknown
	}

	if !c.config.Metadata.Enabled || c.config.Metadata.IPLookupURL == "" {
		c.logger.Debug("IP lookup disabled, using client address", zap.String("ip", fallback))
		return fallback
	}

	ip, err := c.lookup(ctx)
	if err != nil {
		c.logger.Warn("IP lookup failed, using client address",
			zap.String("fallback", fallback),
			zap.Error(err),
		)
		return fallback
	}
	return ip
}

func (c *Client) lookup(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Metadata.IPLookupURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send lookup request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read lookup response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("lookup request failed: status=%d", resp.StatusCode)
	}

	return parseIP(body)
}

func parseIP(body []byte) (string, error) {
	text := strings.TrimSpace(string(body))
	if strings.HasPrefix(text, "{") {
		var payload struct {
			IP string `json:"ip"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", fmt.Errorf("failed to parse lookup response: %w", err)
		}
		text = strings.TrimSpace(payload.IP)
	}
	if text == "" {
		return "", fmt.Errorf("lookup response has no address")
	}
	return text, nil
}
