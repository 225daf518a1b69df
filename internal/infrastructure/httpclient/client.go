package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"esign-canvas/internal/config"
	"esign-canvas/internal/domain/entity"
)

const (
	maxBodyLogLength   = 500   // characters of a body written to the request log
	maxStoredBodyBytes = 10000 // characters of a body stored in api_logs
)

// ErrUnauthorized is returned when the backend rejects the forwarded session token.
var ErrUnauthorized = errors.New("unauthorized: backend rejected the session token")

// APIError is a non-2xx response of the backend.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status=%d, body=%s", e.StatusCode, truncateString(e.Body, maxBodyLogLength))
}

func (e *APIError) Unwrap() error {
	return entity.ErrBackend
}

// RequestContext carries per-call identity for auth and audit logging.
type RequestContext struct {
	Token         string // session token forwarded as bearer
	DocumentGroup string
	Actor         string // user id or signer email
}

type HTTPClient interface {
	// Get performs GET request with configured auth method
	Get(ctx context.Context, reqCtx *RequestContext, path string, result interface{}) error
	// Post performs POST request with configured auth method
	Post(ctx context.Context, reqCtx *RequestContext, path string, body interface{}, result interface{}) error
}

// APILogSaver interface for saving API logs
type APILogSaver interface {
	Save(ctx context.Context, log *entity.APILog) error
}

type httpClient struct {
	client        *http.Client
	config        *config.Config
	baseURL       string
	hmacSignature *HMACSignature
	apiLogSaver   APILogSaver
	logger        *zap.Logger
}

func NewHTTPClient(cfg *config.Config, apiLogSaver APILogSaver, logger *zap.Logger) HTTPClient {
	c := &httpClient{
		client: &http.Client{
			Timeout: cfg.Backend.Timeout,
		},
		config:      cfg,
		baseURL:     strings.TrimRight(cfg.Backend.BaseURL, "/"),
		apiLogSaver: apiLogSaver,
		logger:      logger,
	}

	if cfg.Backend.IsHMAC() {
		c.hmacSignature = NewHMACSignature(cfg.Backend.HMAC.ClientID, cfg.Backend.HMAC.ClientSecret)
		logger.Info("HTTP Client initialized with HMAC authentication",
			zap.String("client_id", cfg.Backend.HMAC.ClientID),
		)
	} else {
		logger.Info("HTTP Client initialized with bearer token forwarding")
	}

	return c
}

var base64Pattern = regexp.MustCompile(`"([A-Za-z0-9+/=]{100,})"`)

// truncateString truncates a string if it exceeds maxLength
func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + fmt.Sprintf("... [truncated, total %d chars]", len(s))
}

// truncateBase64InJSON shortens base64-like string values (page rasters, signatures) in a JSON body
func truncateBase64InJSON(jsonStr string, maxLength int) string {
	return base64Pattern.ReplaceAllStringFunc(jsonStr, func(match string) string {
		content := match[1 : len(match)-1]
		if len(content) > maxLength {
			return fmt.Sprintf(`"%s... [base64 truncated, total %d chars]"`, content[:maxLength], len(content))
		}
		return match
	})
}

// formatHeadersForLog formats HTTP headers for logging in "Header Key=Value" format
func formatHeadersForLog(headers http.Header) string {
	var sb strings.Builder
	for key, values := range headers {
		for _, value := range values {
			if key == "Authorization" {
				value = "[redacted]"
			} else if len(value) > 100 {
				value = value[:100] + "..."
			}
			sb.WriteString(fmt.Sprintf("Header %s=%s\n", key, value))
		}
	}
	return sb.String()
}

// logRequest logs the HTTP request details
func (c *httpClient) logRequest(method, url string, headers http.Header, body []byte) {
	var logBuilder strings.Builder

	logBuilder.WriteString("\n>>> [WEBCLIENT-REQ]\n")
	logBuilder.WriteString(fmt.Sprintf("Method: %s\n", method))
	logBuilder.WriteString(fmt.Sprintf("URL: %s\n", url))
	logBuilder.WriteString(fmt.Sprintf("Auth-Type: %s\n", c.config.Backend.AuthType))
	logBuilder.WriteString(formatHeadersForLog(headers))

	if len(body) > 0 {
		bodyStr := truncateBase64InJSON(string(body), 100)
		bodyStr = truncateString(bodyStr, maxBodyLogLength)
		logBuilder.WriteString(fmt.Sprintf("REQUEST BODY: %s\n", bodyStr))
	}

	c.logger.Debug(logBuilder.String())
}

// logResponse logs the HTTP response details
func (c *httpClient) logResponse(statusCode int, statusText string, duration time.Duration, headers http.Header, body []byte) {
	var logBuilder strings.Builder

	logBuilder.WriteString("\n>>> [WEBCLIENT-RESPONSE]\n")
	logBuilder.WriteString(fmt.Sprintf("Status: %d %s\n", statusCode, statusText))
	logBuilder.WriteString(fmt.Sprintf("Duration: %s\n", duration))
	logBuilder.WriteString(formatHeadersForLog(headers))

	bodyStr := truncateBase64InJSON(string(body), 100)
	bodyStr = truncateString(bodyStr, maxBodyLogLength)
	logBuilder.WriteString(fmt.Sprintf("Body: %s\n", bodyStr))

	c.logger.Debug(logBuilder.String())
}

// saveAPILog records the call in api_logs without blocking the request
func (c *httpClient) saveAPILog(method, endpoint string, requestBody, responseBody []byte, statusCode int, duration time.Duration, reqCtx *RequestContext) {
	if c.apiLogSaver == nil {
		return
	}

	reqBodyStr := ""
	if len(requestBody) > 0 {
		reqBodyStr = truncateBase64InJSON(string(requestBody), 100)
		if len(reqBodyStr) > maxStoredBodyBytes {
			reqBodyStr = reqBodyStr[:maxStoredBodyBytes] + "... [truncated]"
		}
	}

	respBodyStr := truncateBase64InJSON(string(responseBody), 100)
	if len(respBodyStr) > maxStoredBodyBytes {
		respBodyStr = respBodyStr[:maxStoredBodyBytes] + "... [truncated]"
	}

	apiLog := &entity.APILog{
		Endpoint:     endpoint,
		Method:       method,
		RequestBody:  reqBodyStr,
		ResponseBody: respBodyStr,
		StatusCode:   statusCode,
		Duration:     duration.Milliseconds(),
		CreatedAt:    time.Now(),
	}
	if reqCtx != nil {
		apiLog.DocumentGroup = reqCtx.DocumentGroup
		apiLog.Actor = reqCtx.Actor
	}

	go func() {
		if err := c.apiLogSaver.Save(context.Background(), apiLog); err != nil {
			c.logger.Warn("Failed to save API log to database",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
		}
	}()
}

// setAuthHeaders signs the request with HMAC or forwards the caller's session token
func (c *httpClient) setAuthHeaders(req *http.Request, reqCtx *RequestContext, body []byte) error {
	if c.config.Backend.IsHMAC() {
		return c.hmacSignature.SignRequest(req, body)
	}

	if reqCtx != nil && reqCtx.Token != "" {
		req.Header.Set("Authorization", "Bearer "+reqCtx.Token)
	}
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	return nil
}

func (c *httpClient) doRequest(ctx context.Context, reqCtx *RequestContext, method, path string, body interface{}, result interface{}) error {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if err := c.setAuthHeaders(req, reqCtx, jsonBody); err != nil {
		return err
	}

	c.logRequest(method, fullURL, req.Header, jsonBody)

	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w: %w", entity.ErrBackend, err)
	}
	defer resp.Body.Close()

	duration := time.Since(startTime)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w: %w", entity.ErrBackend, err)
	}

	c.logResponse(resp.StatusCode, resp.Status, duration, resp.Header, respBody)
	c.saveAPILog(method, path, jsonBody, respBody, resp.StatusCode, duration, reqCtx)

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w: %w", entity.ErrBackend, err)
		}
	}

	return nil
}

func (c *httpClient) Get(ctx context.Context, reqCtx *RequestContext, path string, result interface{}) error {
	return c.doRequest(ctx, reqCtx, http.MethodGet, path, nil, result)
}

func (c *httpClient) Post(ctx context.Context, reqCtx *RequestContext, path string, body interface{}, result interface{}) error {
	return c.doRequest(ctx, reqCtx, http.MethodPost, path, body, result)
}
