// Package api is a small client for the gletter rendering API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// maxResponseBody is the maximum size of response body to read (32MB)
const maxResponseBody = 32 << 20

// ErrResponseTooLarge is returned when the response body exceeds maxResponseBody
var ErrResponseTooLarge = errors.New("response body too large")

// ErrInvalidBaseURL is returned when the base URL is empty or malformed
var ErrInvalidBaseURL = errors.New("invalid base URL: must be non-empty with scheme and host")

// Client is an HTTP client for the gletter API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	mu         sync.RWMutex
	token      string
}

// NewClient creates a new API client.
// Returns an error if baseURL is empty or malformed (missing scheme/host).
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, ErrInvalidBaseURL
	}

	parsed, err := url.ParseRequestURI(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, ErrInvalidBaseURL
	}

	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}, nil
}

// SetToken sets the JWT token for authenticated requests
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) getToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Response wraps API responses
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorResponse  `json:"error,omitempty"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// File is a downloaded document
type File struct {
	Filename    string
	ContentType string
	Pages       int
	Data        []byte
}

func marshalBody(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return bytes.NewReader(jsonBody), nil
}

func readResponseBody(body io.Reader) ([]byte, error) {
	respBody, err := io.ReadAll(io.LimitReader(body, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(respBody) > maxResponseBody {
		return nil, ErrResponseTooLarge
	}
	return respBody, nil
}

// parseErrorResponse attempts to parse an error response from body
func parseErrorResponse(statusCode int, body []byte) error {
	var errResp Response
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		msg := errResp.Error.Message
		if len(errResp.Error.Details) > 0 && string(errResp.Error.Details) != "null" {
			msg += " " + string(errResp.Error.Details)
		}
		if errResp.Error.Code != "" {
			return fmt.Errorf("HTTP %d: %s: %s", statusCode, errResp.Error.Code, msg)
		}
		return fmt.Errorf("HTTP %d: %s", statusCode, msg)
	}
	// Fall back to truncated body (rune-safe to avoid splitting UTF-8 characters)
	runes := []rune(string(body))
	if len(runes) > 200 {
		return fmt.Errorf("HTTP %d: %s...", statusCode, string(runes[:200]))
	}
	return fmt.Errorf("HTTP %d: %s", statusCode, string(runes))
}

func (c *Client) send(ctx context.Context, method, path string, body any, accept string) (*http.Response, []byte, error) {
	reqBody, err := marshalBody(body)
	if err != nil {
		return nil, nil, err
	}
	if path != "" && path[0] != '/' {
		path = "/" + path
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.getToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := readResponseBody(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, parseErrorResponse(resp.StatusCode, respBody)
	}
	return resp, respBody, nil
}

// Do performs a JSON request and decodes the envelope's data into out when
// out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	resp, respBody, err := c.send(ctx, method, path, body, "application/json")
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusNoContent || len(respBody) == 0 || out == nil {
		return nil
	}

	var apiResp Response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode, err)
	}
	if !apiResp.Success {
		return parseErrorResponse(resp.StatusCode, respBody)
	}
	if err := json.Unmarshal(apiResp.Data, out); err != nil {
		return fmt.Errorf("failed to decode data: %w", err)
	}
	return nil
}

// Download posts body and returns the document the server sends back.
func (c *Client) Download(ctx context.Context, path string, body any) (*File, error) {
	resp, data, err := c.send(ctx, http.MethodPost, path, body, "*/*")
	if err != nil {
		return nil, err
	}
	f := &File{
		Filename:    "document",
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		f.Filename = params["filename"]
	}
	if n, err := strconv.Atoi(resp.Header.Get("X-Page-Count")); err == nil {
		f.Pages = n
	}
	return f, nil
}
