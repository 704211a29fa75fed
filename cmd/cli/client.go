package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iho/balanceledger/internal/adapter/http/dto"
)

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status int
	Reason string
	Detail string
}

func (e *apiError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Reason, e.Detail, e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Reason, e.Status)
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// do sends the request and returns the status and raw body.
// Transport failures are the only errors; callers interpret the status.
func (c *apiClient) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}

	return resp.StatusCode, raw, nil
}

// call decodes a 2xx body into out and turns anything else into an apiError.
func (c *apiClient) call(ctx context.Context, method, path string, payload, out any) error {
	status, raw, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}

	if status < 200 || status >= 300 {
		return decodeAPIError(status, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	return nil
}

func decodeAPIError(status int, raw []byte) error {
	var resp dto.ErrorResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Error == "" {
		return &apiError{Status: status, Reason: http.StatusText(status), Detail: string(bytes.TrimSpace(raw))}
	}
	return &apiError{Status: status, Reason: resp.Error, Detail: resp.Message}
}
