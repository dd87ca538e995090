package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MikhailRaia/menu-scraper/internal/model"
)

// Client talks to a running menu-scraper HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Health calls GET /api/health. The report is decoded only for a 200 answer.
func (c *Client) Health(ctx context.Context) (int, model.HealthReport, error) {
	var report model.HealthReport
	status, body, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil || status != http.StatusOK {
		return status, report, err
	}
	if err := json.Unmarshal(body, &report); err != nil {
		return status, report, fmt.Errorf("decode health report: %w", err)
	}
	return status, report, nil
}

// PostBatch sends a raw JSON batch and returns the status with the undecoded body.
func (c *Client) PostBatch(ctx context.Context, batch []byte) (int, []byte, error) {
	return c.do(ctx, http.MethodPost, "/api/menu-items/batch", batch)
}

// ListItems calls GET /api/menu-items, filtered by restaurant when it is not empty.
func (c *Client) ListItems(ctx context.Context, restaurant string) (int, []model.MenuItemResponse, error) {
	path := "/api/menu-items"
	if restaurant != "" {
		path += "?" + url.Values{"restaurant": {restaurant}}.Encode()
	}

	var items []model.MenuItemResponse
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil || status != http.StatusOK {
		return status, nil, err
	}
	if err := json.Unmarshal(body, &items); err != nil {
		return status, nil, fmt.Errorf("decode menu items: %w", err)
	}
	return status, items, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}
	return resp.StatusCode, body, nil
}
