package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ProxyPath is the route of the same-origin weather proxy endpoint.
const ProxyPath = "/api/weather"

// ProxyClient fetches normalized records through the proxy endpoint.
type ProxyClient struct {
	client  *http.Client
	baseURL string
}

// NewProxyClient creates a ProxyClient for the server at baseURL.
func NewProxyClient(client *http.Client, baseURL string) *ProxyClient {
	return &ProxyClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// proxyError is the error body returned by the proxy endpoint.
type proxyError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Fetch implements Fetcher. Any non-2xx answer or malformed body is an error.
func (c *ProxyClient) Fetch(ctx context.Context, city string) (WeatherRecord, error) {
	values := url.Values{}
	values.Set("city", city)
	u := fmt.Sprintf("%s%s?%s", c.baseURL, ProxyPath, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return WeatherRecord{}, fmt.Errorf("failed to create proxy request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return WeatherRecord{}, err
		}
		return WeatherRecord{}, fmt.Errorf("failed to reach weather proxy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var body proxyError
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&body); err != nil || body.Error == "" {
			body.Error = "unknown error"
		}
		return WeatherRecord{}, fmt.Errorf("weather proxy responded %d: %s", resp.StatusCode, body.Error)
	}

	var record WeatherRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return WeatherRecord{}, fmt.Errorf("failed to decode proxy response: %w", err)
	}
	if err := record.Validate(); err != nil {
		return WeatherRecord{}, err
	}
	return record, nil
}
