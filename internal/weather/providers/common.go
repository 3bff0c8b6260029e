package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-globe/internal/weather"
)

// maxBodySize caps how much of an upstream body is read.
const maxBodySize = 1 << 20

// UserAgent is sent with every upstream request.
var UserAgent = fmt.Sprintf("weather-globe/1.0 (%s; %s)", runtime.GOOS, runtime.GOARCH)

var (
	errServerError  = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// upstreamResponse is a fully read upstream answer.
type upstreamResponse struct {
	StatusCode int
	StatusText string
	Body       []byte
}

// newCircuitBreaker returns the breaker shared by all calls to one provider.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// doRequest executes a single upstream attempt behind the circuit breaker.
// Transport failures and 5xx answers count against the breaker; any answer
// that was received is returned to the caller whatever its status.
func doRequest(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, req *http.Request) (*upstreamResponse, error) {
	if client == nil {
		return nil, errNoHTTPClient
	}

	// Ensure the request obeys context cancellation.
	req = req.WithContext(ctx)
	req.Header.Set("User-Agent", UserAgent)

	var res *upstreamResponse
	_, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if readErr != nil {
			return nil, fmt.Errorf("failed to read upstream body: %w", readErr)
		}

		res = &upstreamResponse{
			StatusCode: resp.StatusCode,
			StatusText: statusText(resp),
			Body:       body,
		}
		if resp.StatusCode >= 500 {
			return nil, errServerError
		}
		return nil, nil
	})
	if res != nil {
		return res, nil
	}

	// If circuit is open, propagate immediately.
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
	}
	return nil, err
}

// statusText strips the numeric prefix of resp.Status ("404 Not Found" -> "Not Found").
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// checkStatus converts a non-2xx answer into a *weather.UpstreamError.
func checkStatus(res *upstreamResponse) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	return &weather.UpstreamError{
		StatusCode: res.StatusCode,
		StatusText: res.StatusText,
		Body:       string(res.Body),
	}
}
