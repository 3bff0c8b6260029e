// Package testhelper holds test doubles shared across packages.
package testhelper

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MockRoundTripper answers HTTP requests with Fn instead of the network.
type MockRoundTripper struct {
	Fn func(*http.Request) (*http.Response, error)
}

func (m MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.Fn(req)
}

// JSONResponse builds a response with the given status and body.
func JSONResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

// Client returns an http.Client whose transport is fn.
func Client(fn func(*http.Request) (*http.Response, error)) *http.Client {
	return &http.Client{Transport: MockRoundTripper{Fn: fn}}
}
