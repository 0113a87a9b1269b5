package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// NewInsecureHTTPClient creates an HTTP client that skips certificate
// verification. The CDR test tiers use self-signed certificates.
func NewInsecureHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// Client issues requests to CGI pages and the XML API and hands back the
// raw response body. Network failures are logged and reported as a nil
// body; callers decide whether to retry or fail.
type Client struct {
	http   *http.Client
	logger arbor.ILogger
}

// NewClient wraps httpClient. A nil httpClient gets an insecure client with
// no timeout.
func NewClient(httpClient *http.Client, logger arbor.ILogger) *Client {
	if httpClient == nil {
		httpClient = NewInsecureHTTPClient(0)
	}
	return &Client{http: httpClient, logger: logger}
}

// Fetch GETs rawURL and returns the body, or nil on any failure.
func (c *Client) Fetch(ctx context.Context, rawURL string) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		c.logger.Error().Err(err).Str("url", rawURL).Msg("Failed to build request")
		return nil
	}
	return c.Do(req)
}

// PostForm POSTs form values to rawURL and returns the body, or nil on any
// failure.
func (c *Client) PostForm(ctx context.Context, rawURL string, values url.Values) []byte {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(values.Encode()))
	if err != nil {
		c.logger.Error().Err(err).Str("url", rawURL).Msg("Failed to build request")
		return nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req)
}

// Do sends a pre-built request and returns the body, or nil on any failure.
func (c *Client) Do(req *http.Request) []byte {
	target := req.URL.String()
	c.logger.Debug().Str("method", req.Method).Str("url", target).Msg("Fetching")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", target).Msg("Request failed")
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error().Err(err).Str("url", target).Msg("Failed to read response")
		return nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Error().
			Err(fmt.Errorf("unexpected status %d", resp.StatusCode)).
			Str("url", target).
			Int("bytes", len(body)).
			Msg("Request returned error status")
		return nil
	}
	return body
}
