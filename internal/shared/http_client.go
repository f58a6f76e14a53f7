package shared

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultHTTPTimeout bounds every outbound call when no timeout is configured
const DefaultHTTPTimeout = 10 * time.Second

// RequestBuilder builds a fresh request per attempt so bodies are never reused
type RequestBuilder func(ctx context.Context) (*http.Request, error)

// NewHTTPClient creates an HTTP client with pooled connections
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          50,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// DoWithRetry executes a request and retries only on transport errors.
// Any HTTP response, whatever its status, is returned to the caller as is.
func DoWithRetry(ctx context.Context, client *http.Client, build RequestBuilder, maxRetries int, backoff time.Duration) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := client.Do(req)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			break
		}

		logrus.WithFields(logrus.Fields{
			"component": "http_client",
			"method":    req.Method,
			"host":      req.URL.Host,
			"path":      req.URL.Path,
			"attempt":   attempt + 1,
		}).WithError(err).Warn("Outbound request failed with transport error")
	}

	return nil, lastErr
}
