package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/quartz"
)

// HealthURL turns an http(s) or ws(s) base URL into the /health endpoint.
func HealthURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "http"
	case "https", "wss":
		u.Scheme = "https"
	default:
		return "", fmt.Errorf("invalid server URL %q: unsupported scheme", serverURL)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/health"
	return u.String(), nil
}

// WaitForHealthy polls /health until it returns 200 OK or ctx is done.
func WaitForHealthy(ctx context.Context, serverURL string, clock quartz.Clock) error {
	healthURL, err := HealthURL(serverURL)
	if err != nil {
		return err
	}
	httpClient := &http.Client{Timeout: 1 * time.Second}

	ticker := clock.NewTicker(100*time.Millisecond, "client", "health")
	defer ticker.Stop()

	for {
		if healthy(ctx, httpClient, healthURL) {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", healthURL, ctx.Err())
		case <-ticker.C:
		}
	}
}

func healthy(ctx context.Context, httpClient *http.Client, healthURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
