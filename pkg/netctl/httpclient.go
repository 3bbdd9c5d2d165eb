package netctl

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// newProbeHTTPClient builds the HTTP client shared by both surface variants.
// Keep-alives are disabled so each probe stands on its own connection.
func newProbeHTTPClient(connectTimeout time.Duration) *http.Client {
	return &http.Client{
		// Per-request timeout comes from the context; this is a safety net.
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DisableKeepAlives: true,
			DialContext: (&net.Dialer{
				Timeout: connectTimeout,
			}).DialContext,
		},
	}
}

// sharedHTTPGet performs one GET and returns the status code. Any response
// within the timeout counts as reachable; status interpretation is left to
// the probe.
func sharedHTTPGet(ctx context.Context, client *http.Client, url string, timeout time.Duration) (int, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP probe failed: %w", err)
	}
	defer func() {
		// Drain so the connection can close cleanly.
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024)) //nolint:errcheck
		resp.Body.Close()
	}()

	return resp.StatusCode, nil
}

// sharedResolve looks up hostname with the system resolver, bounded by
// timeout.
func sharedResolve(ctx context.Context, hostname string, timeout time.Duration) ([]string, error) {
	resolveCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupHost(resolveCtx, hostname)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", hostname, err)
	}
	return addrs, nil
}
