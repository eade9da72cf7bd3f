// Package fetcher performs HTTP requests over a SOCKS5 proxy, classifies
// responses, and returns nothing but bytes and metadata — generalized from
// the teacher's internal/fetcher package, whose doc comment still holds:
// "The fetcher never parses content; it only returns bytes and metadata."
//
// Session recycling (rebuilding the *http.Client to get a fresh circuit)
// is the worker's job, not the fetcher's — Fetch takes the client as a
// parameter instead of owning one, keeping this package stateless per call.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"

	"github.com/onionwatch/onionwatch/pkg/failure"
	"github.com/onionwatch/onionwatch/pkg/retry"
)

// Fetcher fetches one URL, retrying per retryParam.
type Fetcher interface {
	Fetch(ctx context.Context, client *http.Client, param FetchParam, retryParam retry.RetryParam) (FetchResult, failure.ClassifiedError)
}

// HTMLFetcher is the production Fetcher. It holds no mutable state: the
// caller supplies the *http.Client (and therefore the proxy circuit) on
// every call.
type HTMLFetcher struct{}

func NewHTMLFetcher() HTMLFetcher {
	return HTMLFetcher{}
}

// NewSOCKSClient builds an *http.Client whose transport dials through a
// local SOCKS5 proxy at 127.0.0.1:port with remote DNS resolution (the
// proxy resolves .onion hostnames, never the local resolver).
func NewSOCKSClient(port int, timeout time.Duration) (*http.Client, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	dialer, err := proxy.SOCKS5("tcp", addr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("fetcher: build socks5 dialer: %w", err)
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
			if ctxDialer, ok := dialer.(proxy.ContextDialer); ok {
				return ctxDialer.DialContext(ctx, network, address)
			}
			return dialer.Dial(network, address)
		},
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

func (h HTMLFetcher) Fetch(ctx context.Context, client *http.Client, param FetchParam, retryParam retry.RetryParam) (FetchResult, failure.ClassifiedError) {
	fetchTask := func() (FetchResult, failure.ClassifiedError) {
		return h.performFetch(ctx, client, param)
	}

	result := retry.Retry(retryParam, fetchTask)
	if result.IsFailure() {
		var fetchErr *FetchError
		if errors.As(result.Err(), &fetchErr) {
			return FetchResult{}, fetchErr
		}
		return FetchResult{}, result.Err()
	}
	return result.Value(), nil
}

func (h HTMLFetcher) performFetch(ctx context.Context, client *http.Client, param FetchParam) (FetchResult, failure.ClassifiedError) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, param.URL, nil)
	if err != nil {
		return FetchResult{}, &FetchError{Message: err.Error(), Retryable: false, Cause: ErrCauseOther}
	}
	req.Header.Set("User-Agent", param.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return FetchResult{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	headers := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	cookies := resp.Cookies()
	cookieNames := make([]string, 0, len(cookies))
	for _, c := range cookies {
		cookieNames = append(cookieNames, c.Name)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return FetchResult{}, &FetchError{Message: err.Error(), Retryable: true, Cause: ErrCauseConnectionError}
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("http status %d", resp.StatusCode),
			Retryable: true,
			Cause:     ErrCauseOther,
		}
	}

	return FetchResult{
		url:         param.URL,
		body:        body,
		statusCode:  resp.StatusCode,
		headers:     headers,
		cookieNames: cookieNames,
		fetchedAt:   start,
		elapsed:     time.Since(start),
	}, nil
}

func classifyTransportError(err error) *FetchError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &FetchError{Message: err.Error(), Retryable: true, Cause: ErrCauseTimeout}
	}

	msg := err.Error()
	if strings.Contains(msg, "socks") || strings.Contains(msg, "no such host") || strings.Contains(msg, "onion") {
		return &FetchError{Message: msg, Retryable: true, Cause: ErrCauseUnreachable}
	}

	return &FetchError{Message: msg, Retryable: true, Cause: ErrCauseConnectionError}
}

// IsHTML reports whether a response's Content-Type header names an HTML
// document, case-insensitively.
func IsHTML(contentType string) bool {
	lower := strings.ToLower(contentType)
	return strings.Contains(lower, "text/html") || strings.Contains(lower, "application/xhtml")
}
