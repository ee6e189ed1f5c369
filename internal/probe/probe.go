// Package probe performs one network round trip: a latency probe or a single
// throughput-test fetch. It reports elapsed wall-clock time and bytes moved
// and deliberately knows nothing about aggregation.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Result is what one completed fetch observed.
type Result struct {
	// Elapsed is the wall-clock time from issuing the request to draining the
	// full response body.
	Elapsed time.Duration
	// Bytes is the number of body bytes actually transferred.
	Bytes int64
}

// Fetcher performs one round trip against a URL. Implementations must read
// the entire response body before reporting: a partially retrieved resource
// would understate transferred bytes and corrupt throughput samples.
//
// There is no built-in retry; any network failure is returned as-is.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Result, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (Result, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string) (Result, error) { return f(ctx, url) }

// HTTPFetcher fetches over HTTP(S) with a dedicated transport so connection
// state can be isolated from the rest of the process and cleaned up after a
// run.
type HTTPFetcher struct {
	client *http.Client
	tr     *http.Transport
}

// NewHTTPFetcher builds a fetcher whose requests time out after timeout.
// A timeout of zero means no per-request deadline beyond the caller's context.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          64,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{Transport: tr, Timeout: timeout},
		tr:     tr,
	}
}

// Fetch issues one GET and drains the whole body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, CacheBust(url), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build probe request: %w", err)
	}
	// Compressed bodies would make the byte count lie about what moved on the
	// wire.
	req.Header.Set("Accept-Encoding", "identity")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("probe fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("probe fetch: unexpected status %s", resp.Status)
	}
	if resp.Header.Get("Content-Encoding") != "" {
		return Result{}, fmt.Errorf("probe fetch: server compressed the response")
	}

	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("probe read: %w", err)
	}
	return Result{Elapsed: time.Since(start), Bytes: n}, nil
}

// Close releases idle connections held by the dedicated transport.
func (f *HTTPFetcher) Close() {
	if f.tr != nil {
		f.tr.CloseIdleConnections()
	}
}
