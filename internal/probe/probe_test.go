package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheBustUnique(t *testing.T) {
	a := CacheBust("https://example.com/file")
	b := CacheBust("https://example.com/file")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "https://example.com/file?nocache="))
}

func TestCacheBustPreservesExistingQuery(t *testing.T) {
	u := CacheBust("https://example.com/file?size=100")
	assert.True(t, strings.HasPrefix(u, "https://example.com/file?size=100&nocache="))
}

func TestHTTPFetcherReadsFullBody(t *testing.T) {
	body := strings.Repeat("x", 4096)
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.RawQuery
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(0)
	defer f.Close()

	res, err := f.Fetch(context.Background(), srv.URL+"/payload")
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), res.Bytes)
	assert.Greater(t, res.Elapsed.Nanoseconds(), int64(0))
	assert.Contains(t, seen, "nocache=")
}

func TestHTTPFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(0)
	defer f.Close()

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}

func TestHTTPFetcherConnectionError(t *testing.T) {
	f := NewHTTPFetcher(0)
	defer f.Close()

	// Closed server: the fetch must fail, not hang or retry.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := f.Fetch(context.Background(), url)
	require.Error(t, err)
}
