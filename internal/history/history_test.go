package history

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netpulse/internal/storage"
	logx "netpulse/pkg/logx"
)

func openKV(t *testing.T, path string) storage.KV {
	t.Helper()
	kv, err := storage.Open(storage.Config{Driver: "file", Path: path}, logx.Nop())
	require.NoError(t, err)
	return kv
}

func result(i int) Result {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
	return Result{
		ID:           NewID(ts),
		Timestamp:    ts,
		Date:         ts.Format("1/2/2006"),
		DownloadMbps: float64(10 + i),
		UploadMbps:   float64(i),
		PingMs:       20,
		ISP:          "ExampleISP",
	}
}

func TestAppendNewestFirstAndBounded(t *testing.T) {
	s := NewStore(nil, logx.Nop())
	ctx := context.Background()

	for i := 0; i < MaxEntries+5; i++ {
		require.NoError(t, s.Append(ctx, result(i)))
	}

	results := s.Results()
	require.Len(t, results, MaxEntries)
	// Newest first after any sequence of inserts.
	assert.Equal(t, float64(10+MaxEntries+4), results[0].DownloadMbps)
	for i := 1; i < len(results); i++ {
		assert.True(t, results[i].Timestamp.Before(results[i-1].Timestamp),
			"results[%d] not older than results[%d]", i, i-1)
	}
}

func TestPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	ctx := context.Background()

	s := NewStore(openKV(t, path), logx.Nop())
	require.NoError(t, s.Append(ctx, result(0)))
	require.NoError(t, s.Append(ctx, result(1)))

	// A fresh store over the same KV sees the same records, same order.
	s2 := NewStore(openKV(t, path), logx.Nop())
	require.Equal(t, 2, s2.Len())
	assert.Equal(t, s.Results(), s2.Results())
}

func TestNewIDMonotonicPrefix(t *testing.T) {
	a := NewID(time.Unix(0, 1000))
	b := NewID(time.Unix(0, 2000))
	assert.NotEqual(t, a, b)
	assert.True(t, strings.Compare(a[:strings.Index(a, "-")], b[:strings.Index(b, "-")]) < 0)
}

func TestExportFixedColumnOrder(t *testing.T) {
	s := NewStore(nil, logx.Nop())
	require.NoError(t, s.Append(context.Background(), Result{
		Date:         "1/1/2024",
		DownloadMbps: 50,
		UploadMbps:   10,
		PingMs:       20,
		ISP:          "ExampleISP",
	}))

	out := s.Export()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,download_mbps,upload_mbps,ping_ms,isp", lines[0])
	assert.Equal(t, "1/1/2024,50.00,10.00,20.00,ExampleISP", lines[1])
}

func TestExportNewestFirstRows(t *testing.T) {
	s := NewStore(nil, logx.Nop())
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, result(i)))
	}
	lines := strings.Split(strings.TrimRight(s.Export(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], fmt.Sprintf("%s,12.00", s.Results()[0].Date)))
}
