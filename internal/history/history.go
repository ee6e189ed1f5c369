// Package history retains completed test results across runs and process
// restarts, bounded and newest-first.
package history

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"netpulse/internal/storage"
	logx "netpulse/pkg/logx"
)

// MaxEntries bounds the history; insertion evicts the oldest beyond it.
const MaxEntries = 10

// storeKey is the fixed key under which the whole history is persisted as one
// JSON-serialized array.
const storeKey = "netpulse.history.v1"

// Result is a single completed test, immutable once created.
//
// IMPORTANT: JSON tags are kept stable because results are persisted to the
// key-value store. Changing tags can break existing history.
type Result struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Date         string    `json:"date"`
	DownloadMbps float64   `json:"download_mbps"`
	UploadMbps   float64   `json:"upload_mbps"`
	PingMs       float64   `json:"ping_ms"`
	JitterMs     float64   `json:"jitter_ms"`
	PingP95Ms    float64   `json:"ping_p95_ms"`
	ISP          string    `json:"isp"`
}

// NewID derives a unique monotonic token from the creation timestamp plus a
// short random suffix to break ties within one nanosecond.
func NewID(ts time.Time) string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%x-%08x", ts.UnixNano(), binary.BigEndian.Uint32(b[:]))
}

// Store is the bounded, persisted result history.
//
// It is safe for concurrent use. The persisted record is loaded once at
// construction and rewritten in full on every append; a nil KV keeps the
// history purely in-memory.
type Store struct {
	mu      sync.Mutex
	kv      storage.KV
	log     logx.Logger
	results []Result
}

func NewStore(kv storage.KV, log logx.Logger) *Store {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Store{kv: kv, log: log}
	s.load()
	return s
}

func (s *Store) load() {
	if s.kv == nil {
		return
	}
	raw, ok, err := s.kv.Get(context.Background(), storeKey)
	if err != nil {
		s.log.Warn("history load failed", logx.Err(err))
		return
	}
	if !ok {
		return
	}
	var results []Result
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		s.log.Warn("discarding unreadable history record", logx.Err(err))
		return
	}
	if len(results) > MaxEntries {
		results = results[:MaxEntries]
	}
	s.results = results
}

// Append inserts a result at the head and persists the full retained set.
func (s *Store) Append(ctx context.Context, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append([]Result{r}, s.results...)
	if len(s.results) > MaxEntries {
		s.results = s.results[:MaxEntries]
	}

	if s.kv == nil {
		return nil
	}
	raw, err := json.Marshal(s.results)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	if err := s.kv.Set(ctx, storeKey, string(raw)); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// Results returns a snapshot, newest first.
func (s *Store) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}
