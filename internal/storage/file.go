package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "netpulse/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// The whole keyspace is one JSON object written atomically (tmp file +
// rename). The value set here is tiny (a single bounded history record), so a
// full rewrite per Set is the simple and correct choice.
type fileStore struct {
	log logx.Logger

	mu   sync.Mutex
	path string
	data map[string]string
}

func openFile(cfg Config, log logx.Logger) (KV, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	data := map[string]string{}
	if err := loadSnapshot(path, data); err != nil && !os.IsNotExist(err) {
		// A corrupt snapshot should not brick startup; history resets instead.
		log.Warn("discarding unreadable storage snapshot", logx.String("path", path), logx.Err(err))
		data = map[string]string{}
	}

	return &fileStore{log: log, path: path, data: data}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) Get(ctx context.Context, key string) (string, bool, error) {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fileStore) Set(ctx context.Context, key string, value string) error {
	_ = ctx
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.writeSnapshotLocked()
}

func (s *fileStore) writeSnapshotLocked() error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(s.data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func loadSnapshot(path string, out map[string]string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var m map[string]string
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return err
	}
	for k, v := range m {
		out[k] = v
	}
	return nil
}
