// Package eventlog keeps a bounded, most-recent-first record of notable
// occurrences: connectivity changes, test completion, test failure.
package eventlog

import (
	"sync"
	"time"
)

// Kind classifies an entry for the consumer.
type Kind string

const (
	KindError   Kind = "error"
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
)

// DefaultMaxEntries bounds the log; insertion evicts the oldest beyond it.
const DefaultMaxEntries = 50

// Entry is one logged occurrence. Time is a display string; the log is
// consumer-facing, not a measurement artifact.
type Entry struct {
	Time    string `json:"time"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Log is a bounded in-memory event log, newest first.
//
// It is safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	max     int
	entries []Entry
	now     func() time.Time
}

func New() *Log {
	return &Log{max: DefaultMaxEntries, now: time.Now}
}

// NewWithLimit is used by tests to exercise eviction cheaply.
func NewWithLimit(max int) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Log{max: max, now: time.Now}
}

// Append records an entry at the head of the log.
func (l *Log) Append(kind Kind, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{Time: l.now().Format("15:04:05"), Kind: kind, Message: message}
	l.entries = append([]Entry{e}, l.entries...)
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
}

func (l *Log) Error(message string)   { l.Append(KindError, message) }
func (l *Log) Success(message string) { l.Append(KindSuccess, message) }
func (l *Log) Info(message string)    { l.Append(KindInfo, message) }

// Entries returns a snapshot, newest first.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
