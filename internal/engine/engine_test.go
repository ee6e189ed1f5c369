package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netpulse/internal/eventbus"
	"netpulse/internal/eventlog"
	"netpulse/internal/probe"
)

func fastConfig() Config {
	return Config{
		ProbeCount:        5,
		Concurrency:       2,
		TimeBudget:        20 * time.Millisecond,
		ResourceSizeBytes: 64 * 1024,
		RampSteps:         3,
		RampInterval:      time.Millisecond,
		ISP:               "ExampleISP",
	}
}

func drain(ch <-chan eventbus.Event) []eventbus.Event {
	var out []eventbus.Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestRunTestEndToEnd(t *testing.T) {
	f := &scriptedFetcher{elapsed: ms(20, 22, 21, 19, 23), sleep: 2 * time.Millisecond}
	e := New(fastConfig(), WithFetcher(f))

	ch, unsub := e.Bus().Subscribe(1024)
	defer unsub()

	e.RunTest(context.Background())

	assert.False(t, e.Testing())
	assert.Equal(t, 100.0, e.Progress())

	m := e.Metrics()
	assert.InDelta(t, 21.0, m.PingMs, 1e-9)
	assert.InDelta(t, 4.0, m.JitterMs, 1e-9)
	assert.Greater(t, m.DownloadMbps, 0.0)
	// Ping of 21ms without a hint selects the wifi-class upload ratio.
	assert.InDelta(t, m.DownloadMbps*0.25, m.UploadMbps, 1e-6)
	assert.Greater(t, m.SignalStrength, 0)

	results := e.History().Results()
	require.Len(t, results, 1)
	assert.Equal(t, m.DownloadMbps, results[0].DownloadMbps)
	assert.Equal(t, "ExampleISP", results[0].ISP)
	assert.NotEmpty(t, results[0].ID)

	entries := e.Events().Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, eventlog.KindSuccess, entries[0].Kind)
	assert.Contains(t, entries[0].Message, "estimated")

	events := drain(ch)
	var started, completed int
	for _, ev := range events {
		switch ev.Type {
		case eventbus.RunStarted:
			started++
		case eventbus.RunCompleted:
			completed++
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, completed)
}

func TestRunTestProgressMonotonicEndsAt100(t *testing.T) {
	f := &scriptedFetcher{elapsed: ms(10), sleep: 2 * time.Millisecond}
	e := New(fastConfig(), WithFetcher(f))

	ch, unsub := e.Bus().Subscribe(1024)
	defer unsub()

	e.RunTest(context.Background())

	var progress []float64
	for _, ev := range drain(ch) {
		if ev.Type == eventbus.ProgressChanged {
			progress = append(progress, ev.Data.(float64))
		}
	}
	require.NotEmpty(t, progress)
	assert.Equal(t, 0.0, progress[0])
	assert.Equal(t, 100.0, progress[len(progress)-1])
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1], "progress regressed at %d", i)
	}
}

func TestRunTestExclusive(t *testing.T) {
	f := &scriptedFetcher{elapsed: ms(10), sleep: time.Millisecond, block: make(chan struct{})}
	e := New(fastConfig(), WithFetcher(f))

	ch, unsub := e.Bus().Subscribe(1024)
	defer unsub()

	done := make(chan struct{})
	go func() {
		e.RunTest(context.Background())
		close(done)
	}()

	require.Eventually(t, e.Testing, time.Second, time.Millisecond)

	// A second invocation while testing is a silent no-op: no state changes,
	// no events, immediate return.
	before := e.Progress()
	e.RunTest(context.Background())
	assert.Equal(t, before, e.Progress())

	close(f.block)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}

	assert.Equal(t, 1, e.History().Len())
	var started int
	for _, ev := range drain(ch) {
		if ev.Type == eventbus.RunStarted {
			started++
		}
	}
	assert.Equal(t, 1, started)
}

func TestRunTestFailureTerminalState(t *testing.T) {
	f := probe.FetcherFunc(func(context.Context, string) (probe.Result, error) {
		return probe.Result{}, errProbe
	})
	e := New(fastConfig(), WithFetcher(f))

	ch, unsub := e.Bus().Subscribe(1024)
	defer unsub()

	e.RunTest(context.Background())

	// Failure is converted, never raised: terminal progress, released lock,
	// an error entry, and nothing persisted.
	assert.False(t, e.Testing())
	assert.Equal(t, 100.0, e.Progress())
	assert.Equal(t, 0, e.History().Len())

	entries := e.Events().Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, eventlog.KindError, entries[0].Kind)

	var failed bool
	for _, ev := range drain(ch) {
		if ev.Type == eventbus.RunFailed {
			failed = true
		}
	}
	assert.True(t, failed)
}

func TestRunTestThroughputFailureKeepsNothing(t *testing.T) {
	// Latency succeeds (5 probes), the first throughput batch fails.
	f := &scriptedFetcher{elapsed: ms(15), failOn: 6}
	e := New(fastConfig(), WithFetcher(f))

	e.RunTest(context.Background())

	assert.Equal(t, 0, e.History().Len())
	assert.Equal(t, 0.0, e.Metrics().DownloadMbps)
	assert.Equal(t, 100.0, e.Progress())
	assert.False(t, e.Testing())
}

func TestRunTestConnectivityTransitions(t *testing.T) {
	f := &scriptedFetcher{failOn: 1}
	e := New(fastConfig(), WithFetcher(f))

	ch, unsub := e.Bus().Subscribe(1024)
	defer unsub()

	e.RunTest(context.Background())

	var offline bool
	for _, ev := range drain(ch) {
		if ev.Type == eventbus.ConnectivityChanged && ev.Data == "offline" {
			offline = true
		}
	}
	assert.True(t, offline)

	// Recovery: the next successful run reports the link back online.
	f.mu.Lock()
	f.failOn = 0
	f.mu.Unlock()

	e.RunTest(context.Background())

	var online bool
	for _, ev := range drain(ch) {
		if ev.Type == eventbus.ConnectivityChanged && ev.Data == "online" {
			online = true
		}
	}
	assert.True(t, online)
}

func TestRunTestConnectivityEventLogEntries(t *testing.T) {
	f := &scriptedFetcher{elapsed: ms(10), sleep: 2 * time.Millisecond}
	e := New(fastConfig(), WithFetcher(f))

	// The first run establishes the baseline; nothing has changed yet.
	e.RunTest(context.Background())
	for _, en := range e.Events().Entries() {
		assert.NotEqual(t, eventlog.KindInfo, en.Kind)
	}

	f.mu.Lock()
	f.failOn = 1
	f.mu.Unlock()
	e.RunTest(context.Background())

	entries := e.Events().Entries()
	require.GreaterOrEqual(t, len(entries), 2)
	// Newest first: the failure itself, then the transition it caused.
	assert.Equal(t, eventlog.KindError, entries[0].Kind)
	assert.Equal(t, eventlog.KindInfo, entries[1].Kind)
	assert.Equal(t, "Connection lost", entries[1].Message)

	f.mu.Lock()
	f.failOn = 0
	f.mu.Unlock()
	e.RunTest(context.Background())

	entries = e.Events().Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, eventlog.KindInfo, entries[0].Kind)
	assert.Equal(t, "Connection restored", entries[0].Message)
}

func TestSetDownloadPublishesPaced(t *testing.T) {
	e := New(fastConfig(), WithFetcher(&scriptedFetcher{}))

	ch, unsub := e.Bus().Subscribe(256)
	defer unsub()

	for i := 1; i <= 200; i++ {
		e.setDownload(float64(i))
	}

	// The stored value always tracks the latest sample; only the bus feed
	// is paced, so a burst collapses to a handful of publishes.
	assert.Equal(t, 200.0, e.Metrics().DownloadMbps)
	events := drain(ch)
	assert.NotEmpty(t, events)
	assert.Less(t, len(events), 20)
}
