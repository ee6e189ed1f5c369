// Package engine drives a speed test run: latency sampling, time-boxed
// concurrent throughput sampling, upload estimation, display pacing, and
// retention of results. The presentation layer observes it exclusively
// through the event bus and the snapshot accessors.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"netpulse/internal/eventbus"
	"netpulse/internal/eventlog"
	"netpulse/internal/history"
	"netpulse/internal/probe"
	"netpulse/internal/stats"
	logx "netpulse/pkg/logx"
)

// Engine owns the live Metrics, the run state and the bounded logs. All
// mutations of shared state go through its mutex; the exclusive `testing`
// flag guarantees at most one run at a time.
type Engine struct {
	cfg     Config
	fetcher probe.Fetcher
	hist    *history.Store
	events  *eventlog.Log
	bus     eventbus.Bus
	log     logx.Logger

	testing atomic.Bool

	mu       sync.Mutex
	metrics  Metrics
	progress float64
	// lastRunOK tracks run outcomes across runs so connectivity transitions
	// (link presumed down / recovered) can be reported once, not per failure.
	lastRunOK  bool
	everRan    bool
	currentRun string

	// progressLimiter and metricsLimiter pace ProgressChanged and
	// MetricsUpdated bus publishes. They only affect consumer-facing event
	// volume, never the measurement or the stored values; terminal events
	// are never paced.
	progressLimiter *rate.Limiter
	metricsLimiter  *rate.Limiter
}

// Option customizes an Engine.
type Option func(*Engine)

func WithLogger(log logx.Logger) Option   { return func(e *Engine) { e.log = log } }
func WithBus(bus eventbus.Bus) Option     { return func(e *Engine) { e.bus = bus } }
func WithEventLog(l *eventlog.Log) Option { return func(e *Engine) { e.events = l } }
func WithHistory(h *history.Store) Option { return func(e *Engine) { e.hist = h } }
func WithFetcher(f probe.Fetcher) Option  { return func(e *Engine) { e.fetcher = f } }

// New constructs an Engine. Without options it measures over HTTP with a
// default fetcher and keeps history in memory only.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:             cfg.withDefaults(),
		log:             logx.Nop(),
		bus:             eventbus.New(),
		events:          eventlog.New(),
		progressLimiter: rate.NewLimiter(rate.Limit(20), 1),
		metricsLimiter:  rate.NewLimiter(rate.Limit(20), 1),
	}
	for _, o := range opts {
		o(e)
	}
	if e.fetcher == nil {
		e.fetcher = probe.NewHTTPFetcher(30 * time.Second)
	}
	if e.hist == nil {
		e.hist = history.NewStore(nil, e.log)
	}
	return e
}

// snapshotConfig returns the configuration an individual run operates on.
// A run holds its snapshot for its whole lifetime so a concurrent
// UpdateConfig never changes settings mid-measurement.
func (e *Engine) snapshotConfig() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// UpdateConfig replaces the run configuration used by subsequent runs.
// An in-flight run keeps the snapshot it started with.
func (e *Engine) UpdateConfig(cfg Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg.withDefaults()
}

// Bus exposes the notification bus for subscribers.
func (e *Engine) Bus() eventbus.Bus { return e.bus }

// Events exposes the bounded event log.
func (e *Engine) Events() *eventlog.Log { return e.events }

// History exposes the bounded result history.
func (e *Engine) History() *history.Store { return e.hist }

// Testing reports whether a run is currently active.
func (e *Engine) Testing() bool { return e.testing.Load() }

// Metrics returns a snapshot of the live metrics.
func (e *Engine) Metrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

// Progress returns the current run progress in [0, 100].
func (e *Engine) Progress() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// RunTest executes one full test run: latency, throughput, upload estimate,
// display ramp, history append. Invoking it while a run is active is a silent
// no-op. It never surfaces a measurement error to the caller; failures end up
// in the event log and on the bus, progress is forced terminal, and the
// exclusive flag is released.
func (e *Engine) RunTest(ctx context.Context) {
	if !e.testing.CompareAndSwap(false, true) {
		return
	}
	defer e.testing.Store(false)

	runID := uuid.NewString()
	log := e.log.With(logx.String("run_id", runID))
	cfg := e.snapshotConfig()

	e.mu.Lock()
	e.currentRun = runID
	e.mu.Unlock()

	e.resetProgress()
	e.bus.Publish(eventbus.Event{Type: eventbus.RunStarted, RunID: runID})
	log.Info("speed test started",
		logx.Int("probes", cfg.ProbeCount),
		logx.Int("concurrency", cfg.Concurrency),
		logx.Duration("budget", cfg.TimeBudget),
		logx.String("resource", humanize.IBytes(uint64(cfg.ResourceSizeBytes))))

	err := e.run(ctx, cfg, runID, log)
	e.forceProgress()

	if err != nil {
		log.Error("speed test failed", logx.Err(err))
		// Connectivity first so the failure itself is the newest entry.
		e.noteOutcome(false)
		e.events.Error(fmt.Sprintf("Speed test failed: %v", err))
		e.bus.Publish(eventbus.Event{Type: eventbus.RunFailed, RunID: runID, Data: err.Error()})
		return
	}
	e.noteOutcome(true)
}

func (e *Engine) run(ctx context.Context, cfg Config, runID string, log logx.Logger) error {
	started := time.Now()

	lat, err := e.measureLatency(ctx, cfg)
	if err != nil {
		return err
	}
	e.setLatency(lat)
	log.Debug("latency phase done",
		logx.Float64("avg_ms", lat.AvgMs),
		logx.Float64("jitter_ms", lat.JitterMs),
		logx.Float64("p95_ms", lat.P95Ms))

	samples, err := e.measureThroughput(ctx, cfg)
	if err != nil {
		return err
	}
	finalDownload := stats.FixedTrimmedMean(samples)
	estimatedUpload := estimateUpload(finalDownload, cfg.QualityHint, lat.AvgMs)
	log.Debug("throughput phase done",
		logx.Int("samples", len(samples)),
		logx.Float64("download_mbps", finalDownload),
		logx.Float64("upload_mbps_estimated", estimatedUpload))

	e.rampToFinal(ctx, cfg, finalDownload, estimatedUpload)

	now := time.Now()
	result := history.Result{
		ID:           history.NewID(now),
		Timestamp:    now,
		Date:         now.Format("1/2/2006"),
		DownloadMbps: finalDownload,
		UploadMbps:   estimatedUpload,
		PingMs:       lat.AvgMs,
		JitterMs:     lat.JitterMs,
		PingP95Ms:    lat.P95Ms,
		ISP:          cfg.ISP,
	}
	if err := e.hist.Append(ctx, result); err != nil {
		// Persistence trouble should not fail an otherwise completed run.
		log.Warn("history append failed", logx.Err(err))
	}

	e.events.Success(fmt.Sprintf(
		"Speed test complete: %s Mbps down, %s Mbps up (estimated), %s ms ping",
		humanize.CommafWithDigits(finalDownload, 1),
		humanize.CommafWithDigits(estimatedUpload, 1),
		humanize.CommafWithDigits(lat.AvgMs, 0)))
	e.bus.Publish(eventbus.Event{Type: eventbus.RunCompleted, RunID: runID, Data: result})
	log.Info("speed test complete", logx.Duration("took", time.Since(started)))
	return nil
}

// rampToFinal animates the displayed download/upload metrics from their
// current values to the already-final measured/estimated targets while
// progress advances through the 80-100 band. Pure display pacing.
func (e *Engine) rampToFinal(ctx context.Context, cfg Config, downloadTarget, uploadTarget float64) {
	ramp := Ramp{Steps: cfg.RampSteps, Interval: cfg.RampInterval}

	e.mu.Lock()
	downloadFrom := e.metrics.DownloadMbps
	uploadFrom := e.metrics.UploadMbps
	e.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		ramp.Run(ctx, downloadFrom, downloadTarget, e.setDownload)
	}()
	go func() {
		defer wg.Done()
		ramp.Run(ctx, uploadFrom, uploadTarget, e.setUpload)
	}()
	go func() {
		defer wg.Done()
		ramp.Run(ctx, throughputBandEnd, progressDone, e.setProgress)
	}()
	wg.Wait()
}

func (e *Engine) setLatency(lat latencyResult) {
	e.mu.Lock()
	e.metrics.PingMs = lat.AvgMs
	e.metrics.JitterMs = lat.JitterMs
	e.metrics.SignalStrength = signalStrength(lat.AvgMs)
	m := e.metrics
	runID := e.currentRun
	e.mu.Unlock()
	e.publishMetrics(m, runID, true)
}

// setDownload publishes the running mean as a live feed. Short batches can
// produce these far faster than any consumer renders them, so the publish is
// paced; the final figure still reaches consumers via RunCompleted.
func (e *Engine) setDownload(mbps float64) {
	e.mu.Lock()
	e.metrics.DownloadMbps = mbps
	m := e.metrics
	runID := e.currentRun
	e.mu.Unlock()
	e.publishMetrics(m, runID, false)
}

func (e *Engine) setUpload(mbps float64) {
	e.mu.Lock()
	e.metrics.UploadMbps = mbps
	m := e.metrics
	runID := e.currentRun
	e.mu.Unlock()
	e.publishMetrics(m, runID, true)
}

func (e *Engine) publishMetrics(m Metrics, runID string, always bool) {
	if !always && !e.metricsLimiter.Allow() {
		return
	}
	e.bus.Publish(eventbus.Event{Type: eventbus.MetricsUpdated, RunID: runID, Data: m})
}

func (e *Engine) publishProgress(p float64, always bool) {
	e.mu.Lock()
	runID := e.currentRun
	e.mu.Unlock()
	if !always && !e.progressLimiter.Allow() {
		return
	}
	e.bus.Publish(eventbus.Event{Type: eventbus.ProgressChanged, RunID: runID, Data: p})
}

// noteOutcome reports connectivity transitions: the first failure after a
// success (or on the very first run) reads as the link going down, the first
// success after a failure as it coming back. The bus always learns the state
// of the first run; the event log only records actual changes.
func (e *Engine) noteOutcome(ok bool) {
	e.mu.Lock()
	changed := e.everRan && ok != e.lastRunOK
	transition := !e.everRan || changed
	e.everRan = true
	e.lastRunOK = ok
	runID := e.currentRun
	e.mu.Unlock()

	if !transition {
		return
	}
	state := "online"
	if !ok {
		state = "offline"
	}
	if changed {
		if ok {
			e.events.Info("Connection restored")
		} else {
			e.events.Info("Connection lost")
		}
	}
	e.bus.Publish(eventbus.Event{Type: eventbus.ConnectivityChanged, RunID: runID, Data: state})
}
