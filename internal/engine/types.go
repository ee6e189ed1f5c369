package engine

import "time"

// Metrics is the live, displayed measurement state. Exactly one instance
// lives inside the Engine; consumers read snapshots via Engine.Metrics().
type Metrics struct {
	DownloadMbps   float64 `json:"download_mbps"`
	UploadMbps     float64 `json:"upload_mbps"`
	PingMs         float64 `json:"ping_ms"`
	JitterMs       float64 `json:"jitter_ms"`
	SignalStrength int     `json:"signal_strength"` // 0..100
}

// Config controls how a test run is executed. Zero fields fall back to the
// defaults applied at the top of RunTest.
type Config struct {
	// LatencyURL is the well-known, lightweight resource used for RTT probes.
	LatencyURL string
	// DownloadURL serves the sized resource fetched by throughput batches.
	DownloadURL string
	// ResourceSizeBytes is the known size of the resource behind DownloadURL.
	ResourceSizeBytes int64

	// ProbeCount is how many sequential latency probes to issue.
	ProbeCount int
	// Concurrency is the fan-out of each throughput batch.
	Concurrency int
	// TimeBudget bounds the throughput phase. Batches are not interrupted
	// mid-flight, so a run can slightly exceed it.
	TimeBudget time.Duration

	// QualityHint is the host-supplied connection-quality descriptor
	// ("ethernet", "wifi", "cellular"). Empty means unknown; the upload
	// estimator then falls back to a ping-derived heuristic.
	QualityHint string

	// ISP is opaque display data recorded with each result.
	ISP string

	// RampSteps and RampInterval pace the display ramp at the end of a run.
	RampSteps    int
	RampInterval time.Duration
}

const (
	defaultProbeCount   = 5
	defaultConcurrency  = 4
	defaultTimeBudget   = 6 * time.Second
	defaultRampSteps    = 20
	defaultRampInterval = 100 * time.Millisecond
	defaultResourceSize = 5 * 1024 * 1024
)

func (c Config) withDefaults() Config {
	if c.ProbeCount < 1 {
		c.ProbeCount = defaultProbeCount
	}
	if c.Concurrency < 1 {
		c.Concurrency = defaultConcurrency
	}
	if c.TimeBudget <= 0 {
		c.TimeBudget = defaultTimeBudget
	}
	if c.RampSteps < 1 {
		c.RampSteps = defaultRampSteps
	}
	if c.RampInterval <= 0 {
		c.RampInterval = defaultRampInterval
	}
	if c.ResourceSizeBytes <= 0 {
		c.ResourceSizeBytes = defaultResourceSize
	}
	return c
}
