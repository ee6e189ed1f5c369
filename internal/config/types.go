package config

import (
	"fmt"
	"strings"
	"time"

	"netpulse/internal/engine"
	"netpulse/internal/storage"
)

type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Probe describes the measurement targets and the shape of a run.
	Probe ProbeConfig `json:"probe"`

	Upload UploadConfig `json:"upload,omitempty"`
	Ramp   RampConfig   `json:"ramp,omitempty"`

	// Storage is optional. Nil (or driver "none") disables persistence;
	// result history then lives only in memory.
	Storage *StorageConfig `json:"storage,omitempty"`

	Schedule ScheduleConfig `json:"schedule,omitempty"`

	// ISP is a display string recorded alongside each result. It is never
	// interpreted, only stored and exported.
	ISP string `json:"isp,omitempty"`
}

// ProbeConfig controls what gets fetched and how hard.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
//
// Defaults (when fields are omitted/zero):
//   - probe_count: 5
//   - concurrency: 4
//   - time_budget: "6s"
//   - resource_size_bytes: 5242880 (5 MiB)
//   - http_timeout: "15s"
type ProbeConfig struct {
	// LatencyURL is a small, fast-responding resource used for RTT probes.
	LatencyURL string `json:"latency_url"`
	// DownloadURL serves the sized resource fetched by throughput batches.
	DownloadURL string `json:"download_url"`
	// ResourceSizeBytes is the known size of the resource behind DownloadURL.
	// Throughput math divides by it, so it must match the server side.
	ResourceSizeBytes int64 `json:"resource_size_bytes,omitempty"`

	ProbeCount  int    `json:"probe_count,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
	TimeBudget  string `json:"time_budget,omitempty"`

	// HTTPTimeout caps each individual fetch, not the whole run.
	HTTPTimeout string `json:"http_timeout,omitempty"`
}

// UploadConfig controls the upload estimate.
type UploadConfig struct {
	// QualityHint describes the access medium ("ethernet", "wired", "wifi",
	// "cellular"). Empty means unknown; the estimator then falls back to a
	// ping-derived ratio.
	QualityHint string `json:"quality_hint,omitempty"`
}

// RampConfig paces the display ramp at the end of a run.
type RampConfig struct {
	Steps int `json:"steps,omitempty"`
	// Interval is a Go duration string (e.g. "100ms").
	Interval string `json:"interval,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./netpulse_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// ScheduleConfig controls periodic unattended runs.
type ScheduleConfig struct {
	Enabled bool `json:"enabled"`
	// Spec is a cron expression (5-field, or @every syntax).
	Spec     string `json:"spec,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

type LoggingConfig struct {
	Level   string `json:"level"`
	Console bool   `json:"console"`
}

const defaultHTTPTimeout = 15 * time.Second

// Validate rejects configs the daemon cannot run with. It checks shape only;
// duration strings are parsed again (with defaults) by the mapping helpers.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Probe.LatencyURL) == "" {
		return fmt.Errorf("probe.latency_url is required")
	}
	if strings.TrimSpace(c.Probe.DownloadURL) == "" {
		return fmt.Errorf("probe.download_url is required")
	}
	if c.Probe.ResourceSizeBytes < 0 {
		return fmt.Errorf("probe.resource_size_bytes must be >= 0")
	}
	if c.Probe.ProbeCount < 0 {
		return fmt.Errorf("probe.probe_count must be >= 0")
	}
	if c.Probe.Concurrency < 0 {
		return fmt.Errorf("probe.concurrency must be >= 0")
	}
	for _, f := range []struct{ path, raw string }{
		{"probe.time_budget", c.Probe.TimeBudget},
		{"probe.http_timeout", c.Probe.HTTPTimeout},
		{"ramp.interval", c.Ramp.Interval},
	} {
		if _, err := ParseDurationField(f.path, f.raw); err != nil {
			return err
		}
	}
	if c.Storage != nil {
		if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	if c.Schedule.Enabled && strings.TrimSpace(c.Schedule.Spec) == "" {
		return fmt.Errorf("schedule.spec is required when schedule.enabled")
	}
	return nil
}

// EngineConfig maps the file representation onto the engine's run settings.
// Zero fields stay zero; the engine applies its own defaults per run.
func (c *Config) EngineConfig() (engine.Config, error) {
	budget, err := ParseDurationField("probe.time_budget", c.Probe.TimeBudget)
	if err != nil {
		return engine.Config{}, err
	}
	interval, err := ParseDurationField("ramp.interval", c.Ramp.Interval)
	if err != nil {
		return engine.Config{}, err
	}
	return engine.Config{
		LatencyURL:        strings.TrimSpace(c.Probe.LatencyURL),
		DownloadURL:       strings.TrimSpace(c.Probe.DownloadURL),
		ResourceSizeBytes: c.Probe.ResourceSizeBytes,
		ProbeCount:        c.Probe.ProbeCount,
		Concurrency:       c.Probe.Concurrency,
		TimeBudget:        budget,
		QualityHint:       strings.TrimSpace(c.Upload.QualityHint),
		ISP:               strings.TrimSpace(c.ISP),
		RampSteps:         c.Ramp.Steps,
		RampInterval:      interval,
	}, nil
}

// FetchTimeout returns the per-fetch HTTP timeout.
func (c *Config) FetchTimeout() (time.Duration, error) {
	return ParseDurationOrDefault("probe.http_timeout", c.Probe.HTTPTimeout, defaultHTTPTimeout)
}

// StorageConfig maps the optional storage section. Nil section means disabled.
func (c *Config) StorageConfig() (storage.Config, error) {
	if c.Storage == nil {
		return storage.Config{}, nil
	}
	busy, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      strings.TrimSpace(c.Storage.Driver),
		Path:        strings.TrimSpace(c.Storage.Path),
		BusyTimeout: busy,
	}, nil
}
