package engine

import (
	"context"
	"fmt"
	"time"

	"netpulse/internal/stats"
)

// latencyResult aggregates one latency phase. The raw samples are discarded
// after aggregation.
type latencyResult struct {
	AvgMs    float64
	JitterMs float64
	P50Ms    float64
	P95Ms    float64
}

// measureLatency issues cfg.ProbeCount probes strictly in sequence:
// concurrent probes would contend with each other and distort the individual
// RTT readings. Each probe advances progress one step inside the 0-20 band.
//
// Any probe failure aborts the whole phase; there is no retry and no partial
// latency result.
func (e *Engine) measureLatency(ctx context.Context, cfg Config) (latencyResult, error) {
	samples := make([]float64, 0, cfg.ProbeCount)
	dist := stats.NewDistribution()

	for i := 0; i < cfg.ProbeCount; i++ {
		res, err := e.fetcher.Fetch(ctx, cfg.LatencyURL)
		if err != nil {
			return latencyResult{}, fmt.Errorf("latency probe %d/%d: %w", i+1, cfg.ProbeCount, err)
		}
		ms := float64(res.Elapsed) / float64(time.Millisecond)
		samples = append(samples, ms)
		dist.Add(ms)
		e.setProgress(latencyProgress(i+1, cfg.ProbeCount))
	}

	if len(samples) == 0 {
		return latencyResult{}, fmt.Errorf("latency phase collected no samples")
	}
	return latencyResult{
		AvgMs:    stats.Average(samples),
		JitterMs: stats.Range(samples),
		P50Ms:    dist.Median(),
		P95Ms:    dist.Percentile(95),
	}, nil
}
