package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"netpulse/internal/stats"
)

// throughputSample is one batch's derived bandwidth, kept only for the
// duration of the run.
type throughputSample struct {
	Mbps float64
	At   time.Time
}

// measureThroughput repeatedly launches batches of concurrent full-body
// fetches of the sized resource until the time budget is exhausted. Batches
// run strictly in sequence; probes within a batch run concurrently and are
// joined before the next batch starts, so a batch is only as fast as its
// slowest member. A batch in flight when the budget expires is allowed to
// finish.
//
// Each batch yields one bandwidth sample; the running arithmetic mean of all
// samples so far is published as the live download metric (a progressive
// estimate, not the final value).
func (e *Engine) measureThroughput(ctx context.Context, cfg Config) ([]float64, error) {
	resourceBits := cfg.ResourceSizeBytes * 8

	start := time.Now()
	var samples []float64

	for time.Since(start) < cfg.TimeBudget {
		batchStart := time.Now()
		if err := e.runBatch(ctx, cfg); err != nil {
			return nil, err
		}
		batchSeconds := time.Since(batchStart).Seconds()
		if batchSeconds <= 0 {
			return nil, fmt.Errorf("throughput batch finished with zero duration")
		}

		mbps := float64(resourceBits*int64(cfg.Concurrency)) / batchSeconds / (1024 * 1024)
		samples = append(samples, mbps)

		e.setDownload(stats.Average(samples))
		e.setProgress(throughputProgress(time.Since(start).Seconds(), cfg.TimeBudget.Seconds()))
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("throughput phase collected no samples")
	}
	return samples, nil
}

// runBatch fans out `concurrency` probes and joins them all. Failure is
// all-or-nothing: if any batch member fails, the batch fails.
func (e *Engine) runBatch(ctx context.Context, cfg Config) error {
	var wg sync.WaitGroup
	errCh := make(chan error, cfg.Concurrency)

	for worker := 0; worker < cfg.Concurrency; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.fetcher.Fetch(ctx, cfg.DownloadURL); err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return fmt.Errorf("throughput batch: %w", err)
	}
	return nil
}
