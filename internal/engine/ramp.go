package engine

import (
	"context"
	"time"
)

// Ramp animates a displayed value from its previous reading toward a newly
// measured target in equal increments on a fixed timer tick. It exists purely
// for perceived responsiveness: it consumes an already-final value and only
// affects display pacing, never the measurement.
type Ramp struct {
	Steps    int
	Interval time.Duration
}

// Run steps from `from` toward `target`, calling publish on every tick. When
// the stepped value reaches or passes the target it is snapped exactly to the
// target and the ticker stops. Context cancellation also snaps to the target
// so a ramp is never left dangling below its final value.
func (r Ramp) Run(ctx context.Context, from, target float64, publish func(float64)) {
	steps := r.Steps
	if steps < 1 {
		steps = defaultRampSteps
	}
	interval := r.Interval
	if interval <= 0 {
		interval = defaultRampInterval
	}
	if from == target {
		publish(target)
		return
	}

	step := (target - from) / float64(steps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	current := from
	for {
		select {
		case <-ctx.Done():
			publish(target)
			return
		case <-ticker.C:
			current += step
			if (step > 0 && current >= target) || (step < 0 && current <= target) {
				publish(target)
				return
			}
			publish(current)
		}
	}
}
