package engine

import "math"

// Progress bands. Phases own disjoint, ordered percentage slices so overall
// progress stays monotonic across phase transitions.
const (
	latencyBandEnd    = 20.0
	throughputBandEnd = 80.0
	progressDone      = 100.0
)

// latencyProgress maps "probesDone of probeCount" into the 0-20 band.
func latencyProgress(probesDone, probeCount int) float64 {
	if probeCount < 1 {
		return 0
	}
	return latencyBandEnd * float64(probesDone) / float64(probeCount)
}

// throughputProgress maps elapsed measurement time into the 20-80 band,
// capped at the band end once the budget is exhausted.
func throughputProgress(elapsed, budget float64) float64 {
	if budget <= 0 {
		return throughputBandEnd
	}
	return math.Min(latencyBandEnd+(elapsed/budget)*60, throughputBandEnd)
}

// setProgress clamps to the monotonic invariant: within one run progress
// never decreases and never exceeds 100.
func (e *Engine) setProgress(p float64) {
	e.mu.Lock()
	if p > progressDone {
		p = progressDone
	}
	if p <= e.progress {
		e.mu.Unlock()
		return
	}
	e.progress = p
	e.mu.Unlock()
	e.publishProgress(p, false)
}

// forceProgress jumps straight to the terminal value on run end, success or
// failure, and always publishes.
func (e *Engine) forceProgress() {
	e.mu.Lock()
	e.progress = progressDone
	e.mu.Unlock()
	e.publishProgress(progressDone, true)
}

// resetProgress starts a new run at zero. Only valid while holding the run
// exclusively.
func (e *Engine) resetProgress() {
	e.mu.Lock()
	e.progress = 0
	e.mu.Unlock()
	e.publishProgress(0, true)
}
