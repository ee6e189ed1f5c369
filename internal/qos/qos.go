// Package qos maps current metrics to a fixed set of named capability
// verdicts. It is a pure function of its input: no state, no side effects,
// recomputed on demand.
package qos

// Metrics is the slice of engine state the classifier needs.
type Metrics struct {
	DownloadMbps float64
	UploadMbps   float64
	PingMs       float64
}

// Verdict is one named capability check.
type Verdict struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
}

// Evaluate returns the ordered list of capability verdicts for m.
//
// The thresholds are fixed, consumer-facing judgments, not tunables.
func Evaluate(m Metrics) []Verdict {
	return []Verdict{
		{Name: "4K streaming", Passed: m.DownloadMbps > 25},
		{Name: "Online gaming", Passed: m.PingMs > 0 && m.PingMs < 50},
		{Name: "Video calls", Passed: m.DownloadMbps > 10 && m.UploadMbps > 2},
		{Name: "Large file transfer", Passed: m.DownloadMbps > 50},
	}
}
