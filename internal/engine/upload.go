package engine

import "strings"

// Upload/download ratios per connection-quality hint. A low-latency wired
// link carries a much higher upload share than a cellular one.
const (
	ratioWired    = 0.40
	ratioWifi     = 0.25
	ratioCellular = 0.10
)

// estimateUpload derives an upload figure from the measured download and the
// host-supplied connection-quality hint.
//
// Upload is NOT independently measured: without a cooperating upload endpoint
// a client cannot issue a controlled large upload. This is an estimate and
// must be presented to the consumer as one. When no hint is available the
// ratio falls back to a ping-derived heuristic.
func estimateUpload(downloadMbps float64, hint string, pingMs float64) float64 {
	if downloadMbps <= 0 {
		return 0
	}
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "ethernet", "wired":
		return downloadMbps * ratioWired
	case "wifi":
		return downloadMbps * ratioWifi
	case "cellular", "mobile":
		return downloadMbps * ratioCellular
	}

	// No usable hint: infer link quality from the measured round-trip time.
	switch {
	case pingMs > 0 && pingMs < 20:
		return downloadMbps * ratioWired
	case pingMs > 0 && pingMs < 60:
		return downloadMbps * ratioWifi
	default:
		return downloadMbps * ratioCellular
	}
}
