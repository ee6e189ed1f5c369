package engine

// signalStrength classifies the current ping into a 0..100 signal figure.
// Lower round-trip time reads as stronger signal; an unmeasured (zero) ping
// reads as no signal.
func signalStrength(pingMs float64) int {
	switch {
	case pingMs <= 0:
		return 0
	case pingMs < 20:
		return 100 - int(pingMs/2) // 91..100
	case pingMs < 50:
		return 85 - int((pingMs-20)/2) // 71..85
	case pingMs < 100:
		return 65 - int((pingMs-50)/2.5) // 46..65
	case pingMs < 300:
		return 40 - int((pingMs-100)/10) // 21..40
	default:
		return 10
	}
}

// SignalLabel names the strength band for display.
func SignalLabel(strength int) string {
	switch {
	case strength >= 80:
		return "excellent"
	case strength >= 60:
		return "good"
	case strength >= 40:
		return "fair"
	default:
		return "poor"
	}
}
