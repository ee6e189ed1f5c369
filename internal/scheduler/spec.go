package scheduler

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var reHHMM = regexp.MustCompile(`^\s*(\d{1,3}):(\d{2})\s*$`)

// NormalizeSpec turns a user-facing schedule string into a cron expression
// robfig/cron accepts.
//
// Supported forms:
//   - Cron (crontab.guru-style): "*/5 * * * *", "0 3 * * *", "@hourly", "@every 55m"
//   - Interval duration: "55m", "2h30m"
//   - Interval HH:MM: "00:50" (50 minutes), "02:30" (2 hours 30 minutes)
func NormalizeSpec(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("schedule required")
	}

	// any whitespace or leading '@' means already cron
	if strings.ContainsAny(s, " \t\n\r") || strings.HasPrefix(s, "@") {
		return s, nil
	}

	if m := reHHMM.FindStringSubmatch(s); len(m) == 3 {
		var hh, mm int
		for i := 0; i < len(m[1]); i++ {
			hh = hh*10 + int(m[1][i]-'0')
		}
		mm = int(m[2][0]-'0')*10 + int(m[2][1]-'0')
		if mm > 59 {
			return "", fmt.Errorf("invalid minutes in %q", raw)
		}
		d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
		if d <= 0 {
			return "", fmt.Errorf("interval must be > 0")
		}
		return "@every " + d.String(), nil
	}

	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return "", fmt.Errorf("interval must be > 0")
		}
		return "@every " + d.String(), nil
	}

	return "", fmt.Errorf(
		"invalid schedule %q (use cron like '*/5 * * * *', HH:MM like '02:30', or duration like '55m')",
		raw,
	)
}
