package config

import (
	"sort"
	"strings"

	logx "netpulse/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections plus structured
// attrs describing the new values, suitable for one reload log line.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 16)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
		)
	}

	if oldCfg.Probe != newCfg.Probe {
		changed = append(changed, "probe")
		attrs = append(attrs,
			logx.String("probe.latency_url", strings.TrimSpace(newCfg.Probe.LatencyURL)),
			logx.String("probe.download_url", strings.TrimSpace(newCfg.Probe.DownloadURL)),
			logx.Int64("probe.resource_size_bytes", newCfg.Probe.ResourceSizeBytes),
			logx.Int("probe.probe_count", newCfg.Probe.ProbeCount),
			logx.Int("probe.concurrency", newCfg.Probe.Concurrency),
			logx.String("probe.time_budget", strings.TrimSpace(newCfg.Probe.TimeBudget)),
		)
	}

	if oldCfg.Upload != newCfg.Upload {
		changed = append(changed, "upload")
		attrs = append(attrs,
			logx.String("upload.quality_hint", strings.TrimSpace(newCfg.Upload.QualityHint)))
	}

	if oldCfg.Ramp != newCfg.Ramp {
		changed = append(changed, "ramp")
		attrs = append(attrs,
			logx.Int("ramp.steps", newCfg.Ramp.Steps),
			logx.String("ramp.interval", strings.TrimSpace(newCfg.Ramp.Interval)),
		)
	}

	// Nil storage section means disabled.
	var oDriver, nDriver, oBusy, nBusy string
	var oPathSet, nPathSet bool
	if oldCfg.Storage != nil {
		oDriver = strings.TrimSpace(oldCfg.Storage.Driver)
		oBusy = strings.TrimSpace(oldCfg.Storage.BusyTimeout)
		oPathSet = strings.TrimSpace(oldCfg.Storage.Path) != ""
	}
	if newCfg.Storage != nil {
		nDriver = strings.TrimSpace(newCfg.Storage.Driver)
		nBusy = strings.TrimSpace(newCfg.Storage.BusyTimeout)
		nPathSet = strings.TrimSpace(newCfg.Storage.Path) != ""
	}
	if oDriver != nDriver || oBusy != nBusy || oPathSet != nPathSet {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", nDriver),
			logx.Bool("storage.path_set", nPathSet),
		)
	}

	if oldCfg.Schedule != newCfg.Schedule {
		changed = append(changed, "schedule")
		attrs = append(attrs,
			logx.Bool("schedule.enabled", newCfg.Schedule.Enabled),
			logx.String("schedule.spec", strings.TrimSpace(newCfg.Schedule.Spec)),
			logx.String("schedule.timezone", strings.TrimSpace(newCfg.Schedule.Timezone)),
		)
	}

	if strings.TrimSpace(oldCfg.ISP) != strings.TrimSpace(newCfg.ISP) {
		changed = append(changed, "isp")
		attrs = append(attrs, logx.String("isp", strings.TrimSpace(newCfg.ISP)))
	}

	sort.Strings(changed)
	return changed, attrs
}
