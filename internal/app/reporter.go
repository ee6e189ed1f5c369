package app

import (
	"context"
	"strings"

	"github.com/dustin/go-humanize"

	"netpulse/internal/engine"
	"netpulse/internal/eventbus"
	"netpulse/internal/history"
	"netpulse/internal/qos"
	logx "netpulse/pkg/logx"
)

// startReporter subscribes a log-only presentation layer to the bus. It is
// the daemon's sole consumer of engine notifications; anything richer (TUI,
// HTTP) would subscribe the same way.
func (a *App) startReporter(ctx context.Context) {
	events, unsub := a.bus.Subscribe(64)
	log := a.log.With(logx.String("comp", "report"))

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.report(log, e)
			}
		}
	}()
}

func (a *App) report(log logx.Logger, e eventbus.Event) {
	switch e.Type {
	case eventbus.RunStarted:
		log.Info("measurement started", logx.String("run_id", e.RunID))

	case eventbus.ProgressChanged:
		if p, ok := e.Data.(float64); ok {
			log.Debug("progress", logx.String("run_id", e.RunID), logx.Float64("pct", p))
		}

	case eventbus.MetricsUpdated:
		if m, ok := e.Data.(engine.Metrics); ok {
			log.Debug("metrics",
				logx.String("run_id", e.RunID),
				logx.Float64("download_mbps", m.DownloadMbps),
				logx.Float64("upload_mbps", m.UploadMbps),
				logx.Float64("ping_ms", m.PingMs),
				logx.String("signal", engine.SignalLabel(m.SignalStrength)))
		}

	case eventbus.RunCompleted:
		r, ok := e.Data.(history.Result)
		if !ok {
			return
		}
		fields := []logx.Field{
			logx.String("run_id", e.RunID),
			logx.String("download_mbps", humanize.CommafWithDigits(r.DownloadMbps, 1)),
			logx.String("upload_mbps_estimated", humanize.CommafWithDigits(r.UploadMbps, 1)),
			logx.String("ping_ms", humanize.CommafWithDigits(r.PingMs, 0)),
			logx.String("jitter_ms", humanize.CommafWithDigits(r.JitterMs, 0)),
		}
		verdicts := qos.Evaluate(qos.Metrics{
			DownloadMbps: r.DownloadMbps,
			UploadMbps:   r.UploadMbps,
			PingMs:       r.PingMs,
		})
		parts := make([]string, 0, len(verdicts))
		for _, v := range verdicts {
			mark := "ok"
			if !v.Passed {
				mark = "no"
			}
			parts = append(parts, v.Name+"="+mark)
		}
		fields = append(fields, logx.String("qos", strings.Join(parts, ", ")))
		log.Info("measurement complete", fields...)

	case eventbus.RunFailed:
		msg, _ := e.Data.(string)
		log.Warn("measurement failed",
			logx.String("run_id", e.RunID), logx.String("reason", msg))

	case eventbus.ConnectivityChanged:
		state, _ := e.Data.(string)
		log.Info("connectivity changed", logx.String("state", state))
	}
}
