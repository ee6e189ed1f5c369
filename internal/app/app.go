// Package app wires the config, storage, engine, and scheduler together and
// owns their lifetimes.
package app

import (
	"context"
	"strings"
	"sync"

	"netpulse/internal/config"
	"netpulse/internal/engine"
	"netpulse/internal/eventbus"
	"netpulse/internal/eventlog"
	"netpulse/internal/history"
	"netpulse/internal/probe"
	"netpulse/internal/scheduler"
	"netpulse/internal/storage"
	logx "netpulse/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	log  logx.Logger

	bus     eventbus.Bus
	store   storage.KV
	hist    *history.Store
	events  *eventlog.Log
	fetcher *probe.HTTPFetcher

	eng   *engine.Engine
	sched *scheduler.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := newLogger(cfg.Logging).With(logx.String("comp", "app"))
	cfgm.SetLogger(newLogger(cfg.Logging).With(logx.String("comp", "config")))

	bus := eventbus.New()
	events := eventlog.New()

	sc, err := cfg.StorageConfig()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	if store != nil {
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}
	hist := history.NewStore(store, log.With(logx.String("comp", "history")))

	fetchTimeout, err := cfg.FetchTimeout()
	if err != nil {
		return nil, err
	}
	fetcher := probe.NewHTTPFetcher(fetchTimeout)

	ec, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}
	eng := engine.New(ec,
		engine.WithLogger(newLogger(cfg.Logging).With(logx.String("comp", "engine"))),
		engine.WithBus(bus),
		engine.WithEventLog(events),
		engine.WithHistory(hist),
		engine.WithFetcher(fetcher),
	)

	sched := scheduler.New(scheduler.Config{
		Enabled:  cfg.Schedule.Enabled,
		Spec:     cfg.Schedule.Spec,
		Timezone: cfg.Schedule.Timezone,
	}, eng.RunTest, log.With(logx.String("comp", "scheduler")))

	return &App{
		cfgm:    cfgm,
		log:     log,
		bus:     bus,
		store:   store,
		hist:    hist,
		events:  events,
		fetcher: fetcher,
		eng:     eng,
		sched:   sched,
	}, nil
}

func newLogger(lc config.LoggingConfig) logx.Logger {
	if lc.Console {
		return logx.NewConsole(lc.Level)
	}
	return logx.NewJSON(lc.Level)
}

func (a *App) Engine() *engine.Engine  { return a.eng }
func (a *App) History() *history.Store { return a.hist }
func (a *App) Events() *eventlog.Log   { return a.events }
func (a *App) Config() *config.Manager { return a.cfgm }

// Start spins up the reporter, scheduler, config watcher, and the reload
// loop. It returns once everything is running; Stop unwinds it.
func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	// transactional config reload: validate before commit/publish
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		return scheduler.Config{
			Enabled:  cfg.Schedule.Enabled,
			Spec:     cfg.Schedule.Spec,
			Timezone: cfg.Schedule.Timezone,
		}.Validate()
	})

	a.startReporter(runCtx)

	if err := a.sched.Start(runCtx); err != nil {
		return err
	}

	sub := a.cfgm.Subscribe(8)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(runCtx, sub)
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgm.Watch(runCtx)
	}()

	a.log.Info("started")
	return nil
}

func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			sections, attrs := config.SummarizeChange(lastApplied, newCfg)
			lastApplied = newCfg
			if len(sections) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				continue
			}

			for _, s := range sections {
				switch s {
				case "storage":
					a.log.Warn("storage config changed; restart required for changes to take effect")
				case "logging":
					a.log.Warn("logging config changed; restart required for changes to take effect")
				}
			}

			if ec, err := newCfg.EngineConfig(); err != nil {
				a.log.Warn("invalid probe config; keeping previous", logx.Err(err))
			} else {
				a.eng.UpdateConfig(ec)
			}

			if err := a.sched.Apply(scheduler.Config{
				Enabled:  newCfg.Schedule.Enabled,
				Spec:     newCfg.Schedule.Spec,
				Timezone: newCfg.Schedule.Timezone,
			}); err != nil {
				a.log.Warn("invalid schedule; keeping previous", logx.Err(err))
			}

			fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
			a.log.Info("config reloaded", fields...)
		}
	}
}

// RunOnce executes a single measurement and blocks until it finishes.
func (a *App) RunOnce(ctx context.Context) {
	a.eng.RunTest(ctx)
}

func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.sched.Stop()
	a.wg.Wait()
	a.fetcher.Close()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("storage close failed", logx.Err(err))
		}
	}
	a.log.Info("stopped")
}
