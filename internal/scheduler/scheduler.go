// Package scheduler fires unattended measurement runs on a cron schedule.
// Overlapping fires are harmless: a run that starts while another is active
// is a silent no-op.
package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "netpulse/pkg/logx"
)

type Config struct {
	Enabled  bool
	Spec     string // see NormalizeSpec for accepted forms
	Timezone string // IANA TZ, e.g. "Asia/Jakarta"; empty means Local
}

// Validate checks the schedule without registering it.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	spec, err := NormalizeSpec(c.Spec)
	if err != nil {
		return err
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	_, err = parser.Parse(spec)
	return err
}

// Service owns one cron entry that invokes the run callback.
type Service struct {
	mu sync.Mutex

	log logx.Logger
	cfg Config
	run func(ctx context.Context)

	parser cron.Parser
	c      *cron.Cron

	// ctx is the lifetime handed to Start; fires run under it so Stop/cancel
	// propagates into an in-flight run.
	ctx context.Context
}

func New(cfg Config, run func(ctx context.Context), log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		run:    run,
		log:    log,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Start registers the schedule and starts firing. Disabled configs are a
// no-op; Apply can enable the service later.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	return s.startLocked()
}

func (s *Service) startLocked() error {
	if s.c != nil || !s.cfg.Enabled {
		return nil
	}

	spec, err := NormalizeSpec(s.cfg.Spec)
	if err != nil {
		return err
	}

	loc := s.loadLocationLocked()
	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	ctx := s.ctx
	_, err = c.AddFunc(spec, func() {
		if ctx.Err() != nil {
			return
		}
		s.run(ctx)
	})
	if err != nil {
		return err
	}

	c.Start()
	s.c = c
	s.log.Info("schedule registered",
		logx.String("spec", spec),
		logx.String("tz", loc.String()))
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
	s.log.Info("scheduler stopped")
}

// Apply swaps in a reloaded schedule. The cron entry is recreated only when
// the effective spec, timezone, or enablement actually changed.
func (s *Service) Apply(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	same := s.cfg.Enabled == cfg.Enabled &&
		strings.TrimSpace(s.cfg.Spec) == strings.TrimSpace(cfg.Spec) &&
		strings.TrimSpace(s.cfg.Timezone) == strings.TrimSpace(cfg.Timezone)
	s.cfg = cfg
	if same || s.ctx == nil {
		return nil
	}

	s.stopLocked()
	return s.startLocked()
}

func (s *Service) loadLocationLocked() *time.Location {
	tz := strings.TrimSpace(s.cfg.Timezone)
	if tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local",
			logx.String("tz", tz), logx.Err(err))
		return time.Local
	}
	return loc
}
