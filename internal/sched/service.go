// Package sched triggers generation runs on a cron schedule and relays
// completion events into completion-triggered rotation.
//
// The service is trigger-only: all generation semantics live in package
// engine, all correctness guarantees in package store. The in-process
// guards here (rate limit + in-flight flag) only keep redundant runs cheap;
// the storage dedup key and CAS remain the backstop if they are bypassed.
package sched

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"chorewheel/internal/engine"
	"chorewheel/internal/eventbus"
	"chorewheel/internal/recurrence"
	logx "chorewheel/pkg/logx"
)

type Config struct {
	Enabled     bool
	Schedule    string // cron spec, e.g. "0 3 * * *"
	Timezone    string // IANA TZ; empty means local
	HorizonDays int
	Households  []string
	MinInterval time.Duration // 0 disables the trigger throttle
}

type Service struct {
	mu  sync.Mutex
	cfg Config

	log  logx.Logger
	orch *engine.Orchestrator
	bus  eventbus.Bus

	parser  cron.Parser
	c       *cron.Cron
	entry   cron.EntryID
	limiter *rate.Limiter

	inFlight atomic.Bool

	busUnsub func()
	busWG    sync.WaitGroup
}

func New(cfg Config, orch *engine.Orchestrator, log logx.Logger, bus eventbus.Bus) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{
		cfg:  cfg,
		log:  log,
		orch: orch,
		bus:  bus,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
	s.applyLimiterLocked(cfg.MinInterval)
	return s
}

func (s *Service) applyLimiterLocked(min time.Duration) {
	if min <= 0 {
		s.limiter = nil
		return
	}
	s.limiter = rate.NewLimiter(rate.Every(min), 1)
}

// Apply swaps the config at runtime (hot reload).
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()

	restart := s.c != nil &&
		(cfg.Schedule != s.cfg.Schedule || strings.TrimSpace(cfg.Timezone) != strings.TrimSpace(s.cfg.Timezone))
	s.cfg = cfg
	s.applyLimiterLocked(cfg.MinInterval)
	if restart {
		s.stopCronLocked()
		s.startCronLocked(context.Background())
	}
}

// Start begins cron triggering and the completion-event relay.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	if !s.cfg.Enabled {
		s.log.Info("scheduled generation disabled")
		return
	}
	s.startCronLocked(ctx)
	s.subscribeCompletionsLocked(ctx)
}

func (s *Service) startCronLocked(ctx context.Context) {
	loc := time.Local
	if tz := strings.TrimSpace(s.cfg.Timezone); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			s.log.Warn("invalid timezone; using local", logx.String("tz", tz), logx.Err(err))
		} else {
			loc = l
		}
	}
	s.orch.SetLocation(loc)

	c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
	id, err := c.AddFunc(s.cfg.Schedule, func() { s.TriggerNow(ctx) })
	if err != nil {
		s.log.Error("invalid generation schedule", logx.String("schedule", s.cfg.Schedule), logx.Err(err))
		return
	}
	s.c = c
	s.entry = id
	c.Start()
	s.log.Info("scheduled generation started",
		logx.String("schedule", s.cfg.Schedule),
		logx.String("tz", loc.String()),
		logx.Int("households", len(s.cfg.Households)))
}

func (s *Service) subscribeCompletionsLocked(ctx context.Context) {
	if s.bus == nil {
		return
	}
	ch, unsub := s.bus.Subscribe(32)
	s.busUnsub = unsub
	s.busWG.Add(1)
	go func() {
		defer s.busWG.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if ev.Type != engine.EventTaskCompleted {
					continue
				}
				done, ok := ev.Data.(engine.TaskCompleted)
				if !ok || done.RotatingTaskID == "" {
					continue
				}
				out, err := s.orch.GenerateRotation(ctx, done.RotatingTaskID, engine.SourceCompletion)
				if err != nil {
					s.log.Error("completion-triggered rotation failed",
						logx.Err(err), logx.String("rotating_task", done.RotatingTaskID))
					continue
				}
				s.log.Debug("completion-triggered rotation",
					logx.String("rotating_task", done.RotatingTaskID),
					logx.String("status", string(out.Status)),
					logx.String("reason", out.Reason))
			}
		}
	}()
}

// Stop halts cron triggering and the event relay. In-flight runs finish.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	s.stopCronLocked()
	unsub := s.busUnsub
	s.busUnsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	done := make(chan struct{})
	go func() {
		s.busWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		// best-effort
	}
	s.log.Info("scheduler stopped")
}

func (s *Service) stopCronLocked() {
	if s.c == nil {
		return
	}
	s.c.Stop()
	s.c = nil
}

// TriggerNow runs generation for every configured household over
// [today, today+horizon]. Redundant triggers are throttled and collapsed;
// overlapping runs are never started concurrently from this process.
func (s *Service) TriggerNow(ctx context.Context) {
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	s.mu.Unlock()

	if lim != nil && !lim.Allow() {
		s.log.Debug("generation trigger throttled")
		return
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Debug("generation already running; trigger ignored")
		return
	}
	defer s.inFlight.Store(false)

	today := recurrence.DateOf(time.Now())
	windowEnd := today.AddDays(cfg.HorizonDays)
	for _, hh := range cfg.Households {
		res, err := s.orch.Run(ctx, hh, today, windowEnd)
		if err != nil {
			s.log.Error("generation run failed", logx.Err(err), logx.String("household", hh))
			continue
		}
		if len(res.Errors) > 0 {
			s.log.Warn("generation run finished with errors",
				logx.String("household", hh), logx.Int("errors", len(res.Errors)))
		}
	}
}
