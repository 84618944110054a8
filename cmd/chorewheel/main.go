package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"chorewheel/internal/config"
	"chorewheel/internal/engine"
	"chorewheel/internal/eventbus"
	"chorewheel/internal/recurrence"
	"chorewheel/internal/sched"
	"chorewheel/internal/store"
	logx "chorewheel/pkg/logx"
)

const usage = `usage: chorewheel [-config path] <command>

commands:
  serve                                 run the generation daemon
  generate <household> [start] [end]    run one generation window (dates YYYY-MM-DD)
  rotate <rotating-task-id>             advance one rotating task now
`

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config yaml/json")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string, args []string) error {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console || !cfg.Logging.File.Enabled,
		File:    logx.FileConfig{Enabled: cfg.Logging.File.Enabled, Path: cfg.Logging.File.Path},
	})
	defer logSvc.Close()
	mgr.SetLogger(log)

	busy, err := cfg.BusyTimeoutDuration()
	if err != nil {
		return err
	}
	st, err := store.Open(store.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("component", "store")))
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	bus := eventbus.New()
	orch := engine.New(st, log.With(logx.String("component", "engine")), bus)

	if len(args) == 0 {
		args = []string{"serve"}
	}
	switch args[0] {
	case "serve":
		return serve(ctx, mgr, cfg, orch, logSvc, log, bus)
	case "generate":
		return generateOnce(ctx, cfg, orch, args[1:])
	case "rotate":
		if len(args) != 2 {
			return errors.New(usage)
		}
		out, err := orch.GenerateRotation(ctx, args[1], engine.SourceManual)
		if err != nil {
			return err
		}
		fmt.Printf("status=%s reason=%q member=%s task=%s\n", out.Status, out.Reason, out.MemberID, out.TaskID)
		return nil
	default:
		return errors.New(usage)
	}
}

func generateOnce(ctx context.Context, cfg *config.Config, orch *engine.Orchestrator, args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return errors.New(usage)
	}
	household := args[0]

	start := recurrence.DateOf(time.Now())
	end := start.AddDays(cfg.Generate.HorizonDays)
	var err error
	if len(args) >= 2 {
		if start, err = recurrence.ParseDate(args[1]); err != nil {
			return err
		}
		end = start.AddDays(cfg.Generate.HorizonDays)
	}
	if len(args) == 3 {
		if end, err = recurrence.ParseDate(args[2]); err != nil {
			return err
		}
	}

	res, err := orch.Run(ctx, household, start, end)
	if err != nil {
		return err
	}
	fmt.Printf("inserted=%d skipped=%d errors=%d took=%s\n",
		res.Inserted, res.Skipped, len(res.Errors), res.Duration)
	for _, e := range res.Errors {
		fmt.Println("  error:", e)
	}
	return nil
}

func serve(ctx context.Context, mgr *config.Manager, cfg *config.Config, orch *engine.Orchestrator, logSvc *logx.Service, log logx.Logger, bus eventbus.Bus) error {
	schedCfg, err := schedConfig(cfg)
	if err != nil {
		return err
	}
	svc := sched.New(schedCfg, orch, log.With(logx.String("component", "sched")), bus)
	svc.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc.Stop(stopCtx)
	}()

	// Hot reload: logging and scheduling follow the config file.
	updates := mgr.Subscribe(1)
	defer mgr.Unsubscribe(updates)
	go func() {
		if err := mgr.Watch(ctx); err != nil {
			log.Warn("config watch stopped", logx.Err(err))
		}
	}()
	go func() {
		for next := range updates {
			logSvc.Apply(logx.Config{
				Level:   next.Logging.Level,
				Console: next.Logging.Console || !next.Logging.File.Enabled,
				File:    logx.FileConfig{Enabled: next.Logging.File.Enabled, Path: next.Logging.File.Path},
			})
			if sc, err := schedConfig(next); err != nil {
				log.Warn("config update rejected", logx.Err(err))
			} else {
				svc.Apply(sc)
			}
		}
	}()

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn("sd_notify failed", logx.Err(err))
	} else if ok {
		log.Debug("sd_notify ready sent")
	}
	log.Info("chorewheel serving", logx.String("schedule", schedCfg.Schedule))

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	return nil
}

func schedConfig(cfg *config.Config) (sched.Config, error) {
	min, err := cfg.MinIntervalDuration()
	if err != nil {
		return sched.Config{}, err
	}
	return sched.Config{
		Enabled:     cfg.Generate.Enabled,
		Schedule:    cfg.Generate.Schedule,
		Timezone:    cfg.Generate.Timezone,
		HorizonDays: cfg.Generate.HorizonDays,
		Households:  cfg.Generate.Households,
		MinInterval: min,
	}, nil
}
