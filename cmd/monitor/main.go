package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ScalpinMonitor/internal/config"
	"ScalpinMonitor/internal/engine"
	"ScalpinMonitor/internal/exchange"
	"ScalpinMonitor/internal/mirrorlog"
	"ScalpinMonitor/internal/notifier"
	"ScalpinMonitor/internal/recorder"
	"ScalpinMonitor/internal/scheduler"
	"ScalpinMonitor/internal/sink"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] ScalpinMonitor starting...")

	// Credentials commonly live in a .env next to the binary.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Printf("[WARN] load .env: %v", err)
		}
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init exchange clients
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	var clients []exchange.Client
	for _, name := range cfg.Exchanges {
		c, err := exchange.NewClient(name, cfg.Proxy, timeout)
		if err != nil {
			log.Printf("[WARN] skipping exchange %s: %v", name, err)
			continue
		}
		clients = append(clients, c)
	}
	if len(clients) == 0 {
		log.Fatal("[FATAL] no usable exchanges configured")
	}

	// Init trade executor
	var exec engine.TradeExecutor
	if cfg.SwapperCmd != "" {
		exec = &engine.ProcessExecutor{Command: cfg.SwapperCmd}
		log.Printf("[INFO] swapper command: %s", cfg.SwapperCmd)
	} else {
		exec = &engine.NoopExecutor{}
		log.Println("[INFO] no swapper command configured, triggers are log-only")
	}

	// Init decision engine
	eng := engine.New(engine.Options{
		Anchor:                cfg.Anchor,
		Bridge:                cfg.Bridge,
		MinValueAnchor:        cfg.MinValueAnchor,
		ProfitThresholdPct:    cfg.ProfitActionThresholdPct,
		MirrorCooldownMinutes: cfg.MirrorCooldownMinutes,
		MinAmountMultiplier:   cfg.MinAmountMultiplier,
		StateFile:             cfg.StateFile,
	}, exec)

	// Init mirror log parser
	mirror := mirrorlog.NewParser(cfg.SwapperLogPath, cfg.MirrorTailLines)

	// Init sinks
	sinks, err := sink.New(sink.Paths{
		SnapshotCSV: cfg.Output.SnapshotCSV,
		SnapshotLog: cfg.Output.SnapshotLog,
		HistoryCSV:  cfg.Output.HistoryCSV,
		HistoryLog:  cfg.Output.HistoryLog,
		PerfCSV:     cfg.Output.PerfCSV,
	}, cfg.ClearScreen)
	if err != nil {
		log.Fatalf("[FATAL] init sinks: %v", err)
	}

	// Init recorder
	var rec recorder.Recorder
	if cfg.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init Telegram notifier (optional)
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	if tn.Enabled() {
		log.Println("[INFO] Telegram trigger alerts enabled")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("[INFO] shutdown signal received, stopping...")
		cancel()
	}()

	sched := scheduler.New(cfg, clients, eng, mirror, sinks, rec, tn)
	if err := sched.Run(ctx); err != nil {
		log.Fatalf("[FATAL] monitor loop: %v", err)
	}
	log.Println("[INFO] ScalpinMonitor stopped")
}
