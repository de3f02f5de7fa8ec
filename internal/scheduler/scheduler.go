// Package scheduler drives the monitor loop: one iteration at a fixed
// interval, per-exchange fetches fanned out on a bounded worker pool, and
// each output sink on its own cadence.
package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"ScalpinMonitor/internal/config"
	"ScalpinMonitor/internal/engine"
	"ScalpinMonitor/internal/exchange"
	"ScalpinMonitor/internal/mirrorlog"
	"ScalpinMonitor/internal/model"
	"ScalpinMonitor/internal/notifier"
	"ScalpinMonitor/internal/rates"
	"ScalpinMonitor/internal/recorder"
	"ScalpinMonitor/internal/sink"
)

// Scheduler coordinates the monitor loop and owns all collaborators.
type Scheduler struct {
	Cfg      *config.Config
	Clients  []exchange.Client
	Engine   *engine.Engine
	Mirror   *mirrorlog.Parser
	Sinks    *sink.Sinks
	Recorder recorder.Recorder
	Notifier *notifier.TelegramNotifier

	perf *perfWindow
	cron *cron.Cron
}

// New creates a Scheduler.
func New(cfg *config.Config, clients []exchange.Client, eng *engine.Engine,
	mirror *mirrorlog.Parser, sinks *sink.Sinks, rec recorder.Recorder,
	tn *notifier.TelegramNotifier) *Scheduler {
	return &Scheduler{
		Cfg:      cfg,
		Clients:  clients,
		Engine:   eng,
		Mirror:   mirror,
		Sinks:    sinks,
		Recorder: rec,
		Notifier: tn,
		perf:     newPerfWindow(60),
	}
}

// Run executes iterations until max_iterations, run_duration_sec, or
// context cancellation, whichever comes first. An error inside one
// iteration never stops the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	start := time.Now()
	interval := time.Duration(s.Cfg.PollIntervalSec * float64(time.Second))

	var deadline time.Time
	if s.Cfg.RunDurationSec > 0 {
		deadline = start.Add(time.Duration(s.Cfg.RunDurationSec * float64(time.Second)))
	}

	if s.Cfg.HistoryRotateCron != "" {
		s.cron = cron.New(cron.WithSeconds())
		if _, err := s.cron.AddFunc(s.Cfg.HistoryRotateCron, func() {
			if err := s.Sinks.RotateHistory(time.Now()); err != nil {
				log.Printf("[WARN] rotate history: %v", err)
			} else {
				log.Println("[INFO] history files rotated")
			}
		}); err != nil {
			log.Printf("[WARN] invalid history_rotate_cron %q: %v", s.Cfg.HistoryRotateCron, err)
		} else {
			s.cron.Start()
			defer s.cron.Stop()
		}
	}

	for iter := 1; ; iter++ {
		if ctx.Err() != nil {
			log.Println("[INFO] context cancelled, stopping loop")
			return nil
		}
		if s.Cfg.MaxIterations > 0 && iter > s.Cfg.MaxIterations {
			log.Printf("[INFO] reached max_iterations=%d, stopping", s.Cfg.MaxIterations)
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			log.Printf("[INFO] reached run_duration_sec=%.0f, stopping", s.Cfg.RunDurationSec)
			return nil
		}

		s.iterate(ctx, iter, start)

		select {
		case <-ctx.Done():
			log.Println("[INFO] context cancelled, stopping loop")
			return nil
		case <-time.After(interval):
		}
	}
}

// iterate runs one tick: fetch, decide, and write each sink on its cadence.
func (s *Scheduler) iterate(ctx context.Context, iter int, start time.Time) {
	now := time.Now()
	sample := model.PerfSample{Iteration: iter}

	tBuild := time.Now()
	snaps := s.collect(ctx)
	mirror := s.Mirror.Snapshot()
	rows := s.Engine.BuildRows(snaps, mirror)
	sample.Build = time.Since(tBuild)

	s.notifyTriggers(ctx, now, rows)

	header := sink.Header{
		Iteration: iter,
		Elapsed:   time.Since(start),
		PerfLine:  s.perf.summary(),
	}

	if iter%s.Cfg.RenderEveryN == 0 {
		t := time.Now()
		s.Sinks.Render(header, rows)
		sample.Render = time.Since(t)
	}
	if iter%s.Cfg.SnapshotEveryN == 0 {
		t := time.Now()
		if err := s.Sinks.WriteSnapshotCSV(rows); err != nil {
			log.Printf("[WARN] write snapshot csv: %v", err)
		}
		sample.Snapshot = time.Since(t)
	}
	if iter%s.Cfg.LogEveryN == 0 {
		t := time.Now()
		if err := s.Sinks.WriteSnapshotLog(header, rows); err != nil {
			log.Printf("[WARN] write snapshot log: %v", err)
		}
		sample.Log = time.Since(t)
	}
	if iter%s.Cfg.HistoryEveryN == 0 {
		t := time.Now()
		if err := s.Sinks.AppendHistory(now, rows); err != nil {
			log.Printf("[WARN] append history: %v", err)
		}
		if err := s.Recorder.RecordRows(now, iter, rows); err != nil {
			log.Printf("[WARN] record rows: %v", err)
		}
		sample.History = time.Since(t)
	}

	s.perf.add(sample)
	if err := s.Sinks.AppendPerf(now, sample); err != nil {
		log.Printf("[WARN] append perf: %v", err)
	}
}

// collect fans out one worker per exchange, bounded by the configured
// concurrency. Workers only read; the returned snapshots are merged in
// client order so the engine's serial state updates stay deterministic.
func (s *Scheduler) collect(ctx context.Context) []engine.Snapshot {
	limit := s.Cfg.Concurrency
	if limit <= 0 {
		limit = len(s.Clients)
	}
	sem := make(chan struct{}, limit)
	snaps := make([]engine.Snapshot, len(s.Clients))

	var wg sync.WaitGroup
	for i, c := range s.Clients {
		wg.Add(1)
		go func(i int, c exchange.Client) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			snaps[i] = s.fetchExchange(ctx, c)
		}(i, c)
	}
	wg.Wait()
	return snaps
}

// fetchExchange gathers one exchange's balances and anchor prices. Every
// failure degrades to an empty result: one bad venue contributes no rows,
// nothing more.
func (s *Scheduler) fetchExchange(ctx context.Context, c exchange.Client) engine.Snapshot {
	cctx, cancel := context.WithTimeout(ctx, time.Duration(s.Cfg.TimeoutMS)*time.Millisecond)
	defer cancel()

	if err := c.LoadMarkets(cctx); err != nil {
		log.Printf("[WARN] %s: load markets: %v", c.Name(), err)
	}

	balances, err := c.FetchBalances(cctx)
	if err != nil {
		log.Printf("[WARN] %s: fetch balances: %v", c.Name(), err)
		balances = map[string]float64{}
	}

	assets := make([]string, 0, len(balances))
	for a := range balances {
		assets = append(assets, a)
	}

	prices := map[string]float64{}
	if len(assets) > 0 {
		pairs := rates.CandidatePairs(assets, s.Cfg.Anchor, s.Cfg.Bridge)
		book, err := c.FetchTickers(cctx, pairs)
		if err != nil {
			log.Printf("[WARN] %s: fetch tickers: %v", c.Name(), err)
			book = model.TickerBook{}
		}
		prices = rates.PricesInAnchor(book, assets, s.Cfg.Anchor, s.Cfg.Bridge)
	}

	return engine.Snapshot{
		Exchange: c.Name(),
		Balances: balances,
		Prices:   prices,
		Limits:   c,
	}
}

// notifyTriggers records fired triggers and sends the optional alert.
func (s *Scheduler) notifyTriggers(ctx context.Context, now time.Time, rows []model.Row) {
	for _, row := range rows {
		if !row.Triggered() {
			continue
		}
		if err := s.Recorder.RecordTrigger(now, row); err != nil {
			log.Printf("[WARN] record trigger: %v", err)
		}
		if s.Notifier != nil && s.Notifier.Enabled() {
			msg := notifier.FormatTrigger(row)
			go func() {
				if err := s.Notifier.SendWithRetry(ctx, msg, 3); err != nil {
					log.Printf("[WARN] send trigger alert: %v", err)
				}
			}()
		}
	}
}
