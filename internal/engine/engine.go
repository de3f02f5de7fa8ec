// Package engine builds the per-tick rows and decides when a rebalancing
// trade is triggered. The decision is recomputed fresh every tick from
// external signals; the only state carried across ticks is the previous
// price and the first-seen valor per (exchange, asset) key.
package engine

import (
	"fmt"
	"log"
	"sort"
	"time"

	"ScalpinMonitor/internal/model"
)

// Options holds the decision thresholds.
type Options struct {
	Anchor                string
	Bridge                string
	MinValueAnchor        float64
	ProfitThresholdPct    float64
	MirrorCooldownMinutes float64
	MinAmountMultiplier   float64
	// StateFile, when set, persists first-seen valores across restarts.
	StateFile string
}

// LimitSource resolves minimum order constraints for a market.
type LimitSource interface {
	MarketLimits(base, quote string) (model.MarketLimit, bool)
}

// Snapshot is one exchange's per-tick fetch result, produced by a worker
// and consumed serially by the engine.
type Snapshot struct {
	Exchange string
	Balances map[string]float64
	Prices   map[string]float64 // anchor rate per asset; absent = no route
	Limits   LimitSource
}

// Engine is the row builder and trigger state machine. Not safe for
// concurrent use: BuildRows is only ever called from the loop goroutine.
type Engine struct {
	opts Options
	exec TradeExecutor

	lastPrice    map[string]float64
	initialValor map[string]float64

	now func() time.Time
}

// New creates an Engine; initial valores are loaded from the state file
// when one is configured.
func New(opts Options, exec TradeExecutor) *Engine {
	if exec == nil {
		exec = &NoopExecutor{}
	}
	e := &Engine{
		opts:         opts,
		exec:         exec,
		lastPrice:    make(map[string]float64),
		initialValor: make(map[string]float64),
		now:          time.Now,
	}
	if opts.StateFile != "" {
		saved, err := loadInitialValor(opts.StateFile)
		if err != nil {
			log.Printf("[WARN] load state file %s: %v", opts.StateFile, err)
		} else {
			e.initialValor = saved
		}
	}
	return e
}

func key(exchange, asset string) string { return exchange + ":" + asset }

// BuildRows computes the rows for one iteration and fires at most one
// trigger per (exchange, asset). Snapshots are processed in the given
// order, assets alphabetically, so output is deterministic.
func (e *Engine) BuildRows(snaps []Snapshot, mirror map[model.MirrorKey]model.MirrorState) []model.Row {
	var rows []model.Row
	stateDirty := false

	for _, snap := range snaps {
		assets := make([]string, 0, len(snap.Balances))
		for a := range snap.Balances {
			assets = append(assets, a)
		}
		sort.Strings(assets)

		for _, asset := range assets {
			// The anchor cannot be swapped into itself.
			if asset == e.opts.Anchor {
				continue
			}
			rate, ok := snap.Prices[asset]
			if !ok || rate <= 0 {
				continue
			}
			amount := snap.Balances[asset]
			valor := amount * rate

			k := key(snap.Exchange, asset)
			profit := 0.0
			if prev, seen := e.lastPrice[k]; seen && prev > 0 {
				profit = (rate/prev - 1) * 100
			}
			e.lastPrice[k] = rate

			// Dust rows are dropped before reaching any sink, but the price
			// history above is still advanced.
			if valor < e.opts.MinValueAnchor {
				continue
			}

			if _, seen := e.initialValor[k]; !seen {
				e.initialValor[k] = valor
				stateDirty = true
			}
			acum := 0.0
			if initial := e.initialValor[k]; initial > 0 {
				acum = (valor/initial - 1) * 100
			}

			ms, hasMirror := mirror[model.MirrorKey{Exchange: snap.Exchange, Currency: asset}]

			row := model.Row{
				Exchange:    snap.Exchange,
				Asset:       asset,
				Anchor:      e.opts.Anchor,
				ValorAnchor: valor,
				ProfitPct:   profit,
				AcumPct:     acum,
			}
			if hasMirror {
				row.Mirror = fmt.Sprintf("%s (%s)", ms.Status, e.age(ms).Round(time.Second))
			}
			row.Accion = e.decide(snap, asset, amount, valor, profit, ms, hasMirror)
			rows = append(rows, row)
		}
	}

	if stateDirty && e.opts.StateFile != "" {
		if err := saveInitialValor(e.opts.StateFile, e.initialValor); err != nil {
			log.Printf("[WARN] save state file: %v", err)
		}
	}
	return rows
}

func (e *Engine) age(ms model.MirrorState) time.Duration {
	return e.now().Sub(ms.Timestamp)
}

// decide runs the gate chain for one eligible pair and submits the trigger
// when every gate passes. Order matters: mirror pending beats cooldown
// beats limit checks.
func (e *Engine) decide(snap Snapshot, asset string, amount, valor, profit float64, ms model.MirrorState, hasMirror bool) string {
	if profit <= e.opts.ProfitThresholdPct {
		return ""
	}

	if hasMirror {
		age := e.age(ms)
		if ms.Status == model.MirrorPending {
			return fmt.Sprintf("Paused (mirror pendiente %s)", age.Round(time.Second))
		}
		cooldown := time.Duration(e.opts.MirrorCooldownMinutes * float64(time.Minute))
		if age < cooldown {
			return fmt.Sprintf("Paused (cooldown %.1f/%.1f min)", age.Minutes(), e.opts.MirrorCooldownMinutes)
		}
	}

	if lim, ok := snap.Limits.MarketLimits(asset, e.opts.Anchor); ok {
		if lim.MinCost > 0 && valor < lim.MinCost {
			return fmt.Sprintf("Paused (debajo mínimo: notional %.2f < %.2f)", valor, lim.MinCost)
		}
		// On inverted markets the minimum amount is in anchor units.
		available, floor := amount, lim.MinAmount*e.opts.MinAmountMultiplier
		if lim.Inverted {
			available = valor
		}
		if lim.MinAmount > 0 && available < floor {
			return fmt.Sprintf("Paused (debajo mínimo: amount %.8f < %.8f)", available, floor)
		}
	}

	accion := fmt.Sprintf("@%s swap %s->%s->%s", snap.Exchange, asset, e.opts.Anchor, asset)
	if err := e.exec.Submit(snap.Exchange, asset, e.opts.Anchor); err != nil {
		log.Printf("[WARN] submit trade %s: %v", accion, err)
	}
	return accion
}
