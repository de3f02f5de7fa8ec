package model

// Row is the per-tick output record for one (exchange, asset) pair.
type Row struct {
	Exchange    string
	Asset       string
	Anchor      string
	ValorAnchor float64 // balance converted to anchor units
	ProfitPct   float64 // tick-over-tick change of the anchor rate, in percent
	AcumPct     float64 // change of valor since the first observation, display only
	Mirror      string  // latest mirror signal, empty when none
	Accion      string  // empty, a "Paused (...)" reason, or a trigger description
}

// Triggered reports whether the row fired a trade trigger this tick.
func (r Row) Triggered() bool {
	return len(r.Accion) > 0 && r.Accion[0] == '@'
}
