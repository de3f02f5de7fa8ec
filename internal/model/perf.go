package model

import "time"

// PerfSample is the per-iteration latency breakdown of the monitor loop.
type PerfSample struct {
	Iteration int
	Build     time.Duration
	Render    time.Duration
	Snapshot  time.Duration
	Log       time.Duration
	History   time.Duration
}

// Total returns the summed duration of all phases.
func (p PerfSample) Total() time.Duration {
	return p.Build + p.Render + p.Snapshot + p.Log + p.History
}
