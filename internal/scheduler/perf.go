package scheduler

import (
	"fmt"
	"time"

	"ScalpinMonitor/internal/model"
)

// perfWindow keeps a rolling window of per-iteration latency samples for
// the console header. The full series lives in the perf CSV.
type perfWindow struct {
	samples []model.PerfSample
	cap     int
}

func newPerfWindow(capacity int) *perfWindow {
	if capacity <= 0 {
		capacity = 60
	}
	return &perfWindow{cap: capacity}
}

func (w *perfWindow) add(s model.PerfSample) {
	w.samples = append(w.samples, s)
	if len(w.samples) > w.cap {
		w.samples = w.samples[len(w.samples)-w.cap:]
	}
}

// summary returns a one-line average over the window, empty when no samples.
func (w *perfWindow) summary() string {
	if len(w.samples) == 0 {
		return ""
	}
	var build, total time.Duration
	for _, s := range w.samples {
		build += s.Build
		total += s.Total()
	}
	n := time.Duration(len(w.samples))
	return fmt.Sprintf("avg build %s, avg tick %s (n=%d)",
		(build / n).Round(time.Millisecond), (total / n).Round(time.Millisecond), len(w.samples))
}
