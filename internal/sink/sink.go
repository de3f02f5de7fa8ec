// Package sink renders and persists the per-tick rows. Persistence is
// best-effort: every writer returns errors for the caller to log, and no
// failure here may stop the monitor loop.
package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ScalpinMonitor/internal/model"
)

// csvColumns is the fixed snapshot schema; history prepends a ts column.
var csvColumns = []string{"exchange", "asset", "anchor", "valor_anchor", "profit_pct", "mirror", "accion"}

// Paths names every output file of the monitor.
type Paths struct {
	SnapshotCSV string
	SnapshotLog string
	HistoryCSV  string
	HistoryLog  string
	PerfCSV     string
}

// Sinks owns all presentation and persistence targets.
type Sinks struct {
	paths       Paths
	clearScreen bool
	out         io.Writer
}

// New creates the sinks and ensures the output directories exist.
func New(paths Paths, clearScreen bool) (*Sinks, error) {
	for _, p := range []string{paths.SnapshotCSV, paths.SnapshotLog, paths.HistoryCSV, paths.HistoryLog, paths.PerfCSV} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return nil, fmt.Errorf("create output dir for %s: %w", p, err)
		}
	}
	return &Sinks{paths: paths, clearScreen: clearScreen, out: os.Stdout}, nil
}

// SetOutput redirects the console render; used by tests.
func (s *Sinks) SetOutput(w io.Writer) { s.out = w }

func csvRecord(r model.Row) []string {
	return []string{
		r.Exchange,
		r.Asset,
		r.Anchor,
		strconv.FormatFloat(r.ValorAnchor, 'f', 6, 64),
		strconv.FormatFloat(r.ProfitPct, 'f', 4, 64),
		r.Mirror,
		r.Accion,
	}
}

// WriteSnapshotCSV atomically replaces the snapshot CSV: external readers
// see either the old or the new complete file, never a partial write.
func (s *Sinks) WriteSnapshotCSV(rows []model.Row) error {
	return writeAtomic(s.paths.SnapshotCSV, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(csvColumns); err != nil {
			return err
		}
		for _, r := range rows {
			if err := cw.Write(csvRecord(r)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// WriteSnapshotLog atomically replaces the human-readable snapshot.
func (s *Sinks) WriteSnapshotLog(header Header, rows []model.Row) error {
	return writeAtomic(s.paths.SnapshotLog, func(w io.Writer) error {
		writeHeader(w, header)
		renderTable(w, rows)
		return nil
	})
}

// AppendHistory appends the rows with an explicit timestamp to the history
// CSV and log. The column header is written once, when the file is empty.
func (s *Sinks) AppendHistory(ts time.Time, rows []model.Row) error {
	if err := s.appendHistoryCSV(ts, rows); err != nil {
		return err
	}
	return s.appendHistoryLog(ts, rows)
}

func (s *Sinks) appendHistoryCSV(ts time.Time, rows []model.Row) error {
	f, fresh, err := openAppend(s.paths.HistoryCSV)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if fresh {
		if err := cw.Write(append([]string{"ts"}, csvColumns...)); err != nil {
			return err
		}
	}
	stamp := ts.Format(time.RFC3339)
	for _, r := range rows {
		if err := cw.Write(append([]string{stamp}, csvRecord(r)...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Sinks) appendHistoryLog(ts time.Time, rows []model.Row) error {
	f, _, err := openAppend(s.paths.HistoryLog)
	if err != nil {
		return err
	}
	defer f.Close()

	stamp := ts.Format("2006-01-02 15:04:05")
	for _, r := range rows {
		if _, err := fmt.Fprintf(f, "%s | %s %s %.6f %s %+.4f%% %s %s\n",
			stamp, r.Exchange, r.Asset, r.ValorAnchor, r.Anchor, r.ProfitPct, r.Mirror, r.Accion); err != nil {
			return err
		}
	}
	return nil
}

// AppendPerf appends one iteration's latency breakdown (milliseconds).
func (s *Sinks) AppendPerf(ts time.Time, p model.PerfSample) error {
	f, fresh, err := openAppend(s.paths.PerfCSV)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if fresh {
		if err := cw.Write([]string{"ts", "iteration", "build_ms", "render_ms", "snapshot_ms", "log_ms", "history_ms", "total_ms"}); err != nil {
			return err
		}
	}
	ms := func(d time.Duration) string {
		return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
	}
	if err := cw.Write([]string{
		ts.Format(time.RFC3339),
		strconv.Itoa(p.Iteration),
		ms(p.Build), ms(p.Render), ms(p.Snapshot), ms(p.Log), ms(p.History), ms(p.Total()),
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// RotateHistory renames the history files with a date suffix so a fresh
// file starts on the next append. Recorded data is never truncated.
func (s *Sinks) RotateHistory(now time.Time) error {
	suffix := now.Format("20060102-150405")
	for _, p := range []string{s.paths.HistoryCSV, s.paths.HistoryLog} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := os.Rename(p, p+"."+suffix); err != nil {
			return fmt.Errorf("rotate %s: %w", p, err)
		}
	}
	return nil
}

func writeAtomic(path string, fill func(io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// openAppend opens path for appending and reports whether it is empty.
func openAppend(path string) (*os.File, bool, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, false, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, err
	}
	return f, info.Size() == 0, nil
}
