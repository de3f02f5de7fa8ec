package sink

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ScalpinMonitor/internal/model"
)

func testSinks(t *testing.T) *Sinks {
	t.Helper()
	dir := t.TempDir()
	s, err := New(Paths{
		SnapshotCSV: filepath.Join(dir, "snapshot.csv"),
		SnapshotLog: filepath.Join(dir, "snapshot.log"),
		HistoryCSV:  filepath.Join(dir, "history.csv"),
		HistoryLog:  filepath.Join(dir, "history.log"),
		PerfCSV:     filepath.Join(dir, "perf.csv"),
	}, false)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func sampleRows() []model.Row {
	return []model.Row{
		{Exchange: "binance", Asset: "ETH", Anchor: "USDT", ValorAnchor: 6400, ProfitPct: 6.6667, Accion: "@binance swap ETH->USDT->ETH"},
		{Exchange: "kraken", Asset: "BTC", Anchor: "USDT", ValorAnchor: 1200, ProfitPct: -0.12, Mirror: "ok (5m0s)"},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return recs
}

func TestWriteSnapshotCSV_SchemaAndOverwrite(t *testing.T) {
	s := testSinks(t)
	if err := s.WriteSnapshotCSV(sampleRows()); err != nil {
		t.Fatal(err)
	}
	recs := readCSV(t, s.paths.SnapshotCSV)
	if len(recs) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(recs))
	}
	wantHeader := "exchange,asset,anchor,valor_anchor,profit_pct,mirror,accion"
	if strings.Join(recs[0], ",") != wantHeader {
		t.Errorf("header mismatch: %v", recs[0])
	}

	// A second write replaces, never appends.
	if err := s.WriteSnapshotCSV(sampleRows()[:1]); err != nil {
		t.Fatal(err)
	}
	if recs := readCSV(t, s.paths.SnapshotCSV); len(recs) != 2 {
		t.Errorf("snapshot must be overwritten, got %d records", len(recs))
	}

	// No temp file may linger.
	if _, err := os.Stat(s.paths.SnapshotCSV + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind after atomic write")
	}
}

func TestAppendHistory_PreservesAndTimestamps(t *testing.T) {
	s := testSinks(t)
	ts1 := time.Date(2023, 4, 1, 12, 0, 0, 0, time.UTC)
	ts2 := ts1.Add(10 * time.Second)

	if err := s.AppendHistory(ts1, sampleRows()); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendHistory(ts2, sampleRows()[:1]); err != nil {
		t.Fatal(err)
	}

	recs := readCSV(t, s.paths.HistoryCSV)
	if len(recs) != 4 {
		t.Fatalf("expected header + 3 rows across two appends, got %d", len(recs))
	}
	if recs[0][0] != "ts" {
		t.Errorf("history must lead with a ts column, got %v", recs[0])
	}
	if recs[3][0] != ts2.Format(time.RFC3339) {
		t.Errorf("expected timestamp %s, got %s", ts2.Format(time.RFC3339), recs[3][0])
	}
}

func TestAppendPerf(t *testing.T) {
	s := testSinks(t)
	sample := model.PerfSample{Iteration: 7, Build: 120 * time.Millisecond, Render: 5 * time.Millisecond}
	if err := s.AppendPerf(time.Now(), sample); err != nil {
		t.Fatal(err)
	}
	recs := readCSV(t, s.paths.PerfCSV)
	if len(recs) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(recs))
	}
	if recs[1][1] != "7" {
		t.Errorf("expected iteration 7, got %s", recs[1][1])
	}
	if recs[1][2] != "120.000" {
		t.Errorf("expected build 120.000 ms, got %s", recs[1][2])
	}
}

func TestRotateHistory(t *testing.T) {
	s := testSinks(t)
	if err := s.AppendHistory(time.Now(), sampleRows()); err != nil {
		t.Fatal(err)
	}
	now := time.Date(2023, 4, 2, 0, 0, 0, 0, time.UTC)
	if err := s.RotateHistory(now); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(s.paths.HistoryCSV); !os.IsNotExist(err) {
		t.Error("history file should have been renamed away")
	}
	if _, err := os.Stat(s.paths.HistoryCSV + ".20230402-000000"); err != nil {
		t.Errorf("rotated file missing: %v", err)
	}
	// Next append starts a fresh file with its own header.
	if err := s.AppendHistory(time.Now(), sampleRows()[:1]); err != nil {
		t.Fatal(err)
	}
	if recs := readCSV(t, s.paths.HistoryCSV); len(recs) != 2 {
		t.Errorf("fresh history should have header + 1 row, got %d", len(recs))
	}
}

func TestRender_TableContainsRows(t *testing.T) {
	s := testSinks(t)
	var buf bytes.Buffer
	s.SetOutput(&buf)

	s.Render(Header{Iteration: 3, Elapsed: 31 * time.Second}, sampleRows())
	out := buf.String()
	for _, want := range []string{"iter 3", "binance", "ETH", "6400.00", "@binance swap ETH->USDT->ETH"} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}
}
