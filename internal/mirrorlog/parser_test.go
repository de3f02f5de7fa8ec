package mirrorlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ScalpinMonitor/internal/model"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "swapper.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func resultAt(ts time.Time, status, exchange, currency string) string {
	return fmt.Sprintf("%s [swapper] result | status=%s exchange=%s amount_used=12.5 %s",
		ts.Format("2006-01-02 15:04:05,000"), status, exchange, currency)
}

func TestSnapshot_ParsesResultLines(t *testing.T) {
	ts := time.Date(2023, 4, 1, 12, 3, 4, 123e6, time.Local)
	p := NewParser(writeLog(t,
		"2023-04-01 12:03:03,000 [swapper] starting mirror for ETH",
		resultAt(ts, "ok", "binance", "ETH"),
	), 0)

	states := p.Snapshot()
	st, ok := states[model.MirrorKey{Exchange: "binance", Currency: "ETH"}]
	if !ok {
		t.Fatalf("expected a state for binance/ETH, got %v", states)
	}
	if st.Status != model.MirrorOK {
		t.Errorf("expected ok, got %s", st.Status)
	}
	if !st.Timestamp.Equal(ts) {
		t.Errorf("expected %v, got %v", ts, st.Timestamp)
	}
}

func TestSnapshot_LastWriterWins(t *testing.T) {
	base := time.Date(2023, 4, 1, 12, 0, 0, 0, time.Local)
	p := NewParser(writeLog(t,
		resultAt(base, "mirror_pending", "binance", "ETH"),
		resultAt(base.Add(time.Minute), "ok", "binance", "ETH"),
	), 0)

	st := p.Snapshot()[model.MirrorKey{Exchange: "binance", Currency: "ETH"}]
	if st.Status != model.MirrorOK {
		t.Errorf("newest line must win, got %s", st.Status)
	}
}

func TestSnapshot_NormalizesExchangeAliases(t *testing.T) {
	ts := time.Date(2023, 4, 1, 12, 0, 0, 0, time.Local)
	p := NewParser(writeLog(t, resultAt(ts, "failed", "gateio", "BTC")), 0)

	if _, ok := p.Snapshot()[model.MirrorKey{Exchange: "gate", Currency: "BTC"}]; !ok {
		t.Error("expected gateio to be recorded under its canonical id gate")
	}
}

func TestSnapshot_IgnoresUnknownStatusAndMalformedLines(t *testing.T) {
	ts := time.Date(2023, 4, 1, 12, 0, 0, 0, time.Local)
	p := NewParser(writeLog(t,
		resultAt(ts, "retrying", "binance", "ETH"),                                     // unknown status
		"not-a-timestamp result | status=ok exchange=binance amount_used=1.0 ETH",      // bad timestamp
		"2023-04-01 12:00:01,000 [swapper] result | status=ok exchange=binance nothing", // missing fields
	), 0)

	if states := p.Snapshot(); len(states) != 0 {
		t.Errorf("malformed or unknown entries must yield no signal, got %v", states)
	}
}

func TestSnapshot_MissingFileIsEmpty(t *testing.T) {
	p := NewParser(filepath.Join(t.TempDir(), "nope.log"), 0)
	if states := p.Snapshot(); len(states) != 0 {
		t.Errorf("missing file must yield an empty snapshot, got %v", states)
	}
}

func TestSnapshot_TailWindowBounds(t *testing.T) {
	base := time.Date(2023, 4, 1, 10, 0, 0, 0, time.Local)
	lines := []string{resultAt(base, "failed", "binance", "ETH")}
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("%s [swapper] heartbeat", base.Add(time.Duration(i)*time.Second).Format("2006-01-02 15:04:05,000")))
	}
	p := NewParser(writeLog(t, lines...), 5)

	// The result line fell out of the 5-line tail window.
	if states := p.Snapshot(); len(states) != 0 {
		t.Errorf("entries outside the tail window must be ignored, got %v", states)
	}
}

func TestSnapshot_MultipleKeys(t *testing.T) {
	base := time.Date(2023, 4, 1, 12, 0, 0, 0, time.Local)
	p := NewParser(writeLog(t,
		resultAt(base, "ok", "binance", "ETH"),
		resultAt(base.Add(time.Second), "mirror_pending", "binance", "BTC"),
		resultAt(base.Add(2*time.Second), "failed", "kraken", "ETH"),
	), 0)

	states := p.Snapshot()
	if len(states) != 3 {
		t.Fatalf("expected 3 keys, got %v", states)
	}
	if states[model.MirrorKey{Exchange: "binance", Currency: "BTC"}].Status != model.MirrorPending {
		t.Error("binance/BTC should be mirror_pending")
	}
	if states[model.MirrorKey{Exchange: "kraken", Currency: "ETH"}].Status != model.MirrorFailed {
		t.Error("kraken/ETH should be failed")
	}
}
