// Package mirrorlog reads the append-only log written by the external
// swapper process and exposes the latest known state per (exchange, start
// currency) pair. The monitor only ever reads this file; it is the one-way
// feedback channel for triggers submitted on earlier ticks.
package mirrorlog

import (
	"io"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"ScalpinMonitor/internal/exchange"
	"ScalpinMonitor/internal/model"
)

// tsLayout matches the swapper's "2023-04-01 12:03:04,123" timestamps.
const tsLayout = "2006-01-02 15:04:05,000"

// maxTailBytes bounds how much of the file end is read per snapshot.
const maxTailBytes = 512 * 1024

var resultLine = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3})` + // timestamp
		`.*result \|` +
		`.*status=(\w+)` +
		`.*exchange=(\S+)` +
		`.*amount_used=\S+\s+([A-Z0-9]{2,10})\b`)

// Parser reads the tail of the swapper log on demand.
type Parser struct {
	Path      string
	TailLines int

	warnedMissing bool
}

// NewParser creates a parser over the given log file. tailLines bounds the
// scan window; values <= 0 fall back to 2000.
func NewParser(path string, tailLines int) *Parser {
	if tailLines <= 0 {
		tailLines = 2000
	}
	return &Parser{Path: path, TailLines: tailLines}
}

// Snapshot parses the tail of the log and returns the newest state per key.
// Every failure mode degrades to "no signal": a missing file, a malformed
// timestamp, or an unknown status never gate anything.
func (p *Parser) Snapshot() map[model.MirrorKey]model.MirrorState {
	states := make(map[model.MirrorKey]model.MirrorState)

	lines, err := p.readTail()
	if err != nil {
		if os.IsNotExist(err) {
			if !p.warnedMissing {
				log.Printf("[WARN] swapper log %s not found, mirror gating disabled", p.Path)
				p.warnedMissing = true
			}
		} else {
			log.Printf("[WARN] read swapper log: %v", err)
		}
		return states
	}
	p.warnedMissing = false

	// Newest first: the first match per key wins, older lines are discarded.
	for i := len(lines) - 1; i >= 0; i-- {
		m := resultLine.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		if !model.KnownMirrorStatus(m[2]) {
			continue
		}
		ts, err := time.ParseInLocation(tsLayout, m[1], time.Local)
		if err != nil {
			continue
		}
		key := model.MirrorKey{Exchange: exchange.Normalize(m[3]), Currency: m[4]}
		if _, seen := states[key]; seen {
			continue
		}
		states[key] = model.MirrorState{
			Exchange:  key.Exchange,
			Currency:  key.Currency,
			Status:    model.MirrorStatus(m[2]),
			Timestamp: ts,
		}
	}
	return states
}

// readTail returns up to TailLines complete lines from the end of the file
// without reading the whole file.
func (p *Parser) readTail() ([]string, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	off := info.Size() - maxTailBytes
	if off < 0 {
		off = 0
	}
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	if off > 0 && len(lines) > 0 {
		// The first line is likely cut in half by the seek.
		lines = lines[1:]
	}
	if len(lines) > p.TailLines {
		lines = lines[len(lines)-p.TailLines:]
	}
	return lines, nil
}
