package recorder

import (
	"time"

	"ScalpinMonitor/internal/model"
)

// Recorder persists historical data for offline analysis. It is a side
// channel: the monitor never reads it back.
type Recorder interface {
	RecordRows(ts time.Time, iteration int, rows []model.Row) error
	RecordTrigger(ts time.Time, row model.Row) error
	Close() error
}
