package recorder

import (
	"time"

	"ScalpinMonitor/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRows(_ time.Time, _ int, _ []model.Row) error { return nil }
func (n *NoopRecorder) RecordTrigger(_ time.Time, _ model.Row) error       { return nil }
func (n *NoopRecorder) Close() error                                       { return nil }
