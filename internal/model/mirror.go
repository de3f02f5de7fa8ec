package model

import "time"

// MirrorStatus is a terminal state reported by the external swapper process.
type MirrorStatus string

const (
	MirrorPending MirrorStatus = "mirror_pending"
	MirrorOK      MirrorStatus = "ok"
	MirrorFailed  MirrorStatus = "failed"
)

// KnownMirrorStatus reports whether s is one of the states used for gating.
func KnownMirrorStatus(s string) bool {
	switch MirrorStatus(s) {
	case MirrorPending, MirrorOK, MirrorFailed:
		return true
	}
	return false
}

// MirrorKey identifies the (exchange, start currency) pair a mirror entry
// refers to.
type MirrorKey struct {
	Exchange string
	Currency string
}

// MirrorState is the most recent swapper result for one key.
type MirrorState struct {
	Exchange  string
	Currency  string
	Status    MirrorStatus
	Timestamp time.Time
}
