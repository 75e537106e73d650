package models

import (
	"encoding/json"
	"time"
)

// QueueKind selects which offline list an entry belongs to.
type QueueKind string

const (
	QueueKindTimesheet QueueKind = "timesheet"
	QueueKindImage     QueueKind = "image"
	QueueKindReceipt   QueueKind = "receipt"
)

// Valid reports whether k is one of the known kinds.
func (k QueueKind) Valid() bool {
	switch k {
	case QueueKindTimesheet, QueueKindImage, QueueKindReceipt:
		return true
	}
	return false
}

// OfflineQueueEntry is a mutation that could not reach the backend when it
// was issued. It is removed only by a successful replay.
type OfflineQueueEntry struct {
	OfflineID string
	Kind      QueueKind
	Method    string
	Path      string
	Payload   json.RawMessage
	ImageURIs []string

	// Held entries belong to a shift that is still open and must not be
	// replayed until clock-out releases them.
	Held bool

	Attempts  int
	LastError string
	CreatedAt time.Time
}
