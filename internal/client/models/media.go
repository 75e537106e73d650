package models

// MediaKind tells photos and receipts apart; they upload to the same
// endpoint but queue into different offline lists.
type MediaKind string

const (
	MediaKindImage   MediaKind = "image"
	MediaKindReceipt MediaKind = "receipt"
)

// QueueKind maps a media kind onto its offline list.
func (k MediaKind) QueueKind() QueueKind {
	if k == MediaKindReceipt {
		return QueueKindReceipt
	}
	return QueueKindImage
}

// PendingMedia is a file captured during an open shift, held by local path
// until it is uploaded or the shift closes.
type PendingMedia struct {
	Kind  MediaKind
	Index int
	URI   string
}
