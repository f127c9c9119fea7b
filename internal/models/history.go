package models

import (
	"time"

	"github.com/google/uuid"
)

// OriginalSequence is the sequence number of the synthetic history entry
// that stands for the project's original image.
const OriginalSequence = 0

// HistoryEntry is one row of the derived history view. It is never stored.
type HistoryEntry struct {
	Sequence   int
	EditID     uuid.UUID
	Prompt     string
	ImageURL   string
	IsOriginal bool
	CreatedAt  time.Time
}
