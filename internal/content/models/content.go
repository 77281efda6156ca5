package models

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	UploadingStatus  Status = "uploading"
	UploadedStatus   Status = "uploaded"
	ProcessingStatus Status = "processing"
	CompletedStatus  Status = "completed"
	FailedStatus     Status = "failed"
)

// AllStatuses — закрытый набор, других значений не бывает.
var AllStatuses = []Status{
	UploadingStatus,
	UploadedStatus,
	ProcessingStatus,
	CompletedStatus,
	FailedStatus,
}

func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type ContentType string

const (
	Video ContentType = "video"
	Audio ContentType = "audio"
	Image ContentType = "image"
	File  ContentType = "file"
)

type Content struct {
	ID            uuid.UUID   `db:"id"`
	Status        Status      `db:"status"`
	Type          ContentType `db:"type"`
	Source        string      `db:"source"`
	FailureReason string      `db:"failure_reason"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

// Derivative — обработанный артефакт (thumbnail, preview, transcode...),
// появляется только когда контент дошёл до completed.
type Derivative struct {
	ID        uuid.UUID `db:"id"`
	ContentID uuid.UUID `db:"content_id"`
	Kind      string    `db:"kind"`
	Location  string    `db:"location"`
	CreatedAt time.Time `db:"created_at"`
}
