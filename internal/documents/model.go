package documents

import "time"

// Processing status values for a document.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// MaxUploadBytes is the hard limit for a single uploaded file.
const MaxUploadBytes = 10 << 20

// Document is one uploaded PDF and its processing metadata.
type Document struct {
	ID                    string
	UserID                string
	FileName              string
	MimeType              string
	SizeBytes             int64
	PageCount             *int
	StorageProvider       string
	StorageKey            string
	Keywords              []string
	ProcessingStatus      string
	ProcessingStartedAt   *time.Time
	ProcessingCompletedAt *time.Time
	ConfidenceScore       *float64
	ErrorMessage          *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// ProcessingDurationSeconds returns completed minus started in seconds,
// or nil when either timestamp is missing.
func (d Document) ProcessingDurationSeconds() *float64 {
	if d.ProcessingStartedAt == nil || d.ProcessingCompletedAt == nil {
		return nil
	}
	secs := d.ProcessingCompletedAt.Sub(*d.ProcessingStartedAt).Seconds()
	return &secs
}
