package integrations

import "time"

// Integration types. Airtable and QuickBooks are recognized but have no
// push implementation yet.
const (
	TypeNotion       = "notion"
	TypeGoogleSheets = "google_sheets"
	TypeAirtable     = "airtable"
	TypeQuickBooks   = "quickbooks"
)

// KnownType reports whether t is a recognized integration type.
func KnownType(t string) bool {
	switch t {
	case TypeNotion, TypeGoogleSheets, TypeAirtable, TypeQuickBooks:
		return true
	}
	return false
}

// Integration is a configured connection to an external productivity
// tool. Config holds provider credentials and is stored encrypted.
type Integration struct {
	ID         string
	UserID     string
	Type       string
	Name       string
	Config     map[string]string
	IsActive   bool
	LastSyncAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PushRecord is one append-only audit row for a push attempt.
type PushRecord struct {
	ID            string
	UserID        string
	DocumentID    *string
	IntegrationID *string
	Success       bool
	ExternalID    *string
	ErrorMessage  *string
	CreatedAt     time.Time
}
