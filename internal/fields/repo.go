package fields

import "context"

// Correction applies a manual edit to one field. OriginalValue is only
// stored when the caller explicitly supplied it.
type Correction struct {
	FieldValue    string
	OriginalValue *string
}

// Repo persists extracted fields.
type Repo interface {
	BatchInsert(ctx context.Context, items []ExtractedField) error
	ListByDocument(ctx context.Context, userID, documentID string) ([]ExtractedField, error)
	CountByDocument(ctx context.Context, userID, documentID string) (int, error)
	Correct(ctx context.Context, userID, documentID, fieldID string, correction Correction) (ExtractedField, error)
}
