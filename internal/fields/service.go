package fields

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DefaultExtractionMethod tags rows written by the AI extraction step.
const DefaultExtractionMethod = "gemini"

// Service contains extracted-field business logic.
type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// NewItem is one structured item to persist after extraction.
type NewItem struct {
	Key        string
	Value      string
	Confidence float64
}

// StoreExtracted batch-inserts one row per structured item and returns
// the mean confidence across the batch.
func (s *Service) StoreExtracted(ctx context.Context, userID, documentID string, items []NewItem) (float64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	rows := make([]ExtractedField, 0, len(items))
	var sum float64
	for _, item := range items {
		confidence := item.Confidence
		rows = append(rows, ExtractedField{
			ID:               uuid.New().String(),
			DocumentID:       documentID,
			UserID:           userID,
			FieldKey:         item.Key,
			FieldValue:       item.Value,
			DataType:         "string",
			Confidence:       &confidence,
			ExtractionMethod: DefaultExtractionMethod,
			CreatedAt:        now,
		})
		sum += item.Confidence
	}
	if err := s.Repo.BatchInsert(ctx, rows); err != nil {
		return 0, err
	}
	return sum / float64(len(items)), nil
}

// List returns all fields of one owned document plus statistics.
func (s *Service) List(ctx context.Context, userID, documentID string) ([]ExtractedField, Statistics, error) {
	items, err := s.Repo.ListByDocument(ctx, userID, documentID)
	if err != nil {
		return nil, Statistics{}, err
	}
	return items, ComputeStatistics(items), nil
}

// Count returns the number of fields for one owned document.
func (s *Service) Count(ctx context.Context, userID, documentID string) (int, error) {
	return s.Repo.CountByDocument(ctx, userID, documentID)
}

// Correct applies a manual edit to one field.
func (s *Service) Correct(ctx context.Context, userID, documentID, fieldID string, correction Correction) (ExtractedField, error) {
	return s.Repo.Correct(ctx, userID, documentID, fieldID, correction)
}
