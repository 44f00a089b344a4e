package fields

import (
	"math"
	"time"
)

// ExtractedField is one key/value pair produced by extraction,
// individually correctable by the owner.
type ExtractedField struct {
	ID               string
	DocumentID       string
	UserID           string
	FieldKey         string
	FieldValue       string
	DataType         string
	Confidence       *float64
	ExtractionMethod string
	IsCorrected      bool
	OriginalValue    *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Statistics summarizes the fields of one document.
type Statistics struct {
	TotalFields       int     `json:"total_fields"`
	AverageConfidence float64 `json:"average_confidence"`
	CorrectedFields   int     `json:"corrected_fields"`
	CorrectionRate    int     `json:"correction_rate"`
}

// ComputeStatistics derives aggregate statistics from a field set.
// Average confidence is the mean of non-nil confidences rounded to two
// decimals, zero when there are no fields. Correction rate is an
// integer percentage of corrected over total.
func ComputeStatistics(items []ExtractedField) Statistics {
	stats := Statistics{TotalFields: len(items)}
	if len(items) == 0 {
		return stats
	}
	var sum float64
	var n int
	for _, f := range items {
		if f.Confidence != nil {
			sum += *f.Confidence
			n++
		}
		if f.IsCorrected {
			stats.CorrectedFields++
		}
	}
	if n > 0 {
		stats.AverageConfidence = roundTwo(sum / float64(n))
	}
	stats.CorrectionRate = stats.CorrectedFields * 100 / stats.TotalFields
	return stats
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
