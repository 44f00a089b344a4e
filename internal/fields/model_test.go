package fields

import "testing"

func ptr(v float64) *float64 { return &v }

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil)
	if stats.TotalFields != 0 || stats.AverageConfidence != 0 || stats.CorrectionRate != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestComputeStatisticsMeanRounding(t *testing.T) {
	items := []ExtractedField{
		{Confidence: ptr(0.9)},
		{Confidence: ptr(0.8)},
		{Confidence: ptr(0.85)},
	}
	stats := ComputeStatistics(items)
	if stats.AverageConfidence != 0.85 {
		t.Fatalf("average = %v, want 0.85", stats.AverageConfidence)
	}
}

func TestComputeStatisticsIgnoresNilConfidence(t *testing.T) {
	items := []ExtractedField{
		{Confidence: ptr(0.6)},
		{Confidence: nil},
	}
	stats := ComputeStatistics(items)
	if stats.AverageConfidence != 0.6 {
		t.Fatalf("average = %v, want 0.6", stats.AverageConfidence)
	}
	if stats.TotalFields != 2 {
		t.Fatalf("total = %d, want 2", stats.TotalFields)
	}
}

func TestComputeStatisticsCorrectionRate(t *testing.T) {
	items := []ExtractedField{
		{Confidence: ptr(1), IsCorrected: true},
		{Confidence: ptr(1)},
		{Confidence: ptr(1)},
	}
	stats := ComputeStatistics(items)
	if stats.CorrectedFields != 1 {
		t.Fatalf("corrected = %d, want 1", stats.CorrectedFields)
	}
	if stats.CorrectionRate != 33 {
		t.Fatalf("rate = %d, want 33", stats.CorrectionRate)
	}
}
