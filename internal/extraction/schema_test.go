package extraction

import (
	"strings"
	"testing"
)

func TestParseResultAcceptsValidPayload(t *testing.T) {
	raw := []byte(`{
		"fileName": "invoice.pdf",
		"extractedKeywords": ["invoice_number", "total"],
		"structuredData": [
			{"key": "invoice_number", "value": "INV-001", "confidence": 0.95},
			{"key": "total", "value": "42.00", "confidence": 0.88}
		]
	}`)
	result, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if result.FileName != "invoice.pdf" {
		t.Fatalf("unexpected file name %q", result.FileName)
	}
	if len(result.StructuredData) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.StructuredData))
	}
	if result.StructuredData[0].Confidence != 0.95 {
		t.Fatalf("unexpected confidence %v", result.StructuredData[0].Confidence)
	}
}

func TestParseResultAcceptsEmptyStructuredData(t *testing.T) {
	raw := []byte(`{"fileName": "blank.pdf", "extractedKeywords": [], "structuredData": []}`)
	result, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if len(result.StructuredData) != 0 {
		t.Fatalf("expected no items, got %d", len(result.StructuredData))
	}
}

func TestParseResultRejectsMissingRequired(t *testing.T) {
	raw := []byte(`{"extractedKeywords": [], "structuredData": []}`)
	_, err := ParseResult(raw)
	if err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestParseResultRejectsConfidenceOutOfRange(t *testing.T) {
	raw := []byte(`{
		"fileName": "a.pdf",
		"extractedKeywords": [],
		"structuredData": [{"key": "x", "value": "y", "confidence": 1.5}]
	}`)
	if _, err := ParseResult(raw); err == nil {
		t.Fatal("expected rejection of confidence > 1")
	}
}

func TestParseResultRejectsItemMissingKey(t *testing.T) {
	raw := []byte(`{
		"fileName": "a.pdf",
		"extractedKeywords": [],
		"structuredData": [{"value": "y", "confidence": 0.5}]
	}`)
	if _, err := ParseResult(raw); err == nil {
		t.Fatal("expected rejection of item without key")
	}
}
