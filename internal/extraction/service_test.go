package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"integratepdf-backend/internal/documents"
	"integratepdf-backend/internal/fields"
	"integratepdf-backend/internal/llm"
	"integratepdf-backend/internal/shared/storage/object/local"
	"integratepdf-backend/internal/usage"
)

type fakeLLM struct {
	raw json.RawMessage
	err error
}

func (f fakeLLM) ExtractDocument(ctx context.Context, input llm.ExtractInput) (json.RawMessage, error) {
	return f.raw, f.err
}

func testDeps(t *testing.T, client llm.Client) (*Service, *documents.Service, *fields.Service, string) {
	t.Helper()
	docsRepo := documents.NewMemoryRepo()
	store := local.New(t.TempDir())
	usageSvc := usage.NewService()
	docsSvc := documents.NewService(docsRepo, store, usageSvc, "local")
	fieldsSvc := fields.NewService(fields.NewMemoryRepo())
	svc := NewService(docsSvc, fieldsSvc, client, nil, ModeSync)

	doc, _, err := docsSvc.Upload(context.Background(), "user-1", "invoice.pdf", "application/pdf",
		[]byte("%PDF-1.4\nfake body"), nil)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return svc, docsSvc, fieldsSvc, doc.ID
}

func TestTriggerCompletesExtraction(t *testing.T) {
	client := fakeLLM{raw: json.RawMessage(`{
		"fileName": "invoice.pdf",
		"extractedKeywords": ["total", "vendor"],
		"structuredData": [
			{"key": "total", "value": "42.00", "confidence": 0.9},
			{"key": "vendor", "value": "Acme", "confidence": 0.7}
		]
	}`)}
	svc, docsSvc, fieldsSvc, docID := testDeps(t, client)

	if _, err := svc.Trigger(context.Background(), "user-1", docID, []string{"total"}); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	doc, err := docsSvc.Get(context.Background(), "user-1", docID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.ProcessingStatus != documents.StatusCompleted {
		t.Fatalf("status = %q, want completed (error: %v)", doc.ProcessingStatus, doc.ErrorMessage)
	}
	if doc.ConfidenceScore == nil || math.Abs(*doc.ConfidenceScore-0.8) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.8", doc.ConfidenceScore)
	}
	if doc.ProcessingStartedAt == nil || doc.ProcessingCompletedAt == nil {
		t.Fatal("expected start/completion timestamps")
	}

	items, _, err := fieldsSvc.List(context.Background(), "user-1", docID)
	if err != nil {
		t.Fatalf("List fields: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(items))
	}
	if items[0].ExtractionMethod != "gemini" || items[0].DataType != "string" {
		t.Fatalf("unexpected field defaults %+v", items[0])
	}
}

func TestTriggerMarksFailedOnLLMError(t *testing.T) {
	client := fakeLLM{err: errors.New("gemini error: quota exhausted (RESOURCE_EXHAUSTED)")}
	svc, docsSvc, _, docID := testDeps(t, client)

	if _, err := svc.Trigger(context.Background(), "user-1", docID, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	doc, _ := docsSvc.Get(context.Background(), "user-1", docID)
	if doc.ProcessingStatus != documents.StatusFailed {
		t.Fatalf("status = %q, want failed", doc.ProcessingStatus)
	}
	if doc.ErrorMessage == nil || *doc.ErrorMessage == "" {
		t.Fatal("expected stored error message")
	}
}

func TestTriggerMarksFailedOnSchemaMismatch(t *testing.T) {
	client := fakeLLM{raw: json.RawMessage(`{"unexpected": true}`)}
	svc, docsSvc, fieldsSvc, docID := testDeps(t, client)

	if _, err := svc.Trigger(context.Background(), "user-1", docID, nil); err != nil {
		t.Fatalf("Trigger: %v", err)
	}

	doc, _ := docsSvc.Get(context.Background(), "user-1", docID)
	if doc.ProcessingStatus != documents.StatusFailed {
		t.Fatalf("status = %q, want failed", doc.ProcessingStatus)
	}
	// Failure before insert leaves zero rows.
	items, _, err := fieldsSvc.List(context.Background(), "user-1", docID)
	if err != nil {
		t.Fatalf("List fields: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no fields, got %d", len(items))
	}
}

func TestTriggerConflictsWhileProcessing(t *testing.T) {
	client := fakeLLM{raw: json.RawMessage(`{"fileName":"a","extractedKeywords":[],"structuredData":[]}`)}
	svc, docsSvc, _, docID := testDeps(t, client)

	// Force the document into processing without finishing.
	if err := docsSvc.Repo.MarkProcessing(context.Background(), "user-1", docID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}

	_, err := svc.Trigger(context.Background(), "user-1", docID, nil)
	if !errors.Is(err, documents.ErrAlreadyProcessing) {
		t.Fatalf("expected ErrAlreadyProcessing, got %v", err)
	}
}

func TestTriggerRejectsForeignDocument(t *testing.T) {
	client := fakeLLM{raw: json.RawMessage(`{"fileName":"a","extractedKeywords":[],"structuredData":[]}`)}
	svc, _, _, docID := testDeps(t, client)

	_, err := svc.Trigger(context.Background(), "user-2", docID, nil)
	if !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign document, got %v", err)
	}
}

func TestTriggerQueueModeDispatchFailureRollsBack(t *testing.T) {
	client := fakeLLM{raw: json.RawMessage(`{"fileName":"a","extractedKeywords":[],"structuredData":[]}`)}
	svc, docsSvc, _, docID := testDeps(t, client)
	svc.Mode = ModeQueue
	svc.Queue = nil

	_, err := svc.Trigger(context.Background(), "user-1", docID, nil)
	if !errors.Is(err, ErrQueueNotConfigured) {
		t.Fatalf("expected ErrQueueNotConfigured, got %v", err)
	}

	doc, _ := docsSvc.Get(context.Background(), "user-1", docID)
	if doc.ProcessingStatus != documents.StatusFailed {
		t.Fatalf("status = %q, want failed after dispatch failure", doc.ProcessingStatus)
	}
}
