package integrations

import (
	"context"
	"errors"
	"testing"

	"integratepdf-backend/internal/documents"
	"integratepdf-backend/internal/fields"
	"integratepdf-backend/internal/shared/storage/object/local"
	"integratepdf-backend/internal/usage"
)

type fakePusher struct {
	calls  int
	err    error
	lastIn PushInput
}

func (p *fakePusher) Push(ctx context.Context, input PushInput) (PushResult, error) {
	p.calls++
	p.lastIn = input
	if p.err != nil {
		return PushResult{}, p.err
	}
	return PushResult{ExternalID: "ext-1", Raw: map[string]any{"ok": true}}, nil
}

func testService(t *testing.T, pusher Pusher) (*Service, string) {
	t.Helper()
	cipher, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	registry := NewRegistry()
	if pusher != nil {
		registry.Register(TypeNotion, pusher)
	}

	docsRepo := documents.NewMemoryRepo()
	docsSvc := documents.NewService(docsRepo, local.New(t.TempDir()), usage.NewService(), "local")
	fieldsSvc := fields.NewService(fields.NewMemoryRepo())

	svc := NewService(NewMemoryRepo(), NewMemoryHistoryRepo(), cipher, registry, docsSvc, fieldsSvc)

	doc, _, err := docsSvc.Upload(context.Background(), "user-1", "invoice.pdf", "application/pdf",
		[]byte("%PDF-1.4\nbody"), nil)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if _, err := fieldsSvc.StoreExtracted(context.Background(), "user-1", doc.ID, []fields.NewItem{
		{Key: "total", Value: "42.00", Confidence: 0.9},
	}); err != nil {
		t.Fatalf("store fields: %v", err)
	}
	return svc, doc.ID
}

func TestCreateRedactsConfig(t *testing.T) {
	svc, _ := testService(t, &fakePusher{})

	integration, err := svc.Create(context.Background(), "user-1", TypeNotion, "My Notion",
		map[string]string{"api_key": "secret", "database_id": "db"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if integration.Config["api_key"] != "[redacted]" {
		t.Fatalf("config not redacted: %v", integration.Config)
	}

	// The stored row never carries the plaintext secret.
	row, err := svc.Repo.GetByID(context.Background(), "user-1", integration.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row.Config == "" || row.Config == "secret" {
		t.Fatalf("unexpected stored config %q", row.Config)
	}
}

func TestCreateRejectsUnknownType(t *testing.T) {
	svc, _ := testService(t, nil)
	_, err := svc.Create(context.Background(), "user-1", "dropbox", "X", nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestPushRecordsHistoryAndLastSync(t *testing.T) {
	pusher := &fakePusher{}
	svc, docID := testService(t, pusher)

	integration, err := svc.Create(context.Background(), "user-1", TypeNotion, "N",
		map[string]string{"api_key": "k", "database_id": "db"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	outcome, err := svc.Push(context.Background(), "user-1", integration.ID, docID, nil, nil)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if outcome.ExternalID != "ext-1" {
		t.Fatalf("external id = %q", outcome.ExternalID)
	}
	if pusher.lastIn.Config["api_key"] != "k" {
		t.Fatal("pusher did not receive decrypted config")
	}
	if len(pusher.lastIn.Fields) != 1 || pusher.lastIn.Fields[0].Key != "total" {
		t.Fatalf("unexpected fields %v", pusher.lastIn.Fields)
	}

	history, err := svc.ListHistory(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(history) != 1 || !history[0].Success {
		t.Fatalf("unexpected history %+v", history)
	}

	got, err := svc.Get(context.Background(), "user-1", integration.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LastSyncAt == nil {
		t.Fatal("expected last_sync_at set")
	}
}

func TestPushTwiceCreatesTwoPagesAndTwoRecords(t *testing.T) {
	pusher := &fakePusher{}
	svc, docID := testService(t, pusher)
	integration, _ := svc.Create(context.Background(), "user-1", TypeNotion, "N",
		map[string]string{"api_key": "k", "database_id": "db"})

	for i := 0; i < 2; i++ {
		if _, err := svc.Push(context.Background(), "user-1", integration.ID, docID, nil, nil); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if pusher.calls != 2 {
		t.Fatalf("expected 2 provider calls, got %d", pusher.calls)
	}
	history, _ := svc.ListHistory(context.Background(), "user-1", 10)
	if len(history) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(history))
	}
}

func TestPushFailureRecordsHistory(t *testing.T) {
	pusher := &fakePusher{err: errors.New("notion: rate limited (rate_limited)")}
	svc, docID := testService(t, pusher)
	integration, _ := svc.Create(context.Background(), "user-1", TypeNotion, "N",
		map[string]string{"api_key": "k", "database_id": "db"})

	_, err := svc.Push(context.Background(), "user-1", integration.ID, docID, nil, nil)
	if err == nil {
		t.Fatal("expected push error")
	}
	history, _ := svc.ListHistory(context.Background(), "user-1", 10)
	if len(history) != 1 || history[0].Success {
		t.Fatalf("unexpected history %+v", history)
	}
	if history[0].ErrorMessage == nil || *history[0].ErrorMessage == "" {
		t.Fatal("expected error message stored")
	}
}

func TestPushAirtableNotImplemented(t *testing.T) {
	svc, docID := testService(t, &fakePusher{})
	integration, err := svc.Create(context.Background(), "user-1", TypeAirtable, "A",
		map[string]string{"api_key": "k"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Push(context.Background(), "user-1", integration.ID, docID, nil, nil)
	if !errors.Is(err, ErrNotImplemented) {
		t.Fatalf("expected ErrNotImplemented, got %v", err)
	}
	history, _ := svc.ListHistory(context.Background(), "user-1", 10)
	if len(history) != 1 || history[0].Success {
		t.Fatalf("expected one failed history row, got %+v", history)
	}
}

func TestPushInactiveIntegration(t *testing.T) {
	svc, docID := testService(t, &fakePusher{})
	integration, _ := svc.Create(context.Background(), "user-1", TypeNotion, "N",
		map[string]string{"api_key": "k", "database_id": "db"})
	inactive := false
	if _, err := svc.Update(context.Background(), "user-1", integration.ID, UpdateInput{IsActive: &inactive}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	_, err := svc.Push(context.Background(), "user-1", integration.ID, docID, nil, nil)
	if !errors.Is(err, ErrInactive) {
		t.Fatalf("expected ErrInactive, got %v", err)
	}
	history, _ := svc.ListHistory(context.Background(), "user-1", 10)
	if len(history) != 1 || history[0].Success {
		t.Fatalf("expected one failed history row, got %+v", history)
	}
	if history[0].ErrorMessage == nil || *history[0].ErrorMessage == "" {
		t.Fatal("expected error message stored")
	}
}

func TestPushForeignDocument(t *testing.T) {
	svc, docID := testService(t, &fakePusher{})
	integration, err := svc.Create(context.Background(), "user-2", TypeNotion, "N",
		map[string]string{"api_key": "k", "database_id": "db"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Push(context.Background(), "user-2", integration.ID, docID, nil, nil)
	if !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected documents.ErrNotFound, got %v", err)
	}
}

func TestApplyMapping(t *testing.T) {
	in := []PushField{{Key: "total", Value: "1"}, {Key: "vendor", Value: "Acme"}}
	out := ApplyMapping(in, map[string]string{"total": "Amount"})
	if out[0].Key != "Amount" || out[1].Key != "vendor" {
		t.Fatalf("unexpected mapping result %v", out)
	}
}
