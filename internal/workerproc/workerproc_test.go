package workerproc

import (
	"context"
	"errors"
	"testing"

	"integratepdf-backend/internal/bootstrap"
	"integratepdf-backend/internal/queue"
)

type fakeProcessor struct {
	calls []queue.Message
	err   error
}

func (f *fakeProcessor) ProcessJob(ctx context.Context, msg queue.Message) error {
	f.calls = append(f.calls, msg)
	return f.err
}

func TestParseMessage(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		body := `{"documentId":"doc-1","userId":"user-1","requestId":"req-1","version":1}`
		msg, meta, err := ParseMessage(body)
		if err != nil {
			t.Fatalf("ParseMessage: %v", err)
		}
		if msg.DocumentID != "doc-1" || msg.UserID != "user-1" || msg.RequestID != "req-1" {
			t.Fatalf("unexpected message: %+v", msg)
		}
		if meta.BodyLen != len(body) || meta.BodySHA == "" {
			t.Fatalf("unexpected meta: %+v", meta)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		_, _, err := ParseMessage("   ")
		var empty ErrEmptyBody
		if !errors.As(err, &empty) {
			t.Fatalf("expected ErrEmptyBody, got %v", err)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		_, _, err := ParseMessage("{not json")
		var decode ErrDecode
		if !errors.As(err, &decode) {
			t.Fatalf("expected ErrDecode, got %v", err)
		}
	})

	t.Run("missing document id", func(t *testing.T) {
		_, _, err := ParseMessage(`{"requestId":"req-9"}`)
		var missing ErrMissingDocumentID
		if !errors.As(err, &missing) {
			t.Fatalf("expected ErrMissingDocumentID, got %v", err)
		}
		if missing.RequestID != "req-9" {
			t.Fatalf("expected request id carried through, got %q", missing.RequestID)
		}
	})
}

func TestHandleMessage(t *testing.T) {
	body := `{"documentId":"doc-1","userId":"user-1","requestId":"req-1","version":1}`

	t.Run("processes parsed message", func(t *testing.T) {
		proc := &fakeProcessor{}
		app := &bootstrap.App{ExtractionProcessor: proc}
		if err := HandleMessage(context.Background(), app, body); err != nil {
			t.Fatalf("HandleMessage: %v", err)
		}
		if len(proc.calls) != 1 {
			t.Fatalf("expected 1 call, got %d", len(proc.calls))
		}
		if proc.calls[0].DocumentID != "doc-1" || proc.calls[0].UserID != "user-1" {
			t.Fatalf("unexpected message: %+v", proc.calls[0])
		}
	})

	t.Run("reuses message from context", func(t *testing.T) {
		proc := &fakeProcessor{}
		app := &bootstrap.App{ExtractionProcessor: proc}
		ctx := WithParsedMessage(context.Background(), queue.Message{DocumentID: "doc-2", RequestID: "req-2"})
		if err := HandleMessage(ctx, app, "ignored"); err != nil {
			t.Fatalf("HandleMessage: %v", err)
		}
		if len(proc.calls) != 1 || proc.calls[0].DocumentID != "doc-2" {
			t.Fatalf("expected context message used, got %+v", proc.calls)
		}
	})

	t.Run("wraps processing failure", func(t *testing.T) {
		proc := &fakeProcessor{err: errors.New("boom")}
		app := &bootstrap.App{ExtractionProcessor: proc}
		err := HandleMessage(context.Background(), app, body)
		var procErr ErrProcess
		if !errors.As(err, &procErr) {
			t.Fatalf("expected ErrProcess, got %v", err)
		}
		if procErr.DocumentID != "doc-1" || procErr.RequestID != "req-1" {
			t.Fatalf("unexpected fields: %+v", procErr)
		}
	})

	t.Run("nil app", func(t *testing.T) {
		if err := HandleMessage(context.Background(), nil, body); err == nil {
			t.Fatal("expected error")
		}
	})
}
