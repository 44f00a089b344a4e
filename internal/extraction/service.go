package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"integratepdf-backend/internal/documents"
	"integratepdf-backend/internal/fields"
	"integratepdf-backend/internal/llm"
	"integratepdf-backend/internal/queue"
	"integratepdf-backend/internal/shared/metrics"
	"integratepdf-backend/internal/shared/telemetry"
)

// Mode selects how a trigger runs the extraction.
type Mode string

const (
	// ModeSync runs the extraction inside the trigger request.
	ModeSync Mode = "sync"
	// ModeQueue dispatches the extraction to the queue consumer.
	ModeQueue Mode = "queue"
)

// Service orchestrates the document extraction pipeline.
type Service struct {
	Documents *documents.Service
	Fields    *fields.Service
	LLM       llm.Client
	Queue     queue.Client
	Mode      Mode
}

func NewService(docsSvc *documents.Service, fieldsSvc *fields.Service, llmClient llm.Client, queueClient queue.Client, mode Mode) *Service {
	if mode == "" {
		mode = ModeSync
	}
	return &Service{
		Documents: docsSvc,
		Fields:    fieldsSvc,
		LLM:       llmClient,
		Queue:     queueClient,
		Mode:      mode,
	}
}

// Trigger transitions a document into processing and runs or dispatches
// the extraction. The transition is a conditional update; a document
// currently processing surfaces documents.ErrAlreadyProcessing.
func (s *Service) Trigger(ctx context.Context, userID, documentID string, keywords []string) (documents.Document, error) {
	doc, err := s.Documents.Get(ctx, userID, documentID)
	if err != nil {
		return documents.Document{}, err
	}

	if len(keywords) > 0 {
		if err := s.Documents.SetKeywords(ctx, documentID, keywords); err != nil {
			return documents.Document{}, fmt.Errorf("store keywords: %w", err)
		}
		doc.Keywords = keywords
	}

	startedAt := time.Now().UTC()
	if err := s.Documents.Repo.MarkProcessing(ctx, userID, documentID, startedAt); err != nil {
		return documents.Document{}, err
	}
	doc.ProcessingStatus = documents.StatusProcessing
	doc.ProcessingStartedAt = &startedAt
	metrics.IncExtractionStarted()
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userID,
		"document_id":       documentID,
		"status":            documents.StatusProcessing,
		"status_transition": "pending->processing",
	})

	if s.Mode == ModeQueue {
		if err := s.dispatch(ctx, userID, doc); err != nil {
			s.fail(ctx, userID, documentID, err, &startedAt)
			return documents.Document{}, err
		}
		return doc, nil
	}

	s.Process(ctx, userID, doc, &startedAt)
	return doc, nil
}

// dispatch enqueues the job; an enqueue failure rolls the document to failed.
func (s *Service) dispatch(ctx context.Context, userID string, doc documents.Document) error {
	if s.Queue == nil {
		return ErrQueueNotConfigured
	}
	msg := queue.Message{
		DocumentID: doc.ID,
		UserID:     userID,
		RequestID:  requestIDFromContext(ctx),
		Keywords:   doc.Keywords,
		EnqueuedAt: time.Now().UTC().Format(time.RFC3339),
		Version:    1,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		return fmt.Errorf("dispatch extraction job: %w", err)
	}
	return nil
}

// Process runs the extraction for a document already marked processing:
// fetch bytes, call the model, validate, persist fields, finalize status.
func (s *Service) Process(ctx context.Context, userID string, doc documents.Document, startedAt *time.Time) {
	data, err := s.Documents.FetchBytes(ctx, doc)
	if err != nil {
		s.fail(ctx, userID, doc.ID, err, startedAt)
		return
	}

	raw, err := s.LLM.ExtractDocument(ctx, llm.ExtractInput{
		FileName: doc.FileName,
		MimeType: doc.MimeType,
		Data:     data,
		Keywords: doc.Keywords,
	})
	if err != nil {
		s.fail(ctx, userID, doc.ID, err, startedAt)
		return
	}

	result, err := ParseResult(raw)
	if err != nil {
		s.fail(ctx, userID, doc.ID, err, startedAt)
		return
	}

	items := make([]fields.NewItem, 0, len(result.StructuredData))
	for _, item := range result.StructuredData {
		items = append(items, fields.NewItem{
			Key:        item.Key,
			Value:      item.Value,
			Confidence: item.Confidence,
		})
	}
	confidence, err := s.Fields.StoreExtracted(ctx, userID, doc.ID, items)
	if err != nil {
		s.fail(ctx, userID, doc.ID, fmt.Errorf("store extracted fields: %w", err), startedAt)
		return
	}

	completedAt := time.Now().UTC()
	if err := s.Documents.Repo.MarkCompleted(ctx, doc.ID, completedAt, confidence); err != nil {
		s.fail(ctx, userID, doc.ID, fmt.Errorf("finalize document: %w", err), startedAt)
		return
	}
	metrics.IncExtractionCompleted()
	metrics.ObserveExtractionDurationMs(durationMs(startedAt, &completedAt))
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userID,
		"document_id":       doc.ID,
		"status":            documents.StatusCompleted,
		"status_transition": "processing->completed",
		"fields":            len(items),
		"confidence":        confidence,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

// ProcessJob runs one queued extraction job, used by the worker consumer.
func (s *Service) ProcessJob(ctx context.Context, msg queue.Message) error {
	metrics.IncExtractionJobsReceived()
	ctx = WithRequestID(ctx, msg.RequestID)

	doc, err := s.Documents.Get(ctx, msg.UserID, msg.DocumentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", msg.DocumentID, err)
	}
	if len(msg.Keywords) > 0 {
		doc.Keywords = msg.Keywords
	}
	s.Process(ctx, msg.UserID, doc, doc.ProcessingStartedAt)
	return nil
}

func (s *Service) fail(ctx context.Context, userID, documentID string, err error, startedAt *time.Time) {
	code := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Documents.Repo.MarkFailed(context.Background(), documentID, completedAt, msg); updateErr != nil {
		telemetry.Error("extraction.fail_update", map[string]any{
			"document_id": documentID,
			"error":       updateErr.Error(),
			"original":    msg,
		})
	}
	metrics.IncExtractionFailed()
	if startedAt != nil {
		metrics.ObserveExtractionDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userID,
		"document_id":       documentID,
		"status":            documents.StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"error":             msg,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) string {
	if err == nil {
		return errorCodeInternal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errorCodeLLMTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "request timeout"):
		return errorCodeLLMTimeout
	case strings.Contains(msg, "schema") || strings.Contains(msg, "invalid json"):
		return errorCodeSchemaMismatch
	case strings.Contains(msg, "stored file") || strings.Contains(msg, "storage"):
		return errorCodeStorage
	default:
		return errorCodeInternal
	}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
