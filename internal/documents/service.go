package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"integratepdf-backend/internal/shared/storage/object"
	"integratepdf-backend/internal/shared/telemetry"
	"integratepdf-backend/internal/usage"
)

// Service contains document business logic: upload, lookup, delete.
type Service struct {
	Repo            Repo
	Store           object.ObjectStore
	Usage           *usage.Service
	StorageProvider string
}

func NewService(repo Repo, store object.ObjectStore, usageSvc *usage.Service, storageProvider string) *Service {
	return &Service{Repo: repo, Store: store, Usage: usageSvc, StorageProvider: storageProvider}
}

// Upload validates the file, persists the blob and the document row, and
// consumes one unit of the owner's monthly quota.
func (s *Service) Upload(ctx context.Context, userID, fileName, mimeType string, data []byte, keywords []string) (Document, string, error) {
	validated, err := ValidateUpload(fileName, mimeType, data)
	if err != nil {
		return Document{}, "", err
	}

	if _, err := s.Usage.Consume(ctx, userID, 1); err != nil {
		if errors.Is(err, usage.ErrLimitReached) {
			return Document{}, "", usage.ErrLimitReached
		}
		return Document{}, "", fmt.Errorf("consume quota: %w", err)
	}

	storageKey, size, _, err := s.Store.Save(ctx, userID, validated.FileName, bytes.NewReader(validated.Data))
	if err != nil {
		return Document{}, "", fmt.Errorf("store file: %w", err)
	}

	doc := Document{
		ID:               uuid.New().String(),
		UserID:           userID,
		FileName:         validated.FileName,
		MimeType:         validated.MimeType,
		SizeBytes:        size,
		StorageProvider:  s.StorageProvider,
		StorageKey:       storageKey,
		Keywords:         keywords,
		ProcessingStatus: StatusPending,
		CreatedAt:        time.Now().UTC(),
	}

	if pages, err := CountPages(validated.Data); err == nil {
		doc.PageCount = &pages
	} else {
		telemetry.Info("document.page_count_unavailable", map[string]any{
			"fileName": validated.FileName,
			"reason":   err.Error(),
		})
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		// The blob is already written; remove it so a failed insert
		// does not strand storage.
		if delErr := s.Store.Delete(ctx, storageKey); delErr != nil {
			telemetry.Error("document.orphan_blob", map[string]any{
				"storageKey": storageKey,
				"error":      delErr.Error(),
			})
		}
		return Document{}, "", fmt.Errorf("create document: %w", err)
	}

	return doc, validated.Warning, nil
}

// Get returns one document owned by the user.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	return s.Repo.GetByID(ctx, userID, documentID)
}

// List returns the user's documents newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Delete removes the document row (extracted fields cascade) and the
// backing blob. A missing blob is not an error.
func (s *Service) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.Repo.Delete(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
		telemetry.Error("document.blob_delete_failed", map[string]any{
			"documentId": documentID,
			"storageKey": doc.StorageKey,
			"error":      err.Error(),
		})
	}
	return nil
}

// SetKeywords replaces the stored keyword list for a document.
func (s *Service) SetKeywords(ctx context.Context, documentID string, keywords []string) error {
	return s.Repo.SetKeywords(ctx, documentID, keywords)
}

// FetchBytes reads the stored blob for a document.
func (s *Service) FetchBytes(ctx context.Context, doc Document) ([]byte, error) {
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return nil, fmt.Errorf("read stored file: %w", err)
	}
	return buf.Bytes(), nil
}
