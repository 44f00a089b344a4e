package integrations

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"integratepdf-backend/internal/documents"
	"integratepdf-backend/internal/fields"
	"integratepdf-backend/internal/shared/metrics"
	"integratepdf-backend/internal/shared/telemetry"
)

// Service contains integration business logic: CRUD with sealed
// configs, and routing pushes to provider implementations.
type Service struct {
	Repo      Repo
	History   HistoryRepo
	Cipher    *Cipher
	Registry  *Registry
	Documents *documents.Service
	Fields    *fields.Service
}

func NewService(repo Repo, history HistoryRepo, cipher *Cipher, registry *Registry, docsSvc *documents.Service, fieldsSvc *fields.Service) *Service {
	return &Service{
		Repo:      repo,
		History:   history,
		Cipher:    cipher,
		Registry:  registry,
		Documents: docsSvc,
		Fields:    fieldsSvc,
	}
}

// Create seals the config and stores a new integration.
func (s *Service) Create(ctx context.Context, userID, integrationType, name string, config map[string]string) (Integration, error) {
	if !KnownType(integrationType) {
		return Integration{}, fmt.Errorf("%w: unknown type %q", ErrInvalidConfig, integrationType)
	}
	if name == "" {
		return Integration{}, fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	sealed, err := s.Cipher.SealConfig(config)
	if err != nil {
		return Integration{}, fmt.Errorf("seal config: %w", err)
	}
	row := Row{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      integrationType,
		Name:      name,
		Config:    sealed,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, row); err != nil {
		return Integration{}, err
	}
	return redacted(row, config), nil
}

// Get returns one integration without its secrets.
func (s *Service) Get(ctx context.Context, userID, integrationID string) (Integration, error) {
	row, err := s.Repo.GetByID(ctx, userID, integrationID)
	if err != nil {
		return Integration{}, err
	}
	config, err := s.Cipher.OpenConfig(row.Config)
	if err != nil {
		return Integration{}, fmt.Errorf("open config: %w", err)
	}
	return redacted(row, config), nil
}

// List returns the user's integrations without secrets.
func (s *Service) List(ctx context.Context, userID string) ([]Integration, error) {
	rows, err := s.Repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Integration, 0, len(rows))
	for _, row := range rows {
		config, err := s.Cipher.OpenConfig(row.Config)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		out = append(out, redacted(row, config))
	}
	return out, nil
}

// UpdateInput carries mutable attributes; nil means unchanged.
type UpdateInput struct {
	Name     *string
	Config   map[string]string
	IsActive *bool
}

// Update applies a partial update; a supplied config replaces the stored
// one entirely and is re-sealed.
func (s *Service) Update(ctx context.Context, userID, integrationID string, input UpdateInput) (Integration, error) {
	update := Update{Name: input.Name, IsActive: input.IsActive}
	if input.Config != nil {
		sealed, err := s.Cipher.SealConfig(input.Config)
		if err != nil {
			return Integration{}, fmt.Errorf("seal config: %w", err)
		}
		update.Config = &sealed
	}
	row, err := s.Repo.Update(ctx, userID, integrationID, update)
	if err != nil {
		return Integration{}, err
	}
	config, err := s.Cipher.OpenConfig(row.Config)
	if err != nil {
		return Integration{}, fmt.Errorf("open config: %w", err)
	}
	return redacted(row, config), nil
}

// Delete removes an integration. Its push history rows survive with a
// null integration reference.
func (s *Service) Delete(ctx context.Context, userID, integrationID string) error {
	return s.Repo.Delete(ctx, userID, integrationID)
}

// PushOutcome is the result of one push attempt.
type PushOutcome struct {
	ExternalID string
	PushedAt   time.Time
	Raw        map[string]any
}

// Push routes extracted data to the integration's provider. Every
// attempt writes one history row; success also updates last_sync.
func (s *Service) Push(ctx context.Context, userID, integrationID, documentID string, data map[string]string, mapping map[string]string) (PushOutcome, error) {
	row, err := s.Repo.GetByID(ctx, userID, integrationID)
	if err != nil {
		return PushOutcome{}, err
	}

	doc, err := s.Documents.Get(ctx, userID, documentID)
	if err != nil {
		return PushOutcome{}, err
	}

	// Past this point both resources are owned by the caller; every
	// failure leaves a history row.
	if !row.IsActive {
		s.record(ctx, userID, documentID, integrationID, false, nil, ErrInactive)
		return PushOutcome{}, ErrInactive
	}

	pusher, err := s.Registry.Lookup(row.Type)
	if err != nil {
		s.record(ctx, userID, documentID, integrationID, false, nil, err)
		return PushOutcome{}, err
	}

	pushFields, err := s.buildFields(ctx, userID, documentID, data)
	if err != nil {
		s.record(ctx, userID, documentID, integrationID, false, nil, err)
		return PushOutcome{}, err
	}
	pushFields = ApplyMapping(pushFields, mapping)

	config, err := s.Cipher.OpenConfig(row.Config)
	if err != nil {
		err = fmt.Errorf("open config: %w", err)
		s.record(ctx, userID, documentID, integrationID, false, nil, err)
		return PushOutcome{}, err
	}

	result, pushErr := pusher.Push(ctx, PushInput{
		DocumentName: doc.FileName,
		Fields:       pushFields,
		Config:       config,
	})
	if pushErr != nil {
		metrics.IncPushFailed()
		s.record(ctx, userID, documentID, integrationID, false, nil, pushErr)
		return PushOutcome{}, pushErr
	}

	metrics.IncPushSucceeded()
	pushedAt := time.Now().UTC()
	s.record(ctx, userID, documentID, integrationID, true, &result.ExternalID, nil)
	if err := s.Repo.TouchLastSync(ctx, integrationID, pushedAt); err != nil {
		telemetry.Error("integration.last_sync_update", map[string]any{
			"integrationId": integrationID,
			"error":         err.Error(),
		})
	}

	return PushOutcome{ExternalID: result.ExternalID, PushedAt: pushedAt, Raw: result.Raw}, nil
}

// ListHistory returns recent push attempts for the user.
func (s *Service) ListHistory(ctx context.Context, userID string, limit int) ([]PushRecord, error) {
	return s.History.ListByUser(ctx, userID, limit)
}

// buildFields uses caller-supplied data when present, otherwise the
// stored extracted fields of the document.
func (s *Service) buildFields(ctx context.Context, userID, documentID string, data map[string]string) ([]PushField, error) {
	if len(data) > 0 {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]PushField, 0, len(keys))
		for _, k := range keys {
			out = append(out, PushField{Key: k, Value: data[k]})
		}
		return out, nil
	}

	stored, err := s.Fields.Repo.ListByDocument(ctx, userID, documentID)
	if err != nil {
		return nil, fmt.Errorf("load extracted fields: %w", err)
	}
	out := make([]PushField, 0, len(stored))
	for _, f := range stored {
		out = append(out, PushField{Key: f.FieldKey, Value: f.FieldValue})
	}
	return out, nil
}

func (s *Service) record(ctx context.Context, userID, documentID, integrationID string, success bool, externalID *string, pushErr error) {
	record := PushRecord{
		ID:            uuid.New().String(),
		UserID:        userID,
		DocumentID:    &documentID,
		IntegrationID: &integrationID,
		Success:       success,
		ExternalID:    externalID,
		CreatedAt:     time.Now().UTC(),
	}
	if pushErr != nil {
		msg := pushErr.Error()
		record.ErrorMessage = &msg
	}
	if err := s.History.Append(ctx, record); err != nil {
		telemetry.Error("integration.history_append", map[string]any{
			"integrationId": integrationID,
			"documentId":    documentID,
			"error":         err.Error(),
		})
	}
}

// redacted converts a stored row into the API-facing shape: secrets are
// dropped, only the configured key names remain.
func redacted(row Row, config map[string]string) Integration {
	keys := make(map[string]string, len(config))
	for k := range config {
		keys[k] = "[redacted]"
	}
	return Integration{
		ID:         row.ID,
		UserID:     row.UserID,
		Type:       row.Type,
		Name:       row.Name,
		Config:     keys,
		IsActive:   row.IsActive,
		LastSyncAt: row.LastSyncAt,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}
