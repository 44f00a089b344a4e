package fields

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"integratepdf-backend/internal/documents"
	"integratepdf-backend/internal/shared/server/middleware"
	"integratepdf-backend/internal/shared/server/respond"
	"integratepdf-backend/internal/users"
)

// Handler exposes extracted data and manual corrections.
type Handler struct {
	Svc       *Service
	Documents *documents.Service
	Users     *users.Service
}

func NewHandler(svc *Service, docsSvc *documents.Service, usersSvc *users.Service) *Handler {
	return &Handler{Svc: svc, Documents: docsSvc, Users: usersSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents/:id/extracted", h.list)
	rg.PUT("/documents/:id/extracted/:fieldId", h.correct)
}

func (h *Handler) list(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}
	documentID := c.Param("id")

	doc, err := h.Documents.Get(c.Request.Context(), user.ID, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		return
	}

	items, stats, err := h.Svc.List(c.Request.Context(), user.ID, documentID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch extracted data", nil)
		return
	}

	data := make([]gin.H, 0, len(items))
	for _, f := range items {
		data = append(data, fieldJSON(f))
	}

	respond.OK(c, gin.H{
		"document": gin.H{
			"id":                doc.ID,
			"filename":          doc.FileName,
			"processing_status": doc.ProcessingStatus,
			"confidence_score":  doc.ConfidenceScore,
		},
		"extracted_data": data,
		"statistics":     stats,
	})
}

type correctionRequest struct {
	FieldValue    string  `json:"field_value" binding:"required"`
	OriginalValue *string `json:"original_value"`
}

func (h *Handler) correct(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "field_value is required", nil)
		return
	}

	field, err := h.Svc.Correct(c.Request.Context(), user.ID, c.Param("id"), c.Param("fieldId"), Correction{
		FieldValue:    req.FieldValue,
		OriginalValue: req.OriginalValue,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "extracted field not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update field", nil)
		return
	}

	respond.OK(c, gin.H{"field": fieldJSON(field)})
}

func (h *Handler) resolveUser(c *gin.Context) (users.User, bool) {
	externalID := middleware.UserIDFromContext(c)
	user, err := h.Users.Resolve(c.Request.Context(), externalID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "unknown identity", nil)
		} else {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve user", nil)
		}
		return users.User{}, false
	}
	return user, true
}

func fieldJSON(f ExtractedField) gin.H {
	return gin.H{
		"id":                f.ID,
		"document_id":       f.DocumentID,
		"field_key":         f.FieldKey,
		"field_value":       f.FieldValue,
		"data_type":         f.DataType,
		"confidence":        f.Confidence,
		"extraction_method": f.ExtractionMethod,
		"is_corrected":      f.IsCorrected,
		"original_value":    f.OriginalValue,
		"created_at":        f.CreatedAt,
		"updated_at":        f.UpdatedAt,
	}
}
