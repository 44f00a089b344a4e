package extraction

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"integratepdf-backend/internal/documents"
	"integratepdf-backend/internal/fields"
	"integratepdf-backend/internal/shared/server/middleware"
	"integratepdf-backend/internal/shared/server/respond"
	"integratepdf-backend/internal/users"
)

// Handler exposes extraction triggering and status polling.
type Handler struct {
	Svc    *Service
	Fields *fields.Service
	Users  *users.Service
}

func NewHandler(svc *Service, fieldsSvc *fields.Service, usersSvc *users.Service) *Handler {
	return &Handler{Svc: svc, Fields: fieldsSvc, Users: usersSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/extract", h.trigger)
	rg.GET("/documents/:id/status", h.status)
}

type triggerRequest struct {
	Keywords string `json:"keywords"`
}

func (h *Handler) trigger(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}
	documentID := c.Param("id")

	var req triggerRequest
	_ = c.ShouldBindJSON(&req)
	keywords := documents.ParseKeywords(req.Keywords)

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	doc, err := h.Svc.Trigger(ctx, user.ID, documentID, keywords)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, documents.ErrAlreadyProcessing):
			respond.JSON(c, http.StatusConflict, gin.H{
				"success": false,
				"status":  documents.StatusProcessing,
				"error":   "document is already being processed",
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start extraction", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"success":    true,
		"documentId": doc.ID,
		"status":     doc.ProcessingStatus,
	})
}

func (h *Handler) status(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}
	documentID := c.Param("id")

	doc, err := h.Svc.Documents.Get(c.Request.Context(), user.ID, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch status", nil)
		return
	}

	var fieldCount *int
	if doc.ProcessingStatus == documents.StatusCompleted {
		n, err := h.Fields.Count(c.Request.Context(), user.ID, documentID)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch status", nil)
			return
		}
		fieldCount = &n
	}

	respond.OK(c, gin.H{
		"id":                          doc.ID,
		"filename":                    doc.FileName,
		"processing_status":           doc.ProcessingStatus,
		"processing_started_at":       doc.ProcessingStartedAt,
		"processing_completed_at":     doc.ProcessingCompletedAt,
		"processing_duration_seconds": doc.ProcessingDurationSeconds(),
		"confidence_score":            doc.ConfidenceScore,
		"error_message":               doc.ErrorMessage,
		"extracted_fields_count":      fieldCount,
		"created_at":                  doc.CreatedAt,
		"updated_at":                  doc.UpdatedAt,
	})
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
