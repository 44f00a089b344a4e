package documents

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"integratepdf-backend/internal/shared/server/middleware"
	"integratepdf-backend/internal/shared/server/respond"
	"integratepdf-backend/internal/usage"
	"integratepdf-backend/internal/users"
)

// Handler exposes upload, listing, and deletion of documents.
type Handler struct {
	Svc   *Service
	Users *users.Service
}

func NewHandler(svc *Service, usersSvc *users.Service) *Handler {
	return &Handler{Svc: svc, Users: usersSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents", h.list)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) upload(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "file is required", nil)
		return
	}
	if fileHeader.Size > MaxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "File exceeds the 10MB size limit.", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "could not read uploaded file", nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, MaxUploadBytes+1))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "could not read uploaded file", nil)
		return
	}

	keywords := ParseKeywords(c.PostForm("keywords"))
	mimeType := fileHeader.Header.Get("Content-Type")

	doc, warning, err := h.Svc.Upload(c.Request.Context(), user.ID, fileHeader.Filename, mimeType, data, keywords)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			respond.Error(c, http.StatusBadRequest, "invalid_input", verr.Message, nil)
		case errors.Is(err, usage.ErrLimitReached):
			respond.Error(c, http.StatusTooManyRequests, "quota_exceeded", "monthly document limit reached", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "upload failed", nil)
		}
		return
	}

	body := gin.H{
		"document": documentJSON(doc),
		"message":  "Document uploaded successfully.",
	}
	if warning != "" {
		body["warning"] = warning
	}
	respond.JSON(c, http.StatusCreated, body)
}

func (h *Handler) list(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	docs, err := h.Svc.List(c.Request.Context(), user.ID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	items := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		items = append(items, documentJSON(doc))
	}
	respond.OK(c, gin.H{"documents": items})
}

func (h *Handler) get(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	doc, err := h.Svc.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		return
	}
	respond.OK(c, gin.H{"document": documentJSON(doc)})
}

func (h *Handler) delete(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete document", nil)
		return
	}
	respond.OK(c, gin.H{"deleted": true})
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

// ParseKeywords splits a comma-separated keyword string, dropping blanks.
func ParseKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func documentJSON(doc Document) gin.H {
	return gin.H{
		"id":                      doc.ID,
		"filename":                doc.FileName,
		"mime_type":               doc.MimeType,
		"size_bytes":              doc.SizeBytes,
		"page_count":              doc.PageCount,
		"keywords":                doc.Keywords,
		"processing_status":       doc.ProcessingStatus,
		"processing_started_at":   doc.ProcessingStartedAt,
		"processing_completed_at": doc.ProcessingCompletedAt,
		"confidence_score":        doc.ConfidenceScore,
		"error_message":           doc.ErrorMessage,
		"created_at":              doc.CreatedAt,
		"updated_at":              doc.UpdatedAt,
	}
}
