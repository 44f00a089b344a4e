package integrations

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"integratepdf-backend/internal/documents"
	"integratepdf-backend/internal/shared/server/middleware"
	"integratepdf-backend/internal/shared/server/respond"
	"integratepdf-backend/internal/users"
)

// Handler exposes integration CRUD and pushes.
type Handler struct {
	Svc   *Service
	Users *users.Service
}

func NewHandler(svc *Service, usersSvc *users.Service) *Handler {
	return &Handler{Svc: svc, Users: usersSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/integrations", h.list)
	rg.POST("/integrations", h.create)
	rg.GET("/integrations/history", h.history)
	rg.GET("/integrations/:id", h.get)
	rg.PATCH("/integrations/:id", h.update)
	rg.DELETE("/integrations/:id", h.delete)
	rg.POST("/integrations/:id/push", h.push)
}

type createRequest struct {
	Type   string            `json:"type" binding:"required"`
	Name   string            `json:"name" binding:"required"`
	Config map[string]string `json:"config" binding:"required"`
}

func (h *Handler) create(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "type, name and config are required", nil)
		return
	}

	integration, err := h.Svc.Create(c.Request.Context(), user.ID, req.Type, req.Name, req.Config)
	if err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			respond.Error(c, http.StatusBadRequest, "invalid_input", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create integration", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, gin.H{"integration": integrationJSON(integration)})
}

func (h *Handler) list(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	items, err := h.Svc.List(c.Request.Context(), user.ID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list integrations", nil)
		return
	}
	out := make([]gin.H, 0, len(items))
	for _, it := range items {
		out = append(out, integrationJSON(it))
	}
	respond.OK(c, gin.H{"integrations": out})
}

func (h *Handler) get(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	integration, err := h.Svc.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "integration not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch integration", nil)
		return
	}
	respond.OK(c, gin.H{"integration": integrationJSON(integration)})
}

type updateRequest struct {
	Name     *string           `json:"name"`
	Config   map[string]string `json:"config"`
	IsActive *bool             `json:"is_active"`
}

func (h *Handler) update(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "invalid update payload", nil)
		return
	}

	integration, err := h.Svc.Update(c.Request.Context(), user.ID, c.Param("id"), UpdateInput{
		Name:     req.Name,
		Config:   req.Config,
		IsActive: req.IsActive,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "integration not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update integration", nil)
		return
	}
	respond.OK(c, gin.H{"integration": integrationJSON(integration)})
}

func (h *Handler) delete(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), user.ID, c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "integration not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete integration", nil)
		return
	}
	respond.OK(c, gin.H{"deleted": true})
}

type pushRequest struct {
	DocumentID string            `json:"documentId" binding:"required"`
	Data       map[string]string `json:"data"`
	Mapping    map[string]string `json:"mapping"`
}

func (h *Handler) push(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	var req pushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_input", "documentId is required", nil)
		return
	}

	outcome, err := h.Svc.Push(c.Request.Context(), user.ID, c.Param("id"), req.DocumentID, req.Data, req.Mapping)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "integration not found", nil)
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, ErrNotImplemented):
			respond.Error(c, http.StatusNotImplemented, "not_implemented", "integration type not yet implemented", nil)
		case errors.Is(err, ErrInactive):
			respond.Error(c, http.StatusBadRequest, "invalid_input", "integration is not active", nil)
		case errors.Is(err, ErrInvalidConfig):
			respond.Error(c, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		default:
			// Upstream API errors surface verbatim as the failure message.
			respond.JSON(c, http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		}
		return
	}

	respond.OK(c, gin.H{
		"success":     true,
		"external_id": outcome.ExternalID,
		"pushed_at":   outcome.PushedAt,
		"result":      outcome.Raw,
	})
}

func (h *Handler) history(c *gin.Context) {
	user, ok := h.resolveUser(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.Svc.ListHistory(c.Request.Context(), user.ID, limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list push history", nil)
		return
	}

	out := make([]gin.H, 0, len(records))
	for _, rec := range records {
		out = append(out, gin.H{
			"id":             rec.ID,
			"document_id":    rec.DocumentID,
			"integration_id": rec.IntegrationID,
			"success":        rec.Success,
			"external_id":    rec.ExternalID,
			"error_message":  rec.ErrorMessage,
			"created_at":     rec.CreatedAt,
		})
	}
	respond.OK(c, gin.H{"history": out})
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

func integrationJSON(it Integration) gin.H {
	return gin.H{
		"id":           it.ID,
		"type":         it.Type,
		"name":         it.Name,
		"config":       it.Config,
		"is_active":    it.IsActive,
		"last_sync_at": it.LastSyncAt,
		"created_at":   it.CreatedAt,
		"updated_at":   it.UpdatedAt,
	}
}
