package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"integratepdf-backend/internal/shared/server/middleware"
	"integratepdf-backend/internal/shared/server/respond"
)

// Handler exposes the current user's profile.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

func (h *Handler) me(c *gin.Context) {
	externalID := middleware.UserIDFromContext(c)

	user, err := h.Svc.Resolve(c.Request.Context(), externalID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "unknown identity", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch profile", nil)
		return
	}

	respond.OK(c, gin.H{
		"id":                 user.ID,
		"email":              user.Email,
		"fullName":           user.FullName,
		"plan":               user.Plan,
		"documentsProcessed": user.DocumentsProcessed,
		"monthlyLimit":       user.MonthlyLimit,
		"createdAt":          user.CreatedAt,
	})
}
