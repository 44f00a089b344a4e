package usage

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"integratepdf-backend/internal/shared/server/middleware"
	"integratepdf-backend/internal/shared/server/respond"
	"integratepdf-backend/internal/users"
)

// Handler exposes the current quota window.
type Handler struct {
	Svc   *Service
	Users *users.Service
}

func NewHandler(svc *Service, usersSvc *users.Service) *Handler {
	return &Handler{Svc: svc, Users: usersSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/usage", h.get)
}

func (h *Handler) get(c *gin.Context) {
	externalID := middleware.UserIDFromContext(c)

	user, err := h.Users.Resolve(c.Request.Context(), externalID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "unknown identity", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch usage", nil)
		return
	}

	u, err := h.Svc.Get(c.Request.Context(), user.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "unknown identity", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch usage", nil)
		return
	}

	respond.OK(c, gin.H{
		"plan":      u.Plan,
		"used":      u.Used,
		"limit":     u.Limit,
		"remaining": max(u.Limit-u.Used, 0),
		"resetsAt":  u.ResetsAt,
	})
}
