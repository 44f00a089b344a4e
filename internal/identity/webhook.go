package identity

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"integratepdf-backend/internal/shared/server/respond"
	"integratepdf-backend/internal/shared/telemetry"
	"integratepdf-backend/internal/users"
)

const maxWebhookBytes = 1 << 20

// WebhookHandler receives identity-provider user events. It is the system of
// record for user provisioning.
type WebhookHandler struct {
	Secret string
	Users  *users.Service
	now    func() time.Time
}

func NewWebhookHandler(secret string, usersSvc *users.Service) *WebhookHandler {
	return &WebhookHandler{Secret: secret, Users: usersSvc, now: time.Now}
}

func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/identity", h.handle)
}

type eventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type eventUser struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	EmailAddresses []struct {
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (h *WebhookHandler) handle(c *gin.Context) {
	if strings.TrimSpace(h.Secret) == "" {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "webhook secret not configured", nil)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read payload", nil)
		return
	}

	err = VerifySignature(
		h.Secret,
		c.GetHeader("webhook-id"),
		c.GetHeader("webhook-timestamp"),
		c.GetHeader("webhook-signature"),
		payload,
		h.now(),
	)
	if err != nil {
		telemetry.Error("identity.webhook.rejected", map[string]any{
			"request_id": c.GetString("requestId"),
			"reason":     err.Error(),
		})
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid webhook signature", nil)
		return
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid event payload", nil)
		return
	}

	var data eventUser
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid event data", nil)
		return
	}
	if data.ID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "event data missing user id", nil)
		return
	}

	switch envelope.Type {
	case "user.created", "user.updated":
		user := users.User{
			ExternalID: data.ID,
			Email:      primaryEmail(data),
			FullName:   strings.TrimSpace(data.FirstName + " " + data.LastName),
		}
		if _, err := h.Users.UpsertFromIdentity(c.Request.Context(), user); err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to provision user", nil)
			return
		}
	case "user.deleted":
		if err := h.Users.DeleteFromIdentity(c.Request.Context(), data.ID); err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to remove user", nil)
			return
		}
	default:
		// Unknown event types are acknowledged so the provider stops retrying.
		telemetry.Info("identity.webhook.ignored", map[string]any{
			"request_id": c.GetString("requestId"),
			"event_type": envelope.Type,
		})
	}

	telemetry.Info("identity.webhook.processed", map[string]any{
		"request_id": c.GetString("requestId"),
		"event_type": envelope.Type,
		"subject":    data.ID,
	})
	respond.OK(c, gin.H{"received": true})
}

// primaryEmail picks the top-level email when present, falling back to the
// provider's email_addresses list.
func primaryEmail(data eventUser) string {
	if data.Email != "" {
		return data.Email
	}
	if len(data.EmailAddresses) > 0 {
		return data.EmailAddresses[0].EmailAddress
	}
	return ""
}
