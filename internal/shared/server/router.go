package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"integratepdf-backend/internal/documents"
	"integratepdf-backend/internal/extraction"
	"integratepdf-backend/internal/fields"
	"integratepdf-backend/internal/identity"
	"integratepdf-backend/internal/integrations"
	"integratepdf-backend/internal/services/health"
	"integratepdf-backend/internal/shared/config"
	"integratepdf-backend/internal/shared/metrics"
	"integratepdf-backend/internal/shared/server/middleware"
	"integratepdf-backend/internal/shared/server/respond"
	"integratepdf-backend/internal/usage"
	"integratepdf-backend/internal/users"
)

// RouterDeps carries the handlers wired by bootstrap.
type RouterDeps struct {
	Config              config.Config
	Health              *health.Service
	IdentityWebhook     *identity.WebhookHandler
	UsersHandler        *users.Handler
	UsageHandler        *usage.Handler
	DocumentsHandler    *documents.Handler
	ExtractionHandler   *extraction.Handler
	FieldsHandler       *fields.Handler
	IntegrationsHandler *integrations.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")

	api.GET("/health", func(c *gin.Context) {
		status := deps.Health.Status(c.Request.Context())
		code := http.StatusOK
		if ok, _ := status["ok"].(bool); !ok {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	api.GET("/metrics", metrics.Handler())
	deps.IdentityWebhook.RegisterRoutes(api)

	authed := api.Group("")
	authed.Use(
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"DEFAULT": {Rate: 10, Burst: 30},
			},
		}),
	)
	deps.UsersHandler.RegisterRoutes(authed)
	deps.UsageHandler.RegisterRoutes(authed)
	deps.DocumentsHandler.RegisterRoutes(authed)
	deps.ExtractionHandler.RegisterRoutes(authed)
	deps.FieldsHandler.RegisterRoutes(authed)
	deps.IntegrationsHandler.RegisterRoutes(authed)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
