package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"integratepdf-backend/internal/documents"
	"integratepdf-backend/internal/extraction"
	"integratepdf-backend/internal/fields"
	"integratepdf-backend/internal/identity"
	"integratepdf-backend/internal/integrations"
	"integratepdf-backend/internal/integrations/notion"
	"integratepdf-backend/internal/integrations/sheets"
	"integratepdf-backend/internal/llm"
	gemini "integratepdf-backend/internal/llm/gemini"
	"integratepdf-backend/internal/queue"
	"integratepdf-backend/internal/services/health"
	"integratepdf-backend/internal/shared/config"
	"integratepdf-backend/internal/shared/server"
	"integratepdf-backend/internal/shared/storage/db"
	"integratepdf-backend/internal/shared/storage/object"
	localstore "integratepdf-backend/internal/shared/storage/object/local"
	s3store "integratepdf-backend/internal/shared/storage/object/s3"
	"integratepdf-backend/internal/usage"
	"integratepdf-backend/internal/users"
)

// devEncryptionKey is only ever used outside production so local runs
// work without provisioning a key.
const devEncryptionKey = "6265656666616365626565666661636562656566666163656265656666616365"

// ExtractionProcessor is the part of the extraction service the worker
// needs; tests substitute it to avoid real LLM calls.
type ExtractionProcessor interface {
	ProcessJob(ctx context.Context, msg queue.Message) error
}

// App holds shared dependencies built once at startup.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	UsersRepo        users.Repo
	DocumentsRepo    documents.Repo
	FieldsRepo       fields.Repo
	IntegrationsRepo integrations.Repo

	UsersService        *users.Service
	UsageService        *usage.Service
	DocumentsService    *documents.Service
	FieldsService       *fields.Service
	ExtractionService   *extraction.Service
	ExtractionProcessor ExtractionProcessor
	IntegrationsService *integrations.Service
	HealthService       *health.Service
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:              cfg,
		Health:              app.HealthService,
		IdentityWebhook:     identity.NewWebhookHandler(cfg.IdentitySecret, app.UsersService),
		UsersHandler:        users.NewHandler(app.UsersService),
		UsageHandler:        usage.NewHandler(app.UsageService, app.UsersService),
		DocumentsHandler:    documents.NewHandler(app.DocumentsService, app.UsersService),
		ExtractionHandler:   extraction.NewHandler(app.ExtractionService, app.FieldsService, app.UsersService),
		FieldsHandler:       fields.NewHandler(app.FieldsService, app.DocumentsService, app.UsersService),
		IntegrationsHandler: integrations.NewHandler(app.IntegrationsService, app.UsersService),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	client, err := queue.NewSQSClient(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	cfg := app.Config

	var userRepo users.Repo
	var docRepo documents.Repo
	var fieldRepo fields.Repo
	var integrationRepo integrations.Repo
	var historyRepo integrations.HistoryRepo
	var usageSvc *usage.Service

	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
		fieldRepo = &fields.PGRepo{DB: app.DB}
		integrationRepo = &integrations.PGRepo{DB: app.DB}
		historyRepo = &integrations.PGHistoryRepo{DB: app.DB}
		usageSvc = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		userRepo = users.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
		fieldRepo = fields.NewMemoryRepo()
		integrationRepo = integrations.NewMemoryRepo()
		historyRepo = integrations.NewMemoryHistoryRepo()
		usageSvc = usage.NewService()
	}

	userSvc := users.NewService(userRepo)
	docSvc := documents.NewService(docRepo, app.Store, usageSvc, cfg.ObjectStoreType)
	fieldSvc := fields.NewService(fieldRepo)

	llmClient := llm.Client(llm.PlaceholderClient{})
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		geminiClient, err := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		llmClient = geminiClient
	}

	mode := extraction.ModeSync
	if app.Queue != nil {
		mode = extraction.ModeQueue
	}
	extractionSvc := extraction.NewService(docSvc, fieldSvc, llmClient, app.Queue, mode)

	encryptionKey := strings.TrimSpace(cfg.EncryptionKey)
	if encryptionKey == "" {
		if !isDevLike(cfg.Env) {
			return fmt.Errorf("INTEGRATIONS_ENCRYPTION_KEY is required")
		}
		log.Printf("bootstrap: INTEGRATIONS_ENCRYPTION_KEY empty; using dev key")
		encryptionKey = devEncryptionKey
	}
	cipher, err := integrations.NewCipher(encryptionKey)
	if err != nil {
		return err
	}

	registry := integrations.NewRegistry()
	registry.Register(integrations.TypeNotion, notion.NewClient())
	registry.Register(integrations.TypeGoogleSheets, sheets.NewClient(cfg.GoogleClientID, cfg.GoogleClientSecret))

	app.UsersRepo = userRepo
	app.DocumentsRepo = docRepo
	app.FieldsRepo = fieldRepo
	app.IntegrationsRepo = integrationRepo
	app.UsersService = userSvc
	app.UsageService = usageSvc
	app.DocumentsService = docSvc
	app.FieldsService = fieldSvc
	app.ExtractionService = extractionSvc
	app.IntegrationsService = integrations.NewService(integrationRepo, historyRepo, cipher, registry, docSvc, fieldSvc)
	app.HealthService = health.NewService(app.DB)

	return nil
}
