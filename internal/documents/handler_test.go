package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"integratepdf-backend/internal/bootstrap"
	"integratepdf-backend/internal/shared/auth"
	"integratepdf-backend/internal/shared/config"
	"integratepdf-backend/internal/users"
)

func buildApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func seedUser(t *testing.T, app *bootstrap.App, externalID string) (users.User, string) {
	t.Helper()
	user, err := app.UsersService.UpsertFromIdentity(context.Background(), users.User{
		ExternalID: externalID,
		Email:      externalID + "@example.com",
	})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	token, err := auth.SignJWT(auth.Claims{Sub: externalID})
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return user, token
}

func pdfUploadRequest(t *testing.T, fileName string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", "application/pdf")
	fileWriter, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create form part: %v", err)
	}
	if _, err := fileWriter.Write([]byte("%PDF-1.4\nminimal body")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestDocumentsUpload(t *testing.T) {
	app := buildApp(t)
	_, token := seedUser(t, app, "ext-upload")

	req := pdfUploadRequest(t, "invoice.pdf")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		Document struct {
			ID               string `json:"id"`
			FileName         string `json:"filename"`
			ProcessingStatus string `json:"processing_status"`
		} `json:"document"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Document.ID == "" {
		t.Fatal("expected document id")
	}
	if created.Document.FileName != "invoice.pdf" {
		t.Fatalf("expected filename invoice.pdf, got %q", created.Document.FileName)
	}
	if created.Document.ProcessingStatus != "pending" {
		t.Fatalf("expected status pending, got %q", created.Document.ProcessingStatus)
	}
}

func TestDocumentsUploadOverQuota(t *testing.T) {
	app := buildApp(t)
	user, token := seedUser(t, app, "ext-quota")

	// Exhaust the monthly allowance up front.
	usage, err := app.UsageService.Get(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if _, err := app.UsageService.Consume(context.Background(), user.ID, usage.Limit); err != nil {
		t.Fatalf("consume quota: %v", err)
	}

	req := pdfUploadRequest(t, "invoice.pdf")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d: %s", resp.Code, resp.Body.String())
	}

	var failure struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if failure.Error.Code != "quota_exceeded" {
		t.Fatalf("expected code quota_exceeded, got %q", failure.Error.Code)
	}
}

func TestDocumentsUploadUnknownIdentity(t *testing.T) {
	app := buildApp(t)
	token, err := auth.SignJWT(auth.Claims{Sub: "ext-never-provisioned"})
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}

	req := pdfUploadRequest(t, "invoice.pdf")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}
