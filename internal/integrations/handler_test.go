package integrations_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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

func seedPushFixtures(t *testing.T, app *bootstrap.App) (string, string) {
	t.Helper()
	user, err := app.UsersService.UpsertFromIdentity(context.Background(), users.User{
		ExternalID: "ext-push",
		Email:      "ext-push@example.com",
	})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	token, err := auth.SignJWT(auth.Claims{Sub: user.ExternalID})
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	doc, _, err := app.DocumentsService.Upload(context.Background(), user.ID,
		"invoice.pdf", "application/pdf", []byte("%PDF-1.4\nminimal body"), nil)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return token, doc.ID
}

func authedJSON(method, target, token, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestPushAirtableNotImplementedHTTP(t *testing.T) {
	app := buildApp(t)
	token, docID := seedPushFixtures(t, app)

	req := authedJSON(http.MethodPost, "/api/v1/integrations", token,
		`{"type":"airtable","name":"A","config":{"api_key":"k"}}`)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var created struct {
		Integration struct {
			ID     string            `json:"id"`
			Config map[string]string `json:"config"`
		} `json:"integration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Integration.Config["api_key"] != "[redacted]" {
		t.Fatalf("expected redacted config, got %v", created.Integration.Config)
	}

	req = authedJSON(http.MethodPost, "/api/v1/integrations/"+created.Integration.ID+"/push", token,
		`{"documentId":"`+docID+`"}`)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotImplemented {
		t.Fatalf("expected status 501, got %d: %s", resp.Code, resp.Body.String())
	}

	var failure struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil {
		t.Fatalf("decode push response: %v", err)
	}
	if failure.Error.Code != "not_implemented" {
		t.Fatalf("expected code not_implemented, got %q", failure.Error.Code)
	}

	// The failed attempt still lands in the push history.
	req = authedJSON(http.MethodGet, "/api/v1/integrations/history", token, "")
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var history struct {
		History []struct {
			Success bool `json:"success"`
		} `json:"history"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history response: %v", err)
	}
	if len(history.History) != 1 || history.History[0].Success {
		t.Fatalf("expected one failed history row, got %+v", history.History)
	}
}

func TestPushInactiveIntegrationHTTP(t *testing.T) {
	app := buildApp(t)
	token, docID := seedPushFixtures(t, app)

	req := authedJSON(http.MethodPost, "/api/v1/integrations", token,
		`{"type":"notion","name":"N","config":{"api_key":"k","database_id":"db"}}`)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		Integration struct {
			ID string `json:"id"`
		} `json:"integration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	req = authedJSON(http.MethodPatch, "/api/v1/integrations/"+created.Integration.ID, token,
		`{"is_active":false}`)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	req = authedJSON(http.MethodPost, "/api/v1/integrations/"+created.Integration.ID+"/push", token,
		`{"documentId":"`+docID+`"}`)
	resp = httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
	var failure struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil {
		t.Fatalf("decode push response: %v", err)
	}
	if failure.Error.Code != "invalid_input" {
		t.Fatalf("expected code invalid_input, got %q", failure.Error.Code)
	}
}
