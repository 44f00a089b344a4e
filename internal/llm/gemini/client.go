package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"integratepdf-backend/internal/llm"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client implements llm.Client using the Gemini generateContent API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new Gemini client.
func NewClient(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}
	timeout := 120 * time.Second
	if raw := strings.TrimSpace(os.Getenv("GEMINI_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      *float32       `json:"temperature,omitempty"`
	ResponseMimeType string         `json:"response_mime_type,omitempty"`
	ResponseSchema   map[string]any `json:"response_schema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// ExtractDocument submits the file plus the extraction prompt and returns
// the model's JSON output.
func (c *Client) ExtractDocument(ctx context.Context, input llm.ExtractInput) (json.RawMessage, error) {
	temp := float32(0)
	reqBody := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: input.MimeType,
					Data:     base64.StdEncoding.EncodeToString(input.Data),
				}},
				{Text: BuildPrompt(input.FileName, input.Keywords)},
			},
		}},
		GenerationConfig: &generationConfig{
			Temperature:      &temp,
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("gemini request timeout: %w", err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("gemini response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("gemini error: %s (%s)", parsed.Error.Message, parsed.Error.Status)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini response missing candidates")
	}

	text := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return nil, fmt.Errorf("gemini response empty content")
	}
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("invalid JSON from Gemini")
	}
	return json.RawMessage(text), nil
}

// responseSchema is the output contract enforced by the API: file name,
// keyword list, and structured key/value/confidence items.
func responseSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"fileName": map[string]any{"type": "STRING"},
			"extractedKeywords": map[string]any{
				"type":  "ARRAY",
				"items": map[string]any{"type": "STRING"},
			},
			"structuredData": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"key":        map[string]any{"type": "STRING"},
						"value":      map[string]any{"type": "STRING"},
						"confidence": map[string]any{"type": "NUMBER"},
					},
					"required": []string{"key", "value", "confidence"},
				},
			},
		},
		"required": []string{"fileName", "extractedKeywords", "structuredData"},
	}
}

var _ llm.Client = (*Client)(nil)
