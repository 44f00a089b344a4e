package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"integratepdf-backend/internal/integrations"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
)

// Client pushes extracted data into a Notion database, one page per push.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Notion pusher.
func NewClient() *Client {
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type createPageRequest struct {
	Parent     parent                  `json:"parent"`
	Properties map[string]propertyItem `json:"properties"`
}

type parent struct {
	DatabaseID string `json:"database_id"`
}

type propertyItem struct {
	Title    []richText `json:"title,omitempty"`
	RichText []richText `json:"rich_text,omitempty"`
}

type richText struct {
	Text textContent `json:"text"`
}

type textContent struct {
	Content string `json:"content"`
}

type createPageResponse struct {
	ID     string `json:"id"`
	Object string `json:"object"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Push creates one Notion page with one property per field. The page
// title carries the document name; every push creates a new page.
func (c *Client) Push(ctx context.Context, input integrations.PushInput) (integrations.PushResult, error) {
	apiKey := strings.TrimSpace(input.Config["api_key"])
	databaseID := strings.TrimSpace(input.Config["database_id"])
	if apiKey == "" || databaseID == "" {
		return integrations.PushResult{}, fmt.Errorf("%w: notion requires api_key and database_id", integrations.ErrInvalidConfig)
	}

	properties := map[string]propertyItem{
		"Name": {Title: []richText{{Text: textContent{Content: input.DocumentName}}}},
	}
	for _, f := range input.Fields {
		if f.Key == "Name" {
			continue
		}
		properties[f.Key] = propertyItem{
			RichText: []richText{{Text: textContent{Content: f.Value}}},
		}
	}

	payload, err := json.Marshal(createPageRequest{
		Parent:     parent{DatabaseID: databaseID},
		Properties: properties,
	})
	if err != nil {
		return integrations.PushResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/pages", bytes.NewReader(payload))
	if err != nil {
		return integrations.PushResult{}, err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return integrations.PushResult{}, fmt.Errorf("notion request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return integrations.PushResult{}, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return integrations.PushResult{}, fmt.Errorf("notion: %s (%s)", apiErr.Message, apiErr.Code)
		}
		return integrations.PushResult{}, fmt.Errorf("notion: unexpected status %d", resp.StatusCode)
	}

	var page createPageResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return integrations.PushResult{}, fmt.Errorf("notion response parse: %w", err)
	}
	if page.ID == "" {
		return integrations.PushResult{}, fmt.Errorf("notion response missing page id")
	}

	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	return integrations.PushResult{ExternalID: page.ID, Raw: raw}, nil
}

var _ integrations.Pusher = (*Client)(nil)
