package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"integratepdf-backend/internal/integrations"
)

const (
	defaultBaseURL   = "https://sheets.googleapis.com"
	defaultTokenURL  = "https://oauth2.googleapis.com/token"
	defaultSheetName = "IntegratePDF"
)

// Client appends extracted data into a Google Sheet, one row per push.
// Tokens from the integration config are refreshed through oauth2.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
	httpTimeout  time.Duration
	// newHTTPClient lets tests bypass the oauth2 transport.
	newHTTPClient func(ctx context.Context, token *oauth2.Token) *http.Client
}

// NewClient constructs a Sheets pusher with the app's OAuth client.
func NewClient(clientID, clientSecret string) *Client {
	c := &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      defaultBaseURL,
		tokenURL:     defaultTokenURL,
		httpTimeout:  30 * time.Second,
	}
	c.newHTTPClient = c.oauthHTTPClient
	return c
}

// WithBaseURL overrides the API endpoint, used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// WithHTTPClientFactory overrides token-based client construction, used
// by tests to inject a plain client.
func (c *Client) WithHTTPClientFactory(f func(ctx context.Context, token *oauth2.Token) *http.Client) *Client {
	c.newHTTPClient = f
	return c
}

func (c *Client) oauthHTTPClient(ctx context.Context, token *oauth2.Token) *http.Client {
	conf := &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: c.tokenURL},
	}
	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))
	client.Timeout = c.httpTimeout
	return client
}

// Push writes one row into the configured sheet. A missing spreadsheet
// id creates a new spreadsheet first; a missing header row is written
// before the data row.
func (c *Client) Push(ctx context.Context, input integrations.PushInput) (integrations.PushResult, error) {
	accessToken := strings.TrimSpace(input.Config["access_token"])
	refreshToken := strings.TrimSpace(input.Config["refresh_token"])
	if accessToken == "" && refreshToken == "" {
		return integrations.PushResult{}, fmt.Errorf("%w: google_sheets requires oauth tokens", integrations.ErrInvalidConfig)
	}

	sheetName := strings.TrimSpace(input.Config["sheet_name"])
	if sheetName == "" {
		sheetName = defaultSheetName
	}

	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		// Force a refresh when only a refresh token is configured.
		Expiry: time.Now().Add(-time.Minute),
	}
	if accessToken != "" {
		token.Expiry = time.Now().Add(30 * time.Minute)
	}
	httpClient := c.newHTTPClient(ctx, token)

	spreadsheetID := strings.TrimSpace(input.Config["spreadsheet_id"])
	if spreadsheetID == "" {
		id, err := c.createSpreadsheet(ctx, httpClient, input.DocumentName, sheetName)
		if err != nil {
			return integrations.PushResult{}, err
		}
		spreadsheetID = id
	}

	header := make([]any, 0, len(input.Fields))
	row := make([]any, 0, len(input.Fields))
	for _, f := range input.Fields {
		header = append(header, f.Key)
		row = append(row, f.Value)
	}

	hasHeader, err := c.hasHeaderRow(ctx, httpClient, spreadsheetID, sheetName)
	if err != nil {
		return integrations.PushResult{}, err
	}
	if !hasHeader {
		if err := c.appendValues(ctx, httpClient, spreadsheetID, sheetName, [][]any{header}); err != nil {
			return integrations.PushResult{}, err
		}
	}
	if err := c.appendValues(ctx, httpClient, spreadsheetID, sheetName, [][]any{row}); err != nil {
		return integrations.PushResult{}, err
	}

	externalID := spreadsheetID + ":" + sheetName
	return integrations.PushResult{
		ExternalID: externalID,
		Raw: map[string]any{
			"spreadsheetId": spreadsheetID,
			"sheetName":     sheetName,
			"columns":       len(input.Fields),
		},
	}, nil
}

func (c *Client) createSpreadsheet(ctx context.Context, httpClient *http.Client, title, sheetName string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"properties": map[string]any{"title": title},
		"sheets": []map[string]any{
			{"properties": map[string]any{"title": sheetName}},
		},
	})
	if err != nil {
		return "", err
	}

	body, err := c.do(ctx, httpClient, http.MethodPost, c.baseURL+"/v4/spreadsheets", payload)
	if err != nil {
		return "", err
	}
	var resp struct {
		SpreadsheetID string `json:"spreadsheetId"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("sheets response parse: %w", err)
	}
	if resp.SpreadsheetID == "" {
		return "", fmt.Errorf("sheets response missing spreadsheet id")
	}
	return resp.SpreadsheetID, nil
}

func (c *Client) hasHeaderRow(ctx context.Context, httpClient *http.Client, spreadsheetID, sheetName string) (bool, error) {
	rangeRef := url.PathEscape(sheetName + "!1:1")
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s", c.baseURL, spreadsheetID, rangeRef)
	body, err := c.do(ctx, httpClient, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	var resp struct {
		Values [][]any `json:"values"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("sheets response parse: %w", err)
	}
	return len(resp.Values) > 0, nil
}

func (c *Client) appendValues(ctx context.Context, httpClient *http.Client, spreadsheetID, sheetName string, values [][]any) error {
	payload, err := json.Marshal(map[string]any{"values": values})
	if err != nil {
		return err
	}
	rangeRef := url.PathEscape(sheetName + "!A:Z")
	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW&insertDataOption=INSERT_ROWS",
		c.baseURL, spreadsheetID, rangeRef)
	_, err = c.do(ctx, httpClient, http.MethodPost, endpoint, payload)
	return err
}

func (c *Client) do(ctx context.Context, httpClient *http.Client, method, endpoint string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
				Status  string `json:"status"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("sheets: %s (%s)", apiErr.Error.Message, apiErr.Error.Status)
		}
		return nil, fmt.Errorf("sheets: unexpected status %d", resp.StatusCode)
	}
	return respBody, nil
}

var _ integrations.Pusher = (*Client)(nil)
