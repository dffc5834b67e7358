// Package backend talks to the hosted habit store: row-level CRUD over the
// habits and habit_entries tables filtered by owning user, plus a websocket
// change feed (stream.go).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/restrainapp/restrain/internal/wire"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Client is an HTTP client for the habit backend.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New creates a new backend client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Health checks server reachability. Used as the connectivity probe.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, "GET", "/healthz", nil, nil)
}

// ListHabits returns the user's active habits, newest first.
func (c *Client) ListHabits(ctx context.Context, userID string) ([]wire.HabitRow, error) {
	params := url.Values{}
	params.Set("user_id", userID)
	params.Set("is_active", "true")
	params.Set("order", "created_at.desc")

	var rows []wire.HabitRow
	if err := c.do(ctx, "GET", "/v1/habits?"+params.Encode(), nil, &rows); err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return rows, nil
}

// ListEntries returns all of the user's entries, newest date first.
func (c *Client) ListEntries(ctx context.Context, userID string) ([]wire.EntryRow, error) {
	params := url.Values{}
	params.Set("user_id", userID)
	params.Set("order", "date.desc")

	var rows []wire.EntryRow
	if err := c.do(ctx, "GET", "/v1/entries?"+params.Encode(), nil, &rows); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return rows, nil
}

// InsertHabit creates a habit and returns the server-confirmed row.
func (c *Client) InsertHabit(ctx context.Context, ins wire.HabitInsert) (*wire.HabitRow, error) {
	var row wire.HabitRow
	if err := c.do(ctx, "POST", "/v1/habits", ins, &row); err != nil {
		return nil, fmt.Errorf("insert habit: %w", err)
	}
	return &row, nil
}

// DeactivateHabit soft-deletes a habit by flipping is_active. Rows are
// never hard-deleted so historical entries stay valid.
func (c *Client) DeactivateHabit(ctx context.Context, userID, habitID string) error {
	body := map[string]any{"is_active": false}
	path := fmt.Sprintf("/v1/habits/%s?user_id=%s", habitID, url.QueryEscape(userID))
	if err := c.do(ctx, "PATCH", path, body, nil); err != nil {
		return fmt.Errorf("deactivate habit %s: %w", habitID, err)
	}
	return nil
}

// InsertEntry creates an entry and returns the server-confirmed row.
func (c *Client) InsertEntry(ctx context.Context, ins wire.EntryInsert) (*wire.EntryRow, error) {
	var row wire.EntryRow
	if err := c.do(ctx, "POST", "/v1/entries", ins, &row); err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}
	return &row, nil
}

// UpdateEntry updates an existing entry's completion state.
func (c *Client) UpdateEntry(ctx context.Context, userID, entryID string, upd wire.EntryUpdate) error {
	path := fmt.Sprintf("/v1/entries/%s?user_id=%s", entryID, url.QueryEscape(userID))
	if err := c.do(ctx, "PATCH", path, upd, nil); err != nil {
		return fmt.Errorf("update entry %s: %w", entryID, err)
	}
	return nil
}

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Code
}

// do executes an authenticated request and decodes the JSON response.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Code != "" {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
			case http.StatusForbidden:
				return fmt.Errorf("%w: %s", ErrForbidden, apiErr.Message)
			case http.StatusNotFound:
				return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
			default:
				return &apiErr
			}
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
