package sync

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zulandar/pitstop/internal/models"
)

// Client is the HTTP implementation of Remote against the Pitstop API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates an API client with a bearer session token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// do issues one request and decodes the JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("sync: marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("sync: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sync: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("sync: %s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("sync: %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("sync: decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// FetchTasks implements Remote.
func (c *Client) FetchTasks(ctx context.Context, cursor *time.Time) ([]models.Task, bool, error) {
	path := "/api/tasks"
	if cursor != nil {
		path += "?cursor=" + cursor.UTC().Format(time.RFC3339Nano)
	}
	var resp struct {
		Items   []models.Task `json:"items"`
		HasMore bool          `json:"has_more"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, false, err
	}
	return resp.Items, resp.HasMore, nil
}

// UpdateTask implements Remote.
func (c *Client) UpdateTask(ctx context.Context, id string, patch map[string]interface{}) error {
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+id, patch, nil)
}

// ClaimTask implements Remote.
func (c *Client) ClaimTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/tasks/"+id+"/claim", nil, nil)
}

// ReleaseTask implements Remote.
func (c *Client) ReleaseTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/tasks/"+id+"/release", nil, nil)
}

// ApproveTask implements Remote.
func (c *Client) ApproveTask(ctx context.Context, id string, sendNow bool, reminderAt *time.Time) error {
	body := map[string]interface{}{"send_now": sendNow}
	if reminderAt != nil {
		body["reminder_at"] = reminderAt.UTC().Format(time.RFC3339)
	}
	return c.do(ctx, http.MethodPost, "/api/tasks/"+id+"/approve", body, nil)
}

// CompleteTask implements Remote.
func (c *Client) CompleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/tasks/"+id+"/complete", nil, nil)
}

// CancelTask implements Remote.
func (c *Client) CancelTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/tasks/"+id+"/cancel", nil, nil)
}

// FetchNotifications implements Remote.
func (c *Client) FetchNotifications(ctx context.Context) ([]models.Notification, error) {
	var resp struct {
		Items []models.Notification `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// MarkNotificationRead implements Remote.
func (c *Client) MarkNotificationRead(ctx context.Context, id uint) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/notifications/%d", id), nil, nil)
}

// MarkAllNotificationsRead implements Remote.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/read-all", nil, nil)
}

// Subscribe consumes the SSE change feed, invoking handler for every change
// event until the context is cancelled or the stream ends. Callers decide
// whether to reconnect; the store resynchronizes on the next Refresh either
// way.
func (c *Client) Subscribe(ctx context.Context, handler func(Event)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/events", nil)
	if err != nil {
		return fmt.Errorf("sync: build events request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	// No timeout: the stream is long-lived and bounded by ctx.
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sync: open event stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sync: event stream: status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	current := ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			if current != "change" {
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				continue
			}
			handler(ev)
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("sync: read event stream: %w", err)
	}
	return nil
}
