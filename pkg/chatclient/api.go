package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Client talks to the group chat REST API. Every call takes a context so a
// view can cancel everything in flight when it unmounts; responses arriving
// after cancellation are simply never delivered.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL string, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) GetGroup(ctx context.Context, groupID int64) (*GroupDetail, error) {
	var out struct {
		Group GroupDetail `json:"group"`
	}
	path := fmt.Sprintf("/api/groups/%d", groupID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Group, nil
}

// ListMessages fetches the full message snapshot for the group, oldest
// first.
func (c *Client) ListMessages(ctx context.Context, groupID int64) ([]Message, error) {
	var out struct {
		Messages []Message `json:"messages"`
	}
	path := fmt.Sprintf("/api/groups/%d/messages", groupID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Messages, nil
}

func (c *Client) SendMessage(
	ctx context.Context,
	groupID int64,
	content string,
	isAnnouncement bool,
) (*Message, error) {
	body := map[string]any{
		"content":        content,
		"isAnnouncement": isAnnouncement,
	}
	var out struct {
		Message Message `json:"message"`
	}
	path := fmt.Sprintf("/api/groups/%d/messages", groupID)
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out.Message, nil
}

func (c *Client) MarkRead(ctx context.Context, groupID int64, messageID int64) error {
	path := fmt.Sprintf("/api/groups/%d/messages/%d/read", groupID, messageID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) ToggleReaction(
	ctx context.Context,
	groupID int64,
	messageID int64,
	emoji string,
) (bool, error) {
	body := map[string]any{"emoji": emoji}
	var out struct {
		Added bool `json:"added"`
	}
	path := fmt.Sprintf("/api/groups/%d/messages/%d/reactions", groupID, messageID)
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return false, err
	}
	return out.Added, nil
}

// UnreadMap fetches group id → has-unread for every group the viewer
// belongs to.
func (c *Client) UnreadMap(ctx context.Context) (map[int64]bool, error) {
	var out struct {
		Unread map[string]bool `json:"unread"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/groups/unread-count", nil, &out); err != nil {
		return nil, err
	}

	unread := make(map[int64]bool, len(out.Unread))
	for key, value := range out.Unread {
		groupID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		unread[groupID] = value
	}
	return unread, nil
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
