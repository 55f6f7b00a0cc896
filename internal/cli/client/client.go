// Package client is the HTTP client for the warden operator API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chatwarden/chatwarden/internal/models"
	"github.com/chatwarden/chatwarden/internal/service"
)

// Client talks to a running warden daemon.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a Client for the daemon at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// EventsResponse is the payload of the events listing endpoint.
type EventsResponse struct {
	Events []models.SecurityEvent `json:"events"`
	Count  int                    `json:"count"`
}

// ClearResponse is the payload of the clear-suspicion endpoint.
type ClearResponse struct {
	UserID  int64 `json:"user_id"`
	Cleared bool  `json:"cleared"`
}

// ReloadResponse is the payload of the config-reload endpoint.
type ReloadResponse struct {
	Reloaded       bool   `json:"reloaded"`
	AutoModeration bool   `json:"auto_moderation"`
	Threshold      int    `json:"threshold"`
	SecurityLevel  string `json:"security_level"`
}

// WarnRequest is the warn endpoint payload.
type WarnRequest struct {
	UserName string `json:"user_name"`
	Reason   string `json:"reason"`
}

// TimeoutRequest is the timeout endpoint payload.
type TimeoutRequest struct {
	UserName        string `json:"user_name"`
	DurationMinutes int    `json:"duration_minutes"`
	Reason          string `json:"reason"`
}

// Status fetches the moderation overview.
func (c *Client) Status() (*service.Status, error) {
	var st service.Status
	if err := c.do(http.MethodGet, "/api/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Events lists recent security events, optionally filtered by type.
func (c *Client) Events(eventType string, limit int) (*EventsResponse, error) {
	q := url.Values{}
	if eventType != "" {
		q.Set("type", eventType)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	path := "/api/v1/events"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var resp EventsResponse
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats fetches the aggregate event statistics.
func (c *Client) Stats() (*service.Stats, error) {
	var st service.Stats
	if err := c.do(http.MethodGet, "/api/v1/events/stats", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ScanUser fetches a user's suspicion standing.
func (c *Client) ScanUser(userID int64) (*service.UserReport, error) {
	var rep service.UserReport
	path := fmt.Sprintf("/api/v1/users/%d", userID)
	if err := c.do(http.MethodGet, path, nil, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Warn issues a manual warning.
func (c *Client) Warn(userID int64, req *WarnRequest) (*service.UserReport, error) {
	var rep service.UserReport
	path := fmt.Sprintf("/api/v1/users/%d/warn", userID)
	if err := c.do(http.MethodPost, path, req, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// Timeout issues a manual timeout.
func (c *Client) Timeout(userID int64, req *TimeoutRequest) (*service.UserReport, error) {
	var rep service.UserReport
	path := fmt.Sprintf("/api/v1/users/%d/timeout", userID)
	if err := c.do(http.MethodPost, path, req, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

// ClearSuspicion wipes a user's suspicion record.
func (c *Client) ClearSuspicion(userID int64) (*ClearResponse, error) {
	var resp ClearResponse
	path := fmt.Sprintf("/api/v1/users/%d/suspicion", userID)
	if err := c.do(http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReloadConfig asks the daemon to re-read its configuration.
func (c *Client) ReloadConfig() (*ReloadResponse, error) {
	var resp ReloadResponse
	if err := c.do(http.MethodPost, "/api/v1/config/reload", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
