package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to the ticket API. It keeps cookies so every call shares one
// server-side session.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout, Jar: jar},
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		se := &StatusError{StatusCode: resp.StatusCode}
		_ = json.Unmarshal(data, se)
		return se
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Vocabulary fetches the configured statuses.
func (c *Client) Vocabulary(ctx context.Context) (Vocabulary, error) {
	var v Vocabulary
	err := c.do(ctx, http.MethodGet, "/api/vocabulary", nil, &v)
	return v, err
}

// List fetches tickets, optionally filtered by status and staff.
func (c *Client) List(ctx context.Context, statuses, staff []string) (Listing, error) {
	q := url.Values{}
	for _, s := range statuses {
		q.Add("status", s)
	}
	for _, s := range staff {
		q.Add("staff", s)
	}
	path := "/api/tickets"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var l Listing
	err := c.do(ctx, http.MethodGet, path, nil, &l)
	return l, err
}

// Create submits a new ticket.
func (c *Client) Create(ctx context.Context, t Ticket) error {
	return c.do(ctx, http.MethodPost, "/api/tickets", t, nil)
}

// UpdateStatus changes a ticket's status.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) error {
	return c.do(ctx, http.MethodPut, "/api/tickets/"+url.PathEscape(id)+"/status", map[string]string{"status": status}, nil)
}

// AppendNote adds a note to a ticket.
func (c *Client) AppendNote(ctx context.Context, id, text string) error {
	return c.do(ctx, http.MethodPost, "/api/tickets/"+url.PathEscape(id)+"/notes", map[string]string{"text": text}, nil)
}

// isDuplicate reports whether err is the server refusing an existing id.
func isDuplicate(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusBadRequest && strings.Contains(se.Message, "already exists")
}
