// Package cloudsync pushes and fetches the full application snapshot
// against a keyed JSON blob endpoint. Last writer wins; there is no
// merging.
package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ubmqi/backend/internal/domain"
)

var (
	ErrBadSignature = errors.New("cloudsync: document signature mismatch")
	ErrNotFound     = errors.New("cloudsync: document not found")
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type createResponse struct {
	ID string `json:"id"`
}

// Create uploads a new document and returns the server-assigned id.
func (c *Client) Create(ctx context.Context, snap domain.Snapshot) (string, error) {
	body, err := c.do(ctx, http.MethodPost, c.baseURL, snap)
	if err != nil {
		return "", err
	}
	var resp createResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("cloudsync: decode create response: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("cloudsync: create response missing id")
	}
	return resp.ID, nil
}

// Update overwrites the document behind id.
func (c *Client) Update(ctx context.Context, id string, snap domain.Snapshot) error {
	_, err := c.do(ctx, http.MethodPost, c.baseURL+"/"+id, snap)
	return err
}

// Fetch downloads the document behind id and validates its signature.
func (c *Client) Fetch(ctx context.Context, id string) (*domain.Snapshot, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL+"/"+id, nil)
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("cloudsync: decode document: %w", err)
	}
	if snap.AppSignature != domain.SnapshotSignature {
		return nil, ErrBadSignature
	}
	return &snap, nil
}

func (c *Client) do(ctx context.Context, method string, url string, payload any) ([]byte, error) {
	var reqBody *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("cloudsync: encode payload: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("cloudsync: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloudsync: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("cloudsync: unexpected status %d", resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("cloudsync: read response: %w", err)
	}
	return buf.Bytes(), nil
}
