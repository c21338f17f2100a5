// Package client talks to a running modelkeep server.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultURL = "http://127.0.0.1:9090"

type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

// NewClientFromEnv reads MODELKEEP_SERVER_URL, MODELKEEP_API_TOKEN and
// MODELKEEP_CLIENT_TIMEOUT_MS (default 3000). A malformed URL falls back to
// the local default.
func NewClientFromEnv() (*Client, error) {
	ms := 3000
	if v := os.Getenv("MODELKEEP_CLIENT_TIMEOUT_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ms = parsed
		}
	}

	rawURL := os.Getenv("MODELKEEP_SERVER_URL")
	if rawURL == "" {
		rawURL = defaultURL
	}
	baseURL, err := url.Parse(rawURL)
	if err != nil {
		baseURL, err = url.Parse(defaultURL)
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		baseURL: baseURL,
		token:   os.Getenv("MODELKEEP_API_TOKEN"),
		http:    &http.Client{Timeout: time.Duration(ms) * time.Millisecond},
	}, nil
}

// New builds a client for baseURL.
func New(baseURL, token string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{baseURL: u, token: token, http: hc}, nil
}

func (c *Client) BaseURL() *url.URL { return c.baseURL }

// Job is the server's answer to a download start.
type Job struct {
	ModelID   string    `json:"modelId"`
	JobID     string    `json:"jobId"`
	StartedAt time.Time `json:"startedAt"`
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

// StartDownload asks the server to download modelID in the background.
func (c *Client) StartDownload(ctx context.Context, modelID string) (Job, error) {
	var j Job
	err := c.do(ctx, http.MethodPost, "/v1/models/"+url.PathEscape(modelID)+"/download", &j)
	return j, err
}

// CancelDownload asks the server to cancel modelID's download.
func (c *Client) CancelDownload(ctx context.Context, modelID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/models/"+url.PathEscape(modelID)+"/download", nil)
}

func (c *Client) endpoint(path string) *url.URL {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawPath = ""
	return &u
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path).String(), nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
