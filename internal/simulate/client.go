package simulate

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

	"github.com/okian/tracksense/internal/domain/catalog"
	"github.com/okian/tracksense/internal/domain/scoring"
	"github.com/okian/tracksense/internal/domain/types"
)

const maxErrorBody = 512

// Client talks to the assessment HTTP API.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

// Tracks fetches the catalog.
func (c *Client) Tracks(ctx context.Context) ([]catalog.Track, error) {
	var tracks []catalog.Track
	if err := c.do(ctx, http.MethodGet, "/tracks", nil, http.StatusOK, &tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// Start opens an assessment in lang.
func (c *Client) Start(ctx context.Context, lang string) (types.Started, error) {
	var out types.Started
	body := map[string]string{"language": lang}
	err := c.do(ctx, http.MethodPost, "/assessments", body, http.StatusCreated, &out)
	return out, err
}

// Turn posts one turn.
func (c *Client) Turn(ctx context.Context, id string, t TurnRequest) (types.TurnOutcome, error) {
	var out types.TurnOutcome
	err := c.do(ctx, http.MethodPost, "/assessments/"+url.PathEscape(id)+"/turns", t, http.StatusOK, &out)
	return out, err
}

// Result fetches the final result.
func (c *Client) Result(ctx context.Context, id string) (*scoring.Result, error) {
	var out scoring.Result
	if err := c.do(ctx, http.MethodGet, "/assessments/"+url.PathEscape(id)+"/result", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
