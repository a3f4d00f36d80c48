package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/recommend"
	"github.com/okian/eventmap/internal/domain/types"
)

// Client is a thin JSON client for the event map API.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for baseURL with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{base: baseURL, http: &http.Client{Timeout: timeout}}
}

// ClusterView is the part of a clusters response the load run checks.
type ClusterView struct {
	Version  uint64 `json:"version"`
	Band     string `json:"band"`
	Cached   bool   `json:"cached"`
	Clusters []struct {
		ID        string   `json:"id"`
		MemberIDs []string `json:"member_ids"`
	} `json:"clusters"`
	Unclustered []model.Event `json:"unclustered"`
}

// RankedImpact is GET /impact/{id}.
type RankedImpact struct {
	EventID      string  `json:"event_id"`
	OverallScore float64 `json:"overall_score"`
	Band         string  `json:"band"`
	Rank         int     `json:"rank"`
}

// RecommendRequest is the POST /recommendations body.
type RecommendRequest struct {
	Profile   model.UserProfile `json:"profile"`
	TopN      int               `json:"top_n,omitempty"`
	Threshold *float64          `json:"threshold,omitempty"`
}

// Health probes GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// PutEvents replaces the server snapshot.
func (c *Client) PutEvents(ctx context.Context, key string, events []model.Event) (types.Upload, error) {
	var up types.Upload
	hdr := http.Header{}
	if key != "" {
		hdr.Set("Idempotency-Key", key)
	}
	body := struct {
		Events []model.Event `json:"events"`
	}{Events: events}
	err := c.call(ctx, http.MethodPut, "/events", hdr, body, &up, http.StatusOK, http.StatusAccepted)
	return up, err
}

// Stats fetches GET /stats.
func (c *Client) Stats(ctx context.Context) (types.Stats, error) {
	var st types.Stats
	err := c.call(ctx, http.MethodGet, "/stats", nil, nil, &st, http.StatusOK)
	return st, err
}

// Clusters fetches GET /clusters for zoom.
func (c *Client) Clusters(ctx context.Context, zoom float64) (ClusterView, error) {
	var v ClusterView
	q := url.Values{"zoom": {strconv.FormatFloat(zoom, 'f', -1, 64)}}
	err := c.call(ctx, http.MethodGet, "/clusters?"+q.Encode(), nil, nil, &v, http.StatusOK)
	return v, err
}

// Recommend posts a profile to /recommendations.
func (c *Client) Recommend(ctx context.Context, req RecommendRequest) (recommend.Result, error) {
	var res recommend.Result
	err := c.call(ctx, http.MethodPost, "/recommendations", nil, req, &res, http.StatusOK)
	return res, err
}

// Impact fetches GET /impact/{id}.
func (c *Client) Impact(ctx context.Context, id string) (RankedImpact, error) {
	var ri RankedImpact
	err := c.call(ctx, http.MethodGet, "/impact/"+url.PathEscape(id), nil, nil, &ri, http.StatusOK)
	return ri, err
}

// Leaderboard fetches GET /impact/leaderboard.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	var entries []types.Entry
	err := c.call(ctx, http.MethodGet, "/impact/leaderboard?limit="+strconv.Itoa(limit), nil, nil, &entries, http.StatusOK)
	return entries, err
}

func (c *Client) call(ctx context.Context, method, path string, hdr http.Header, in, out any, ok ...int) error {
	status, body, err := c.do(ctx, method, path, hdr, in)
	if err != nil {
		return err
	}
	accepted := false
	for _, s := range ok {
		accepted = accepted || s == status
	}
	if !accepted {
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, status, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, hdr http.Header, in any) (int, []byte, error) {
	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, nil, err
	}
	for k, v := range hdr {
		req.Header[k] = v
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return resp.StatusCode, body, nil
}
