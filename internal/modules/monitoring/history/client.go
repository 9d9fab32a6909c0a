// Package history pulls the persisted recent records from the backend.
package history

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/segmentio/encoding/json"

	"picmon/internal/modules/monitoring/types"
)

const maxBodyBytes = 4 << 20

// Recorder receives fetch outcomes, typically for metrics.
type Recorder interface {
	HistoryFetched(result string, records int)
}

type Client struct {
	baseURL  string
	http     *http.Client
	logger   *slog.Logger
	recorder Recorder
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) SetRecorder(r Recorder) {
	c.recorder = r
}

func (c *Client) URL() string {
	return c.baseURL + HistoryPath
}

// Fetch performs one GET of the history endpoint. Failures are logged and
// yield an empty slice.
func (c *Client) Fetch(ctx context.Context) []types.Record {
	records, err := c.fetch(ctx)
	if err != nil {
		c.logger.Error("fetch history failed", "url", c.URL(), "error", err)
		c.record("error", 0)
		return []types.Record{}
	}
	c.logger.Debug("fetched history", "url", c.URL(), "records", len(records))
	c.record("ok", len(records))
	return records
}

func (c *Client) fetch(ctx context.Context) ([]types.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("close history body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	out := make([]types.Record, 0, len(raw))
	for _, obj := range raw {
		if obj == nil {
			continue
		}
		out = append(out, types.NormalizeRecord(obj))
	}
	return out, nil
}

func (c *Client) record(result string, n int) {
	if c.recorder != nil {
		c.recorder.HistoryFetched(result, n)
	}
}
