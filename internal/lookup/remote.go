// Package lookup provides contents lookup sources for X-ray enrichment.
package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/JaimeStill/rackscan/internal/config"
	"github.com/JaimeStill/rackscan/pkg/geometry"
)

type contentsRequest struct {
	CaseName string        `json:"case_name"`
	Region   geometry.Quad `json:"region"`
}

type contentsResponse struct {
	SubItems []string `json:"sub_items"`
}

// Remote resolves case contents from an HTTP contents service. Calls are
// throttled through a single-slot limiter.
type Remote struct {
	endpoint string
	token    string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewRemote creates a remote lookup from cfg. A zero MinInterval disables
// throttling.
func NewRemote(cfg *config.LookupConfig, logger *slog.Logger) *Remote {
	limit := rate.Inf
	if d := cfg.MinIntervalDuration(); d > 0 {
		limit = rate.Every(d)
	}

	return &Remote{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		client:   &http.Client{Timeout: cfg.TimeoutDuration()},
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger.With("system", "lookup"),
	}
}

// LookupContents returns the sub-items of caseName. A 404 from the service
// means the case is unknown and yields an empty list.
func (r *Remote) LookupContents(ctx context.Context, caseName string, region geometry.Quad) ([]string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(contentsRequest{CaseName: caseName, Region: region})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		r.logger.DebugContext(ctx, "case not found", "case", caseName)
		return []string{}, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrService, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrService, err)
	}

	if result.SubItems == nil {
		return []string{}, nil
	}
	return result.SubItems, nil
}
