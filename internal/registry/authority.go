// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/source-engine/internal/httputil"
	"github.com/pdiddy/source-engine/pkg/types"
)

const (
	authorityPath       = "/v1/authority"
	defaultConcurrency  = 4
	maxAuthorityBody    = 1 << 20
	authorityScoreField = "authority_score"
)

// AuthorityClient looks up source authority scores from the external
// domain-reputation service. Each source is one GET request:
//
//	GET {base_url}/v1/authority?source=<id>  ->  {"source": "...", "authority_score": 0.82}
//
// Lookups run concurrently up to cfg.Concurrency and are rate limited to
// cfg.RequestsPerSecond. A single failed lookup fails the whole pass so the
// registry keeps its previous, consistent snapshot.
type AuthorityClient struct {
	client  *http.Client
	cfg     types.AuthorityConfig
	limiter *rate.Limiter
}

// NewAuthorityClient returns a client for the service at cfg.BaseURL.
func NewAuthorityClient(client *http.Client, cfg types.AuthorityConfig) *AuthorityClient {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &AuthorityClient{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Enhance fetches an authority score for every profile.
func (a *AuthorityClient) Enhance(ctx context.Context, profiles []types.SourceProfile) (map[string]float64, error) {
	if a.cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: no base URL configured", ErrEnhancerUnavailable)
	}

	concurrency := a.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	scores := make(map[string]float64, len(profiles))
	for _, p := range profiles {
		g.Go(func() error {
			score, err := a.lookup(gctx, p.ID)
			if err != nil {
				return fmt.Errorf("source %s: %w", p.ID, err)
			}
			mu.Lock()
			scores[p.ID] = score
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

func (a *AuthorityClient) lookup(ctx context.Context, sourceID string) (float64, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	reqURL := strings.TrimSuffix(a.cfg.BaseURL, "/") + authorityPath + "?" +
		url.Values{"source": {sourceID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if a.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", a.cfg.UserAgent)
	}
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, a.client, req, a.cfg.MaxRetries)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEnhancerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: authority service returned HTTP %d", ErrEnhancerUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthorityBody))
	if err != nil {
		return 0, fmt.Errorf("reading authority response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("parsing authority response: invalid JSON")
	}
	field := gjson.GetBytes(body, authorityScoreField)
	if !field.Exists() || field.Type != gjson.Number {
		return 0, fmt.Errorf("authority response missing numeric %s", authorityScoreField)
	}
	return math.Max(0, math.Min(1, field.Float())), nil
}
