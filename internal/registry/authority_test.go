// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/source-engine/internal/httputil"
	"github.com/pdiddy/source-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func authorityServer(t *testing.T, scores map[string]any, status int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/v1/authority" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		id := r.URL.Query().Get("source")
		v, ok := scores[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"source": id, "authority_score": v})
	}))
	t.Cleanup(ts.Close)
	return ts, &calls
}

func authorityCfg(baseURL string) types.AuthorityConfig {
	return types.AuthorityConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
		BaseURL:    baseURL,
		APIKey:     "secret",
		MaxRetries: 1,
	}
}

func TestAuthorityClientEnhance(t *testing.T) {
	ts, calls := authorityServer(t, map[string]any{
		"github": 0.9, "hackernews": 0.85, "producthunt": 0.5, "reddit": 1.4, "twitter": 0.3,
	}, http.StatusOK)

	client := NewAuthorityClient(ts.Client(), authorityCfg(ts.URL))
	scores, err := client.Enhance(context.Background(), DefaultProfiles())
	require.NoError(t, err)

	assert.Equal(t, int32(5), atomic.LoadInt32(calls))
	assert.Equal(t, 0.9, scores["github"])
	assert.Equal(t, 1.0, scores["reddit"], "out-of-range scores are clamped")
	assert.Len(t, scores, 5)
}

func TestAuthorityClientFailures(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]any
		status int
		errMsg string
	}{
		{"server error", nil, http.StatusInternalServerError, "HTTP 500"},
		{"unknown source", map[string]any{"github": 0.9}, http.StatusOK, "HTTP 404"},
		{"non-numeric score", map[string]any{"github": "high", "hackernews": 1, "producthunt": 1, "reddit": 1, "twitter": 1}, http.StatusOK, "missing numeric"},
		{"rate limited", nil, http.StatusTooManyRequests, "HTTP 429"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := authorityServer(t, tt.scores, tt.status)
			client := NewAuthorityClient(ts.Client(), authorityCfg(ts.URL))

			_, err := client.Enhance(context.Background(), DefaultProfiles())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestAuthorityClientNoBaseURL(t *testing.T) {
	client := NewAuthorityClient(nil, types.AuthorityConfig{})
	_, err := client.Enhance(context.Background(), DefaultProfiles())
	assert.ErrorIs(t, err, ErrEnhancerUnavailable)
}

func TestRefreshWithUnavailableAuthorityKeepsSnapshot(t *testing.T) {
	ts, _ := authorityServer(t, nil, http.StatusServiceUnavailable)
	reg, err := New(DefaultProfiles(), nil)
	require.NoError(t, err)
	before := reg.All()

	err = reg.Refresh(context.Background(), NewAuthorityClient(ts.Client(), authorityCfg(ts.URL)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEnhancerUnavailable)
	assert.True(t, reg.Stale())
	assert.Equal(t, before, reg.All())
}
