// Shadowscore - Wireless Device Threat Scoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shadowscore

package rules

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/tomtom215/shadowscore/internal/metrics"
	"github.com/tomtom215/shadowscore/internal/threat"
)

// maxResponseBytes bounds the rule service response body.
const maxResponseBytes = 1 << 20

// RemoteConfig configures the HTTP rule provider.
type RemoteConfig struct {
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`

	// RequestsPerSecond and Burst shape the client-side token bucket. Zero disables it.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	Breaker BreakerConfig `koanf:"breaker"`

	// CacheTTL keeps successful scores per BSSID for this long. Zero disables caching.
	CacheTTL  time.Duration `koanf:"cache_ttl"`
	CacheSize int           `koanf:"cache_size"`
}

// Remote fetches rule scores from an external service:
//
//	GET {base_url}/devices/{bssid}/rule-score -> {"score": 42, "flags": {...}}
type Remote struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*threat.RuleScore]
	name    string
}

type remoteResponse struct {
	Score *float64       `json:"score"`
	Flags map[string]any `json:"flags"`
}

// NewRemote creates a remote provider. The base URL must be absolute.
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid rules base URL %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	breakerCfg := cfg.Breaker
	if breakerCfg.MinRequests == 0 {
		breakerCfg = DefaultBreakerConfig()
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	name := "rules-" + u.Host
	return &Remote{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: limiter,
		breaker: newBreaker(name, breakerCfg),
		name:    name,
	}, nil
}

// ScoreDevice implements threat.RuleScoreProvider.
func (r *Remote) ScoreDevice(ctx context.Context, bssid string) (_ *threat.RuleScore, err error) {
	start := time.Now()
	defer func() { metrics.RecordRuleLookup(ProviderRemote, time.Since(start), err) }()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rule provider rate limit wait: %w", err)
		}
	}

	score, err := r.breaker.Execute(func() (*threat.RuleScore, error) {
		return r.fetch(ctx, bssid)
	})
	recordBreakerResult(r.name, err)
	if err != nil {
		return nil, err
	}
	return score, nil
}

func (r *Remote) fetch(ctx context.Context, bssid string) (*threat.RuleScore, error) {
	reqURL := r.baseURL + "/devices/" + url.PathEscape(bssid) + "/rule-score"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rule service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("rule service returned HTTP %d for %s", resp.StatusCode, bssid)
	}

	var body remoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", threat.ErrInvalidRuleScore, err)
	}
	if body.Score == nil {
		return nil, fmt.Errorf("%w: missing score", threat.ErrInvalidRuleScore)
	}
	s := *body.Score
	if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 || s > maxRuleScore {
		return nil, fmt.Errorf("%w: score %v outside [0, 100]", threat.ErrInvalidRuleScore, s)
	}
	return &threat.RuleScore{Score: s, Flags: body.Flags}, nil
}

// IsUnavailable reports whether err means the remote provider is refusing calls.
func IsUnavailable(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
