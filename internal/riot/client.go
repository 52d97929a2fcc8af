// Package riot implements the outbound provider client: a single shared
// HTTP connection pool behind a bounded-concurrency admission gate, with
// retry on provider rate limiting.
package riot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/riftwatch/riftwatch/internal/domain"
)

var tracer = otel.Tracer("riftwatch-riot")

// retryBackoffCap bounds the grown backoff between 429 retries.
const retryBackoffCap = 30 * time.Second

// Client talks to the provider API. At most cfg.MaxConcurrent requests are
// in flight across the whole process; callers past the ceiling block until
// a slot frees.
type Client struct {
	cfg    domain.RiotConfig
	client *http.Client
	gate   *semaphore.Weighted
}

// NewClient creates the shared provider client. The connection pool is
// owned by the client for the process lifetime and released by Close.
func NewClient(cfg domain.RiotConfig) *Client {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 20
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15
	}
	if cfg.AccountHost == "" {
		cfg.AccountHost = "americas.api.riotgames.com"
	}

	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		gate: semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// fetchJSON performs one rate-limit-aware GET. A nil body with a nil error
// means the upstream had no data (non-200 response or unreadable body);
// domain.ErrRateLimited is returned only when every retry saw a 429.
func (c *Client) fetchJSON(ctx context.Context, rawURL string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "riot.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", rawURL))

	backoff := time.Second

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		body, retryAfter, err := c.doOnce(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if retryAfter == 0 {
			return body, nil
		}
		if attempt == c.cfg.MaxRetries-1 {
			break
		}

		// 429: honor Retry-After but never wait less than the grown backoff.
		wait := retryAfter
		if backoff > wait {
			wait = backoff
		}
		if wait > retryBackoffCap {
			wait = retryBackoffCap
		}
		backoff *= 2

		slog.Warn("rate limit hit, backing off",
			"url", rawURL,
			"wait", wait.String(),
			"attempt", attempt+1,
		)

		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, domain.ErrRateLimited
}

// doOnce issues a single request under the admission gate. A non-zero
// retryAfter signals the caller to back off and try again.
func (c *Client) doOnce(ctx context.Context, rawURL string) (body []byte, retryAfter time.Duration, err error) {
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, 0, err
	}
	defer c.gate.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Riot-Token", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Warn("provider request failed", "url", rawURL, "error", err)
		return nil, 0, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			slog.Warn("failed to read provider response", "url", rawURL, "error", err)
			return nil, 0, nil
		}
		return data, 0, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		secs, err := strconv.Atoi(resp.Header.Get("Retry-After"))
		if err != nil || secs <= 0 {
			secs = 1
		}
		return nil, time.Duration(secs) * time.Second, nil

	default:
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Warn("provider returned error status",
			"url", rawURL,
			"status", resp.StatusCode,
			"body", string(text),
		)
		return nil, 0, nil
	}
}

// getInto fetches and decodes into v. Malformed JSON is "no data", not a
// hard failure: it logs and reports a miss.
func (c *Client) getInto(ctx context.Context, rawURL string, v any) (bool, error) {
	body, err := c.fetchJSON(ctx, rawURL)
	if err != nil {
		return false, err
	}
	if body == nil {
		return false, nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		slog.Warn("malformed provider response", "url", rawURL, "error", err)
		return false, nil
	}
	return true, nil
}

// AccountByRiotID resolves a game name + tag to the provider account.
func (c *Client) AccountByRiotID(ctx context.Context, gameName, tagLine string) (*domain.Account, error) {
	u := fmt.Sprintf("https://%s/riot/account/v1/accounts/by-riot-id/%s/%s",
		c.cfg.AccountHost, url.PathEscape(gameName), url.PathEscape(tagLine))

	var account domain.Account
	ok, err := c.getInto(ctx, u, &account)
	if err != nil || !ok {
		return nil, err
	}
	if account.PUUID == "" {
		return nil, nil
	}
	return &account, nil
}

// MatchIDsByPUUID returns the player's most-recent-first match ID list.
func (c *Client) MatchIDsByPUUID(ctx context.Context, puuid string, count int) ([]string, error) {
	u := fmt.Sprintf("https://%s/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%d",
		c.cfg.AccountHost, url.PathEscape(puuid), count)

	var ids []string
	ok, err := c.getInto(ctx, u, &ids)
	if err != nil || !ok {
		return nil, err
	}
	return ids, nil
}

// MatchByID fetches one full match payload.
func (c *Client) MatchByID(ctx context.Context, matchID string) (*domain.MatchPayload, error) {
	u := fmt.Sprintf("https://%s/lol/match/v5/matches/%s",
		c.cfg.AccountHost, url.PathEscape(matchID))

	var payload domain.MatchPayload
	ok, err := c.getInto(ctx, u, &payload)
	if err != nil || !ok {
		return nil, err
	}
	return &payload, nil
}

// TimelineByID fetches the timestamped event log for one match.
func (c *Client) TimelineByID(ctx context.Context, matchID string) (*domain.Timeline, error) {
	u := fmt.Sprintf("https://%s/lol/match/v5/matches/%s/timeline",
		c.cfg.AccountHost, url.PathEscape(matchID))

	var timeline domain.Timeline
	ok, err := c.getInto(ctx, u, &timeline)
	if err != nil || !ok {
		return nil, err
	}
	return &timeline, nil
}

// LeagueEntries returns the player's ranked entries across queues.
func (c *Client) LeagueEntries(ctx context.Context, region, puuid string) ([]domain.LeagueEntry, error) {
	if region == "" {
		region = c.cfg.DefaultRegion
	}

	u := fmt.Sprintf("https://%s.api.riotgames.com/lol/league/v4/entries/by-puuid/%s",
		region, url.PathEscape(puuid))

	var entries []domain.LeagueEntry
	ok, err := c.getInto(ctx, u, &entries)
	if err != nil || !ok {
		return nil, err
	}
	return entries, nil
}

// Close releases the shared connection pool.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
