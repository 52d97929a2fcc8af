// Package identity resolves human riot IDs to stable provider PUUIDs
// through a two-tier cache.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/riftwatch/riftwatch/internal/domain"
	"github.com/riftwatch/riftwatch/internal/repository"
)

const (
	// Batch resolution pacing: misses are fetched in fixed chunks with a
	// pause between them, on top of the fetch gate's ceiling.
	chunkSize  = 10
	chunkPause = time.Second

	keyPrefix = "puuid:"
)

// Resolver performs riot ID -> PUUID lookups: memory tier, then the
// persistent store (case-insensitive), then the provider on a full miss.
// A mapping, once correct, is treated as permanently valid; only the
// maintenance pass ever removes rows.
type Resolver struct {
	cache domain.Cache
	repo  domain.Repository
	api   domain.RiotAPI
}

// NewResolver creates a resolver over the given tiers.
func NewResolver(cache domain.Cache, repo domain.Repository, api domain.RiotAPI) *Resolver {
	return &Resolver{
		cache: cache,
		repo:  repo,
		api:   api,
	}
}

// Resolve returns the PUUID for a riot ID, or "" when the provider has no
// such account. A missing #TAG separator fails fast with ErrInvalidRiotID.
func (r *Resolver) Resolve(ctx context.Context, rawID string) (string, error) {
	id, err := domain.ParseRiotID(rawID)
	if err != nil {
		return "", err
	}

	if puuid := r.lookupCached(ctx, id); puuid != "" {
		return puuid, nil
	}

	return r.resolveUpstream(ctx, id)
}

// ResolveMany resolves a batch of riot IDs, returning a map of raw ID to
// PUUID for every identifier that resolved. Cache tiers are consulted for
// the whole batch up front; only misses go upstream, in chunks, and one
// identifier's failure never aborts the rest.
func (r *Resolver) ResolveMany(ctx context.Context, rawIDs []string) (map[string]string, error) {
	resolved := make(map[string]string, len(rawIDs))
	var misses []domain.RiotID
	missRaw := make(map[string]string) // normalized -> raw as given

	for _, raw := range rawIDs {
		id, err := domain.ParseRiotID(raw)
		if err != nil {
			slog.Warn("skipping malformed riot id in batch", "riot_id", raw)
			continue
		}
		if puuid := r.lookupCached(ctx, id); puuid != "" {
			resolved[raw] = puuid
			continue
		}
		if _, dup := missRaw[id.Normalized()]; dup {
			continue
		}
		misses = append(misses, id)
		missRaw[id.Normalized()] = raw
	}

	for start := 0; start < len(misses); start += chunkSize {
		end := start + chunkSize
		if end > len(misses) {
			end = len(misses)
		}

		for _, id := range misses[start:end] {
			puuid, err := r.resolveUpstream(ctx, id)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return resolved, err
				}
				slog.Warn("batch resolution failed for player",
					"riot_id", id.String(),
					"error", err,
				)
				continue
			}
			if puuid != "" {
				resolved[missRaw[id.Normalized()]] = puuid
			}
		}

		if end < len(misses) {
			select {
			case <-ctx.Done():
				return resolved, ctx.Err()
			case <-time.After(chunkPause):
			}
		}
	}

	return resolved, nil
}

// PrefetchAll warms the identity cache for every tracked player across all
// guilds. Called once at startup.
func (r *Resolver) PrefetchAll(ctx context.Context) error {
	guildIDs, err := r.repo.ListGuildIDs(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	var rawIDs []string
	for _, guildID := range guildIDs {
		players, err := r.repo.ListTrackedPlayers(ctx, guildID)
		if err != nil {
			slog.Warn("failed to list tracked players", "guild_id", guildID, "error", err)
			continue
		}
		for _, p := range players {
			norm := domain.NormalizeRiotID(p.RiotID)
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			rawIDs = append(rawIDs, p.RiotID)
		}
	}

	if len(rawIDs) == 0 {
		return nil
	}

	resolved, err := r.ResolveMany(ctx, rawIDs)
	slog.Info("identity prefetch complete",
		"players", len(rawIDs),
		"resolved", len(resolved),
	)
	return err
}

// lookupCached consults the memory tier, then the persistent store,
// populating the memory tier on a store hit.
func (r *Resolver) lookupCached(ctx context.Context, id domain.RiotID) string {
	key := keyPrefix + id.Normalized()

	if val, err := r.cache.Get(ctx, key); err == nil && val != nil {
		return string(val)
	}

	m, err := r.repo.GetIdentity(ctx, id.String())
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			slog.Warn("identity store lookup failed", "riot_id", id.String(), "error", err)
		}
		return ""
	}

	_ = r.cache.Set(ctx, key, []byte(m.PUUID), 0)
	return m.PUUID
}

// resolveUpstream fetches the account from the provider and writes the
// mapping through both tiers.
func (r *Resolver) resolveUpstream(ctx context.Context, id domain.RiotID) (string, error) {
	account, err := r.api.AccountByRiotID(ctx, id.GameName, id.TagLine)
	if err != nil {
		return "", err
	}
	if account == nil {
		slog.Info("no account found for riot id", "riot_id", id.String())
		return "", nil
	}

	mapping := &domain.IdentityMapping{
		RiotID:   id.String(),
		PUUID:    account.PUUID,
		CachedAt: time.Now().UTC(),
	}
	if err := r.repo.SaveIdentity(ctx, mapping); err != nil {
		slog.Warn("failed to persist identity mapping", "riot_id", id.String(), "error", err)
	}
	_ = r.cache.Set(ctx, keyPrefix+id.Normalized(), []byte(account.PUUID), 0)

	return account.PUUID, nil
}
