// Package matches implements the tiered match record cache and the
// history compositions built on top of it.
package matches

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/riftwatch/riftwatch/internal/domain"
	"github.com/riftwatch/riftwatch/internal/identity"
	"github.com/riftwatch/riftwatch/internal/repository"
)

const (
	// MatchDataTTL bounds how long a persisted match row is trusted.
	// Payloads are immutable, so this is storage hygiene, not freshness.
	MatchDataTTL = 9 * time.Hour

	// MatchIDListTTL bounds the memory-only recent-match-ID cache. The
	// list changes as new games finish, so it goes stale fast.
	MatchIDListTTL = 600 * time.Second

	// IdentityTTL bounds identity rows during maintenance only; the read
	// path never expires them.
	IdentityTTL = 30 * 24 * time.Hour

	matchKeyPrefix = "match:"
	idsKeyPrefix   = "matchids:"
)

// Service owns the match record cache (memory -> store -> provider), the
// short-TTL match-ID list cache, and the enriched history compositions.
type Service struct {
	cache    domain.Cache
	repo     domain.Repository
	api      domain.RiotAPI
	resolver *identity.Resolver

	idListTTL time.Duration
}

// NewService creates the match cache service.
func NewService(cache domain.Cache, repo domain.Repository, api domain.RiotAPI, resolver *identity.Resolver) *Service {
	return &Service{
		cache:     cache,
		repo:      repo,
		api:       api,
		resolver:  resolver,
		idListTTL: MatchIDListTTL,
	}
}

// GetMatch returns one match payload, or nil when it cannot be had.
// Memory hits are served unconditionally; persistent rows are only trusted
// inside MatchDataTTL, and a row that fails to deserialize is a miss (the
// maintenance pass deletes it later, the read path never does).
func (s *Service) GetMatch(ctx context.Context, matchID string) (*domain.MatchPayload, error) {
	key := matchKeyPrefix + matchID

	if raw, err := s.cache.Get(ctx, key); err == nil && raw != nil {
		var payload domain.MatchPayload
		if err := json.Unmarshal(raw, &payload); err == nil {
			return &payload, nil
		}
	}

	raw, cachedAt, err := s.repo.GetMatchRaw(ctx, matchID)
	if err == nil && time.Since(cachedAt) < MatchDataTTL {
		var payload domain.MatchPayload
		if err := json.Unmarshal(raw, &payload); err == nil {
			_ = s.cache.Set(ctx, key, raw, 0)
			return &payload, nil
		}
		slog.Warn("corrupted match row, treating as miss", "match_id", matchID)
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		slog.Warn("match store lookup failed", "match_id", matchID, "error", err)
	}

	payload, err := s.api.MatchByID(ctx, matchID)
	if err != nil || payload == nil {
		return nil, err
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return payload, nil
	}
	if err := s.repo.SaveMatch(ctx, matchID, encoded, time.Now().UTC()); err != nil {
		slog.Warn("failed to persist match record", "match_id", matchID, "error", err)
	}
	_ = s.cache.Set(ctx, key, encoded, 0)

	return payload, nil
}

// RecentMatchIDs returns a player's most-recent-first match ID list.
// Cached per (puuid, count) in memory only; an expired or absent entry is
// refetched and overwrites the cache entry unconditionally.
func (s *Service) RecentMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	key := fmt.Sprintf("%s%s:%d", idsKeyPrefix, puuid, count)

	if raw, err := s.cache.Get(ctx, key); err == nil && raw != nil {
		var ids []string
		if err := json.Unmarshal(raw, &ids); err == nil {
			return ids, nil
		}
	}

	ids, err := s.api.MatchIDsByPUUID(ctx, puuid, count)
	if err != nil || ids == nil {
		return nil, err
	}

	if encoded, err := json.Marshal(ids); err == nil {
		_ = s.cache.Set(ctx, key, encoded, s.idListTTL)
	}

	return ids, nil
}

// MatchHistory returns up to count ranked solo summaries for a player,
// skipping remakes. Returns nil when the identity or ID list is
// unavailable.
func (s *Service) MatchHistory(ctx context.Context, region, riotID string, count int) ([]domain.MatchSummary, error) {
	puuid, err := s.resolver.Resolve(ctx, riotID)
	if err != nil {
		return nil, err
	}
	if puuid == "" {
		return nil, nil
	}

	// Over-fetch so the queue filter still leaves enough games.
	ids, err := s.RecentMatchIDs(ctx, puuid, 30)
	if err != nil || ids == nil {
		return nil, err
	}

	var matches []domain.MatchSummary
	for _, matchID := range ids {
		payload, err := s.GetMatch(ctx, matchID)
		if err != nil {
			return matches, err
		}
		if payload == nil {
			continue
		}
		if payload.Info.QueueID != domain.QueueRankedSolo {
			continue
		}
		if time.Duration(payload.Info.GameDuration)*time.Second < domain.RemakeCutoff {
			continue
		}

		p := findParticipant(payload, puuid)
		if p == nil {
			continue
		}

		matches = append(matches, summarize(matchID, payload, p))
		if len(matches) >= count {
			break
		}
	}

	return matches, nil
}

// DetailedMatches returns up to count fully enriched ranked solo matches:
// the player's stat line, team-relative shares, and timeline-derived
// fields. Returns nil when the identity or ID list is unavailable.
func (s *Service) DetailedMatches(ctx context.Context, region, riotID string, count int) ([]domain.DetailedMatch, error) {
	puuid, err := s.resolver.Resolve(ctx, riotID)
	if err != nil {
		return nil, err
	}
	if puuid == "" {
		return nil, nil
	}

	ids, err := s.RecentMatchIDs(ctx, puuid, count*2)
	if err != nil || ids == nil {
		return nil, err
	}

	var detailed []domain.DetailedMatch
	for _, matchID := range ids {
		payload, err := s.GetMatch(ctx, matchID)
		if err != nil {
			return detailed, err
		}
		if payload == nil {
			continue
		}
		if payload.Info.QueueID != domain.QueueRankedSolo {
			continue
		}

		p := findParticipant(payload, puuid)
		if p == nil {
			continue
		}

		// Timeline misses degrade the enrichment, never the match itself.
		timeline, err := s.api.TimelineByID(ctx, matchID)
		if err != nil && !errors.Is(err, domain.ErrRateLimited) {
			return detailed, err
		}

		detailed = append(detailed, enrich(matchID, payload, p, timeline))
		if len(detailed) >= count {
			break
		}
	}

	return detailed, nil
}

// RunMaintenance removes corrupted and expired rows from the persistent
// tier. Corruption is strictly a deserialization failure; payloads that
// parse but carry little data are left alone. Runs at startup and on the
// recurring schedule.
func (s *Service) RunMaintenance(ctx context.Context) (*domain.MaintenanceResult, error) {
	result := &domain.MaintenanceResult{}

	n, err := s.repo.DeleteCorruptedMatches(ctx, func(payload []byte) bool {
		var p domain.MatchPayload
		return json.Unmarshal(payload, &p) == nil
	})
	if err != nil {
		return result, fmt.Errorf("corrupted match sweep failed: %w", err)
	}
	result.CorruptedRemoved += n

	n, err = s.repo.DeleteExpiredMatches(ctx, MatchDataTTL)
	if err != nil {
		return result, fmt.Errorf("expired match sweep failed: %w", err)
	}
	result.ExpiredRemoved += n

	n, err = s.repo.DeleteCorruptedIdentities(ctx)
	if err != nil {
		return result, fmt.Errorf("corrupted identity sweep failed: %w", err)
	}
	result.CorruptedRemoved += n

	n, err = s.repo.DeleteExpiredIdentities(ctx, IdentityTTL)
	if err != nil {
		return result, fmt.Errorf("expired identity sweep failed: %w", err)
	}
	result.ExpiredRemoved += n

	slog.Info("cache maintenance complete",
		"corrupted_removed", result.CorruptedRemoved,
		"expired_removed", result.ExpiredRemoved,
	)

	return result, nil
}

// CacheStats reports the memory tier's size and capacity.
func (s *Service) CacheStats() (size int, capacity int) {
	return s.cache.Stats()
}

func findParticipant(payload *domain.MatchPayload, puuid string) *domain.Participant {
	for i := range payload.Info.Participants {
		if payload.Info.Participants[i].PUUID == puuid {
			return &payload.Info.Participants[i]
		}
	}
	return nil
}

func summarize(matchID string, payload *domain.MatchPayload, p *domain.Participant) domain.MatchSummary {
	return domain.MatchSummary{
		MatchID:      matchID,
		Champion:     p.ChampionName,
		Kills:        p.Kills,
		Deaths:       p.Deaths,
		Assists:      p.Assists,
		Win:          p.Win,
		GameMode:     payload.Info.GameMode,
		GameDuration: payload.Info.GameDuration,
		Timestamp:    payload.Info.GameStartTimestamp,
	}
}
