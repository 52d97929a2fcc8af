// Package rank looks up a player's ranked standing by queue.
package rank

import (
	"context"

	"github.com/riftwatch/riftwatch/internal/domain"
	"github.com/riftwatch/riftwatch/internal/identity"
)

// Service composes identity resolution with the provider's league-entry
// lookup. Rank data is volatile, so it is fetched fresh on each call.
type Service struct {
	resolver *identity.Resolver
	api      domain.RiotAPI
}

// NewService creates a rank lookup service.
func NewService(resolver *identity.Resolver, api domain.RiotAPI) *Service {
	return &Service{
		resolver: resolver,
		api:      api,
	}
}

// SoloRank returns the player's ranked solo standing, or nil when the
// player is unranked or unavailable.
func (s *Service) SoloRank(ctx context.Context, region, riotID string) (*domain.Rank, error) {
	return s.rankFor(ctx, region, riotID, domain.QueueTypeSolo)
}

// FlexRank returns the player's ranked flex standing, or nil when the
// player is unranked or unavailable.
func (s *Service) FlexRank(ctx context.Context, region, riotID string) (*domain.Rank, error) {
	return s.rankFor(ctx, region, riotID, domain.QueueTypeFlex)
}

func (s *Service) rankFor(ctx context.Context, region, riotID, queueType string) (*domain.Rank, error) {
	puuid, err := s.resolver.Resolve(ctx, riotID)
	if err != nil {
		return nil, err
	}
	if puuid == "" {
		return nil, nil
	}

	entries, err := s.api.LeagueEntries(ctx, region, puuid)
	if err != nil || entries == nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.QueueType == queueType {
			return &domain.Rank{
				Tier:     entry.Tier,
				Division: entry.Rank,
				LP:       entry.LeaguePoints,
			}, nil
		}
	}

	return nil, nil
}
