// Package scan runs the recurring multi-guild streak scan.
package scan

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/riftwatch/riftwatch/internal/bus"
	"github.com/riftwatch/riftwatch/internal/domain"
	"github.com/riftwatch/riftwatch/internal/matches"
	"github.com/riftwatch/riftwatch/internal/repository"
	"github.com/riftwatch/riftwatch/internal/throttle"
)

// Scanner walks every guild's tracked players on a schedule, detects win
// and loss streaks from cached history, and publishes streak events for
// the alerting layer. The per-guild throttle paces iteration so large
// guilds don't burst the provider.
type Scanner struct {
	repo     domain.Repository
	matchSvc *matches.Service
	governor *throttle.Governor
	bus      domain.EventBus
	cfg      domain.ScanConfig
}

// NewScanner creates the streak scanner.
func NewScanner(repo domain.Repository, matchSvc *matches.Service, governor *throttle.Governor, eventBus domain.EventBus, cfg domain.ScanConfig) *Scanner {
	if cfg.HistoryCount <= 0 {
		cfg.HistoryCount = 20
	}
	if cfg.MinStreak <= 0 {
		cfg.MinStreak = 3
	}
	return &Scanner{
		repo:     repo,
		matchSvc: matchSvc,
		governor: governor,
		bus:      eventBus,
		cfg:      cfg,
	}
}

// Run executes one full scan pass over all guilds. Failures for one player
// or guild are logged and never abort the pass.
func (s *Scanner) Run(ctx context.Context) error {
	guildIDs, err := s.repo.ListGuildIDs(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	for _, guildID := range guildIDs {
		players, err := s.repo.ListTrackedPlayers(ctx, guildID)
		if err != nil {
			slog.Warn("failed to list tracked players", "guild_id", guildID, "error", err)
			continue
		}
		if len(players) == 0 {
			continue
		}

		if err := s.governor.WaitForGuild(ctx, guildID, len(players)); err != nil {
			return err
		}

		for _, p := range players {
			if err := s.scanPlayer(ctx, p); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				slog.Warn("streak scan failed for player",
					"guild_id", guildID,
					"riot_id", p.RiotID,
					"error", err,
				)
			}
		}
	}

	slog.Info("streak scan pass complete",
		"guilds", len(guildIDs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// scanPlayer checks one player's recent games for both streak kinds.
func (s *Scanner) scanPlayer(ctx context.Context, p *domain.TrackedPlayer) error {
	history, err := s.matchSvc.MatchHistory(ctx, p.Region, p.RiotID, s.cfg.HistoryCount)
	if err != nil {
		return err
	}

	// The streak scan applies a stricter remake cutoff than history.
	var games []domain.MatchSummary
	for _, m := range history {
		if time.Duration(m.GameDuration)*time.Second >= domain.StreakRemakeCutoff {
			games = append(games, m)
		}
	}
	if len(games) == 0 {
		return nil
	}

	for _, kind := range []domain.StreakKind{domain.StreakLoss, domain.StreakWin} {
		if err := s.checkStreak(ctx, p, games, kind); err != nil {
			return err
		}
	}
	return nil
}

// checkStreak computes the current streak of one kind and publishes it if
// it is new. The cooldown row guarantees a given run of games is announced
// at most once.
func (s *Scanner) checkStreak(ctx context.Context, p *domain.TrackedPlayer, games []domain.MatchSummary, kind domain.StreakKind) error {
	cd, err := s.repo.GetStreakCooldown(ctx, p.GuildID, p.RiotID, kind)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	// Nothing new since the last announcement for this kind.
	if cd != nil && cd.LastMatchID == games[0].MatchID {
		return nil
	}

	length := streakLength(games, kind == domain.StreakWin)
	if length < s.cfg.MinStreak {
		return nil
	}
	if cd != nil && length == cd.StreakLength {
		return nil
	}

	event := domain.StreakEvent{
		GuildID:     p.GuildID,
		RiotID:      p.RiotID,
		Kind:        kind,
		Length:      length,
		LastMatchID: games[0].MatchID,
		DetectedAt:  time.Now().UTC(),
	}
	if err := bus.PublishStreak(ctx, s.bus, &event); err != nil {
		return err
	}

	slog.Info("streak detected",
		"guild_id", p.GuildID,
		"riot_id", p.RiotID,
		"kind", string(kind),
		"length", length,
	)

	return s.repo.SaveStreakCooldown(ctx, &domain.StreakCooldown{
		GuildID:      p.GuildID,
		RiotID:       p.RiotID,
		Kind:         kind,
		LastMatchID:  games[0].MatchID,
		LastNotified: event.DetectedAt,
		StreakLength: length,
	})
}

// streakLength counts consecutive wins (or losses) from the most recent
// game backward.
func streakLength(games []domain.MatchSummary, wins bool) int {
	n := 0
	for _, m := range games {
		if m.Win != wins {
			break
		}
		n++
	}
	return n
}
