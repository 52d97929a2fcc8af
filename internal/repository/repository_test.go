package repository

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/riftwatch/riftwatch/internal/domain"
)

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "riftwatch-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	repo, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo.(*SQLRepository)
}

func TestIdentityStorage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		m := &domain.IdentityMapping{
			RiotID:   "Faker#KR1",
			PUUID:    "puuid-001",
			CachedAt: time.Now().UTC(),
		}
		if err := repo.SaveIdentity(ctx, m); err != nil {
			t.Fatalf("SaveIdentity failed: %v", err)
		}

		got, err := repo.GetIdentity(ctx, "Faker#KR1")
		if err != nil {
			t.Fatalf("GetIdentity failed: %v", err)
		}
		if got.PUUID != "puuid-001" {
			t.Errorf("expected puuid-001, got %s", got.PUUID)
		}
		if got.RiotID != "Faker#KR1" {
			t.Errorf("expected original casing preserved, got %s", got.RiotID)
		}
	})

	t.Run("CaseInsensitiveLookup", func(t *testing.T) {
		got, err := repo.GetIdentity(ctx, "FAKER#kr1")
		if err != nil {
			t.Fatalf("GetIdentity failed: %v", err)
		}
		if got.PUUID != "puuid-001" {
			t.Errorf("expected puuid-001, got %s", got.PUUID)
		}
	})

	t.Run("UpsertReplacesInPlace", func(t *testing.T) {
		m := &domain.IdentityMapping{
			RiotID:   "faker#kr1",
			PUUID:    "puuid-renewed",
			CachedAt: time.Now().UTC(),
		}
		if err := repo.SaveIdentity(ctx, m); err != nil {
			t.Fatalf("SaveIdentity failed: %v", err)
		}

		all, err := repo.ListIdentities(ctx)
		if err != nil {
			t.Fatalf("ListIdentities failed: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("expected 1 row after upsert, got %d", len(all))
		}
		if all[0].PUUID != "puuid-renewed" {
			t.Errorf("expected puuid-renewed, got %s", all[0].PUUID)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.GetIdentity(ctx, "Nobody#NA1")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RejectsEmptyPUUID", func(t *testing.T) {
		err := repo.SaveIdentity(ctx, &domain.IdentityMapping{
			RiotID:   "Broken#NA1",
			PUUID:    "",
			CachedAt: time.Now().UTC(),
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty puuid, got %v", err)
		}
	})

	t.Run("DeleteCorrupted", func(t *testing.T) {
		// The write path rejects empty puuids, so seed the row directly
		// the way a pre-validation version of the schema could have left it.
		_, err := repo.db.ExecContext(ctx,
			`INSERT INTO identity_mappings (riot_id, display_riot_id, puuid, cached_at) VALUES (?, ?, '', ?)`,
			"broken#na1", "Broken#NA1", time.Now().UTC(),
		)
		if err != nil {
			t.Fatalf("failed to seed corrupted row: %v", err)
		}

		n, err := repo.DeleteCorruptedIdentities(ctx)
		if err != nil {
			t.Fatalf("DeleteCorruptedIdentities failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 corrupted row removed, got %d", n)
		}

		_, err = repo.GetIdentity(ctx, "Broken#NA1")
		if !errors.Is(err, ErrNotFound) {
			t.Error("expected corrupted row to be gone")
		}
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		err := repo.SaveIdentity(ctx, &domain.IdentityMapping{
			RiotID:   "Ancient#NA1",
			PUUID:    "puuid-old",
			CachedAt: time.Now().UTC().Add(-40 * 24 * time.Hour),
		})
		if err != nil {
			t.Fatalf("SaveIdentity failed: %v", err)
		}

		n, err := repo.DeleteExpiredIdentities(ctx, 30*24*time.Hour)
		if err != nil {
			t.Fatalf("DeleteExpiredIdentities failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 expired row removed, got %d", n)
		}

		// Fresh rows survive
		if _, err := repo.GetIdentity(ctx, "Faker#KR1"); err != nil {
			t.Errorf("fresh identity should survive expiry sweep: %v", err)
		}
	})
}

func TestMatchStorage(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	payload, _ := json.Marshal(domain.MatchPayload{
		Info: domain.MatchInfo{QueueID: domain.QueueRankedSolo, GameDuration: 1800},
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		cachedAt := time.Now().UTC().Truncate(time.Second)
		if err := repo.SaveMatch(ctx, "KR_100", payload, cachedAt); err != nil {
			t.Fatalf("SaveMatch failed: %v", err)
		}

		raw, got, err := repo.GetMatchRaw(ctx, "KR_100")
		if err != nil {
			t.Fatalf("GetMatchRaw failed: %v", err)
		}
		if string(raw) != string(payload) {
			t.Error("payload round-trip mismatch")
		}
		if got.Unix() != cachedAt.Unix() {
			t.Errorf("expected cachedAt %v, got %v", cachedAt, got)
		}
	})

	t.Run("SaveIsIdempotent", func(t *testing.T) {
		if err := repo.SaveMatch(ctx, "KR_100", payload, time.Now().UTC()); err != nil {
			t.Fatalf("second SaveMatch failed: %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, _, err := repo.GetMatchRaw(ctx, "KR_999")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteCorrupted", func(t *testing.T) {
		if err := repo.SaveMatch(ctx, "KR_BAD", []byte("{not json"), time.Now().UTC()); err != nil {
			t.Fatalf("SaveMatch failed: %v", err)
		}

		valid := func(raw []byte) bool {
			var p domain.MatchPayload
			return json.Unmarshal(raw, &p) == nil
		}
		n, err := repo.DeleteCorruptedMatches(ctx, valid)
		if err != nil {
			t.Fatalf("DeleteCorruptedMatches failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 corrupted match removed, got %d", n)
		}

		// Healthy row untouched
		if _, _, err := repo.GetMatchRaw(ctx, "KR_100"); err != nil {
			t.Errorf("healthy match should survive: %v", err)
		}
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		if err := repo.SaveMatch(ctx, "KR_OLD", payload, time.Now().UTC().Add(-10*time.Hour)); err != nil {
			t.Fatalf("SaveMatch failed: %v", err)
		}

		n, err := repo.DeleteExpiredMatches(ctx, 9*time.Hour)
		if err != nil {
			t.Fatalf("DeleteExpiredMatches failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 expired match removed, got %d", n)
		}
	})
}

func TestTrackedPlayers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("AddAndList", func(t *testing.T) {
		err := repo.AddTrackedPlayer(ctx, &domain.TrackedPlayer{
			GuildID: "guild-001",
			RiotID:  "Faker#KR1",
			Region:  "kr",
		})
		if err != nil {
			t.Fatalf("AddTrackedPlayer failed: %v", err)
		}

		players, err := repo.ListTrackedPlayers(ctx, "guild-001")
		if err != nil {
			t.Fatalf("ListTrackedPlayers failed: %v", err)
		}
		if len(players) != 1 {
			t.Fatalf("expected 1 player, got %d", len(players))
		}
		if players[0].RiotID != "Faker#KR1" {
			t.Errorf("expected Faker#KR1, got %s", players[0].RiotID)
		}
	})

	t.Run("DuplicateIsCaseInsensitive", func(t *testing.T) {
		err := repo.AddTrackedPlayer(ctx, &domain.TrackedPlayer{
			GuildID: "guild-001",
			RiotID:  "FAKER#kr1",
			Region:  "kr",
		})
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("SamePlayerOtherGuild", func(t *testing.T) {
		err := repo.AddTrackedPlayer(ctx, &domain.TrackedPlayer{
			GuildID: "guild-002",
			RiotID:  "Faker#KR1",
			Region:  "kr",
		})
		if err != nil {
			t.Errorf("tracking in a second guild should succeed: %v", err)
		}
	})

	t.Run("ListGuildIDs", func(t *testing.T) {
		guilds, err := repo.ListGuildIDs(ctx)
		if err != nil {
			t.Fatalf("ListGuildIDs failed: %v", err)
		}
		if len(guilds) != 2 {
			t.Errorf("expected 2 guilds, got %d", len(guilds))
		}
	})

	t.Run("Remove", func(t *testing.T) {
		if err := repo.RemoveTrackedPlayer(ctx, "guild-001", "faker#KR1"); err != nil {
			t.Fatalf("RemoveTrackedPlayer failed: %v", err)
		}

		err := repo.RemoveTrackedPlayer(ctx, "guild-001", "Faker#KR1")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound on second removal, got %v", err)
		}
	})
}

func TestStreakCooldowns(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("MissingReturnsNotFound", func(t *testing.T) {
		_, err := repo.GetStreakCooldown(ctx, "guild-001", "Faker#KR1", domain.StreakLoss)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		cd := &domain.StreakCooldown{
			GuildID:      "guild-001",
			RiotID:       "Faker#KR1",
			Kind:         domain.StreakLoss,
			LastMatchID:  "KR_500",
			LastNotified: time.Now().UTC(),
			StreakLength: 4,
		}
		if err := repo.SaveStreakCooldown(ctx, cd); err != nil {
			t.Fatalf("SaveStreakCooldown failed: %v", err)
		}

		got, err := repo.GetStreakCooldown(ctx, "guild-001", "Faker#KR1", domain.StreakLoss)
		if err != nil {
			t.Fatalf("GetStreakCooldown failed: %v", err)
		}
		if got.LastMatchID != "KR_500" || got.StreakLength != 4 {
			t.Errorf("unexpected cooldown row: %+v", got)
		}
	})

	t.Run("KindsAreIndependent", func(t *testing.T) {
		_, err := repo.GetStreakCooldown(ctx, "guild-001", "Faker#KR1", domain.StreakWin)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("win cooldown should be separate from loss, got %v", err)
		}
	})

	t.Run("UpsertAdvances", func(t *testing.T) {
		cd := &domain.StreakCooldown{
			GuildID:      "guild-001",
			RiotID:       "Faker#KR1",
			Kind:         domain.StreakLoss,
			LastMatchID:  "KR_510",
			LastNotified: time.Now().UTC(),
			StreakLength: 6,
		}
		if err := repo.SaveStreakCooldown(ctx, cd); err != nil {
			t.Fatalf("SaveStreakCooldown failed: %v", err)
		}

		got, _ := repo.GetStreakCooldown(ctx, "guild-001", "Faker#KR1", domain.StreakLoss)
		if got.LastMatchID != "KR_510" || got.StreakLength != 6 {
			t.Errorf("expected advanced cooldown, got %+v", got)
		}
	})
}
