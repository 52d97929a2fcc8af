package domain

import (
	"context"
	"time"
)

// Repository defines durable storage for identity mappings, match records,
// the tracked-player registry, and streak cooldowns. All rows are either
// immutable payloads or idempotent upserts, so concurrent writers racing on
// the same key resolve last-write-wins without corruption.
type Repository interface {
	// Identity mapping operations. Lookups are case-insensitive.
	SaveIdentity(ctx context.Context, m *IdentityMapping) error
	GetIdentity(ctx context.Context, riotID string) (*IdentityMapping, error)
	ListIdentities(ctx context.Context) ([]*IdentityMapping, error)
	DeleteCorruptedIdentities(ctx context.Context) (int, error)
	DeleteExpiredIdentities(ctx context.Context, ttl time.Duration) (int, error)

	// Match record operations. SaveMatch replaces in place on conflict.
	// GetMatchRaw returns the serialized payload and its cache timestamp
	// so the caller can apply TTL and deserialization policy.
	SaveMatch(ctx context.Context, matchID string, payload []byte, cachedAt time.Time) error
	GetMatchRaw(ctx context.Context, matchID string) (payload []byte, cachedAt time.Time, err error)
	DeleteCorruptedMatches(ctx context.Context, valid func(payload []byte) bool) (int, error)
	DeleteExpiredMatches(ctx context.Context, ttl time.Duration) (int, error)

	// Tracked-player registry. AddTrackedPlayer rejects duplicates
	// case-insensitively within a guild.
	AddTrackedPlayer(ctx context.Context, p *TrackedPlayer) error
	RemoveTrackedPlayer(ctx context.Context, guildID, riotID string) error
	ListTrackedPlayers(ctx context.Context, guildID string) ([]*TrackedPlayer, error)
	ListGuildIDs(ctx context.Context) ([]string, error)

	// Streak cooldowns, keyed by (guild, player, kind).
	GetStreakCooldown(ctx context.Context, guildID, riotID string, kind StreakKind) (*StreakCooldown, error)
	SaveStreakCooldown(ctx context.Context, cd *StreakCooldown) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
