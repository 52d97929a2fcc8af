// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/riftwatch/riftwatch/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("record already exists")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveIdentity stores an identity mapping, replacing any existing row for
// the same (case-normalized) riot ID.
func (r *SQLRepository) SaveIdentity(ctx context.Context, m *domain.IdentityMapping) error {
	if m == nil || m.RiotID == "" {
		return fmt.Errorf("%w: riot id is required", ErrInvalidInput)
	}
	if m.PUUID == "" {
		return fmt.Errorf("%w: puuid is required", ErrInvalidInput)
	}

	cachedAt := m.CachedAt
	if cachedAt.IsZero() {
		cachedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO identity_mappings (riot_id, display_riot_id, puuid, cached_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(riot_id) DO UPDATE SET
			display_riot_id = excluded.display_riot_id,
			puuid = excluded.puuid,
			cached_at = excluded.cached_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		domain.NormalizeRiotID(m.RiotID), m.RiotID, m.PUUID, cachedAt,
	)
	return err
}

// GetIdentity retrieves an identity mapping, matching case-insensitively.
func (r *SQLRepository) GetIdentity(ctx context.Context, riotID string) (*domain.IdentityMapping, error) {
	if riotID == "" {
		return nil, fmt.Errorf("%w: riot id is required", ErrInvalidInput)
	}

	query := `
		SELECT display_riot_id, puuid, cached_at
		FROM identity_mappings
		WHERE riot_id = ?
	`

	var m domain.IdentityMapping
	err := r.db.QueryRowContext(ctx, r.rebind(query), domain.NormalizeRiotID(riotID)).Scan(
		&m.RiotID, &m.PUUID, &m.CachedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &m, nil
}

// ListIdentities returns every stored identity mapping.
func (r *SQLRepository) ListIdentities(ctx context.Context) ([]*domain.IdentityMapping, error) {
	query := `SELECT display_riot_id, puuid, cached_at FROM identity_mappings`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []*domain.IdentityMapping
	for rows.Next() {
		var m domain.IdentityMapping
		if err := rows.Scan(&m.RiotID, &m.PUUID, &m.CachedAt); err != nil {
			return nil, err
		}
		mappings = append(mappings, &m)
	}

	return mappings, rows.Err()
}

// DeleteCorruptedIdentities removes mappings whose stored key is unusable.
func (r *SQLRepository) DeleteCorruptedIdentities(ctx context.Context) (int, error) {
	query := `DELETE FROM identity_mappings WHERE puuid IS NULL OR puuid = ''`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	return int(n), err
}

// DeleteExpiredIdentities removes mappings older than ttl.
func (r *SQLRepository) DeleteExpiredIdentities(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)

	query := `DELETE FROM identity_mappings WHERE cached_at < ?`

	result, err := r.db.ExecContext(ctx, r.rebind(query), cutoff)
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	return int(n), err
}

// SaveMatch stores a serialized match payload, replacing in place on
// conflict so re-insertion with the same match ID is idempotent.
func (r *SQLRepository) SaveMatch(ctx context.Context, matchID string, payload []byte, cachedAt time.Time) error {
	if matchID == "" {
		return fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload is required", ErrInvalidInput)
	}

	query := `
		INSERT INTO match_records (match_id, payload, cached_at)
		VALUES (?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			payload = excluded.payload,
			cached_at = excluded.cached_at
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query), matchID, string(payload), cachedAt)
	return err
}

// GetMatchRaw retrieves the serialized payload and cache timestamp for a
// match. TTL and deserialization policy belong to the caller.
func (r *SQLRepository) GetMatchRaw(ctx context.Context, matchID string) ([]byte, time.Time, error) {
	if matchID == "" {
		return nil, time.Time{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	query := `SELECT payload, cached_at FROM match_records WHERE match_id = ?`

	var payload string
	var cachedAt time.Time
	err := r.db.QueryRowContext(ctx, r.rebind(query), matchID).Scan(&payload, &cachedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, err
	}

	return []byte(payload), cachedAt, nil
}

// DeleteCorruptedMatches scans every stored payload and removes the rows
// the validator rejects. Validation failures only; a payload that parses
// but is semantically thin stays.
func (r *SQLRepository) DeleteCorruptedMatches(ctx context.Context, valid func(payload []byte) bool) (int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT match_id, payload FROM match_records`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var corrupted []string
	for rows.Next() {
		var matchID, payload string
		if err := rows.Scan(&matchID, &payload); err != nil {
			return 0, err
		}
		if !valid([]byte(payload)) {
			corrupted = append(corrupted, matchID)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, matchID := range corrupted {
		result, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM match_records WHERE match_id = ?`), matchID)
		if err != nil {
			return removed, err
		}
		if n, err := result.RowsAffected(); err == nil {
			removed += int(n)
		}
	}

	return removed, nil
}

// DeleteExpiredMatches removes rows whose cache timestamp exceeds ttl.
func (r *SQLRepository) DeleteExpiredMatches(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-ttl)

	query := `DELETE FROM match_records WHERE cached_at < ?`

	result, err := r.db.ExecContext(ctx, r.rebind(query), cutoff)
	if err != nil {
		return 0, err
	}

	n, err := result.RowsAffected()
	return int(n), err
}

// AddTrackedPlayer registers a player for a guild. Duplicate riot IDs
// within a guild are rejected case-insensitively.
func (r *SQLRepository) AddTrackedPlayer(ctx context.Context, p *domain.TrackedPlayer) error {
	if p == nil || p.GuildID == "" || p.RiotID == "" {
		return fmt.Errorf("%w: guild id and riot id are required", ErrInvalidInput)
	}

	var existing string
	err := r.db.QueryRowContext(ctx,
		r.rebind(`SELECT riot_id FROM tracked_players WHERE guild_id = ? AND LOWER(riot_id) = LOWER(?)`),
		p.GuildID, p.RiotID,
	).Scan(&existing)
	if err == nil {
		return fmt.Errorf("%w: %s is already tracked in guild %s", ErrDuplicate, p.RiotID, p.GuildID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	query := `
		INSERT INTO tracked_players (guild_id, riot_id, region, last_match_id)
		VALUES (?, ?, ?, NULL)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query), p.GuildID, p.RiotID, p.Region)
	return err
}

// RemoveTrackedPlayer unregisters a player, matching case-insensitively.
func (r *SQLRepository) RemoveTrackedPlayer(ctx context.Context, guildID, riotID string) error {
	if guildID == "" || riotID == "" {
		return fmt.Errorf("%w: guild id and riot id are required", ErrInvalidInput)
	}

	query := `DELETE FROM tracked_players WHERE guild_id = ? AND LOWER(riot_id) = LOWER(?)`

	result, err := r.db.ExecContext(ctx, r.rebind(query), guildID, riotID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

// ListTrackedPlayers returns a guild's tracking registry.
func (r *SQLRepository) ListTrackedPlayers(ctx context.Context, guildID string) ([]*domain.TrackedPlayer, error) {
	if guildID == "" {
		return nil, fmt.Errorf("%w: guild id is required", ErrInvalidInput)
	}

	query := `
		SELECT guild_id, riot_id, region, COALESCE(last_match_id, '')
		FROM tracked_players
		WHERE guild_id = ?
		ORDER BY riot_id
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*domain.TrackedPlayer
	for rows.Next() {
		var p domain.TrackedPlayer
		if err := rows.Scan(&p.GuildID, &p.RiotID, &p.Region, &p.LastMatchID); err != nil {
			return nil, err
		}
		players = append(players, &p)
	}

	return players, rows.Err()
}

// ListGuildIDs returns every guild with at least one tracked player.
func (r *SQLRepository) ListGuildIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT guild_id FROM tracked_players ORDER BY guild_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guildIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		guildIDs = append(guildIDs, id)
	}

	return guildIDs, rows.Err()
}

// GetStreakCooldown retrieves the last published streak for a player.
func (r *SQLRepository) GetStreakCooldown(ctx context.Context, guildID, riotID string, kind domain.StreakKind) (*domain.StreakCooldown, error) {
	if guildID == "" || riotID == "" {
		return nil, fmt.Errorf("%w: guild id and riot id are required", ErrInvalidInput)
	}

	query := `
		SELECT guild_id, riot_id, kind, last_match_id, last_notified, streak_length
		FROM streak_cooldowns
		WHERE guild_id = ? AND LOWER(riot_id) = LOWER(?) AND kind = ?
	`

	var cd domain.StreakCooldown
	err := r.db.QueryRowContext(ctx, r.rebind(query), guildID, riotID, string(kind)).Scan(
		&cd.GuildID, &cd.RiotID, &cd.Kind, &cd.LastMatchID, &cd.LastNotified, &cd.StreakLength,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &cd, nil
}

// SaveStreakCooldown upserts a player's streak cooldown row.
func (r *SQLRepository) SaveStreakCooldown(ctx context.Context, cd *domain.StreakCooldown) error {
	if cd == nil || cd.GuildID == "" || cd.RiotID == "" {
		return fmt.Errorf("%w: guild id and riot id are required", ErrInvalidInput)
	}

	notified := cd.LastNotified
	if notified.IsZero() {
		notified = time.Now().UTC()
	}

	query := `
		INSERT INTO streak_cooldowns (guild_id, riot_id, kind, last_match_id, last_notified, streak_length)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id, riot_id, kind) DO UPDATE SET
			last_match_id = excluded.last_match_id,
			last_notified = excluded.last_notified,
			streak_length = excluded.streak_length
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		cd.GuildID, cd.RiotID, string(cd.Kind), cd.LastMatchID, notified, cd.StreakLength,
	)
	return err
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
