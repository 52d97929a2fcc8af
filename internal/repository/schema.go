package repository

// Schema definitions for the Riftwatch database.
// Compatible with both SQLite and PostgreSQL.

const schemaIdentityMappings = `
CREATE TABLE IF NOT EXISTS identity_mappings (
    riot_id TEXT PRIMARY KEY,
    display_riot_id TEXT NOT NULL,
    puuid TEXT NOT NULL,
    cached_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_identity_mappings_puuid ON identity_mappings(puuid);
`

// Match payloads are stored whole; the row is replaced in place on
// re-insert so the table never holds two payloads for one match.
const schemaMatchRecords = `
CREATE TABLE IF NOT EXISTS match_records (
    match_id TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    cached_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_match_records_cached_at ON match_records(cached_at);
`

const schemaTrackedPlayers = `
CREATE TABLE IF NOT EXISTS tracked_players (
    guild_id TEXT NOT NULL,
    riot_id TEXT NOT NULL,
    region TEXT NOT NULL,
    last_match_id TEXT,
    PRIMARY KEY (guild_id, riot_id)
);

CREATE INDEX IF NOT EXISTS idx_tracked_players_guild ON tracked_players(guild_id);
`

const schemaStreakCooldowns = `
CREATE TABLE IF NOT EXISTS streak_cooldowns (
    guild_id TEXT NOT NULL,
    riot_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    last_match_id TEXT NOT NULL,
    last_notified TIMESTAMP NOT NULL,
    streak_length INTEGER NOT NULL,
    PRIMARY KEY (guild_id, riot_id, kind)
);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaIdentityMappings,
		schemaMatchRecords,
		schemaTrackedPlayers,
		schemaStreakCooldowns,
	}
}
