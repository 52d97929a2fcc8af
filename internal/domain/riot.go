package domain

import "context"

// RiotAPI is the outbound provider surface consumed by the resolution and
// match caching layers. Implementations own the shared connection and the
// concurrency admission gate.
//
// A nil result with a nil error means "upstream has no data"; callers treat
// it as a miss, never a terminal failure.
type RiotAPI interface {
	// AccountByRiotID resolves a game name + tag to a PUUID.
	AccountByRiotID(ctx context.Context, gameName, tagLine string) (*Account, error)

	// MatchIDsByPUUID returns the most-recent-first match ID list.
	MatchIDsByPUUID(ctx context.Context, puuid string, count int) ([]string, error)

	// MatchByID fetches one full match payload.
	MatchByID(ctx context.Context, matchID string) (*MatchPayload, error)

	// TimelineByID fetches the timestamped event log for one match.
	TimelineByID(ctx context.Context, matchID string) (*Timeline, error)

	// LeagueEntries returns the player's ranked entries across queues.
	LeagueEntries(ctx context.Context, region, puuid string) ([]LeagueEntry, error)

	// Lifecycle
	Close() error
}

// Account is the provider's identity resolution response.
type Account struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

// LeagueEntry is one queue's ranked standing for a player.
type LeagueEntry struct {
	QueueType    string `json:"queueType"`
	Tier         string `json:"tier"`
	Rank         string `json:"rank"`
	LeaguePoints int    `json:"leaguePoints"`
}

// Ranked queue type identifiers used by the provider.
const (
	QueueTypeSolo = "RANKED_SOLO_5x5"
	QueueTypeFlex = "RANKED_FLEX_SR"
)

// RiotConfig holds provider client configuration.
type RiotConfig struct {
	APIKey string

	// AccountHost serves identity and match endpoints (routing region).
	AccountHost string

	// DefaultRegion is the platform region for summoner/league endpoints.
	DefaultRegion string

	// MaxConcurrent caps simultaneous in-flight requests.
	MaxConcurrent int64

	// MaxRetries bounds the 429 retry loop.
	MaxRetries int

	// RequestTimeout is the per-request client timeout in seconds.
	RequestTimeout int
}
