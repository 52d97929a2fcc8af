package domain

import "time"

// Queue and duration constants used when composing match history.
// Queue 420 is ranked solo; remakes are games that ended almost immediately.
const (
	QueueRankedSolo = 420
	QueueRankedFlex = 440

	// RemakeCutoff is the minimum duration for a game to count in history.
	RemakeCutoff = 180 * time.Second

	// StreakRemakeCutoff is the stricter cutoff applied by the streak scan.
	StreakRemakeCutoff = 240 * time.Second
)

// MatchRecord is one durable cache row: an immutable match payload plus
// the time it was fetched. Payloads are never patched; a corrupt row is
// deleted by maintenance, not repaired.
type MatchRecord struct {
	MatchID  string        `json:"matchId"`
	Payload  *MatchPayload `json:"payload"`
	CachedAt time.Time     `json:"cachedAt"`
}

// MatchPayload is the full structured record of one completed game.
// The provider treats this as one large document; the fields here are the
// ones the history and enrichment paths actually consume.
type MatchPayload struct {
	Info MatchInfo `json:"info"`
}

// MatchInfo carries game-level metadata and the participant list.
type MatchInfo struct {
	QueueID            int           `json:"queueId"`
	GameMode           string        `json:"gameMode"`
	GameDuration       int64         `json:"gameDuration"` // seconds
	GameStartTimestamp int64         `json:"gameStartTimestamp"`
	Participants       []Participant `json:"participants"`
}

// Participant is one player's stat line within a match.
type Participant struct {
	PUUID                  string `json:"puuid"`
	ParticipantID          int    `json:"participantId"`
	TeamID                 int    `json:"teamId"`
	ChampionName           string `json:"championName"`
	ChampionLevel          int    `json:"champLevel"`
	TeamPosition           string `json:"teamPosition"`
	Kills                  int    `json:"kills"`
	Deaths                 int    `json:"deaths"`
	Assists                int    `json:"assists"`
	Win                    bool   `json:"win"`
	TotalMinionsKilled     int    `json:"totalMinionsKilled"`
	NeutralMinionsKilled   int    `json:"neutralMinionsKilled"`
	VisionScore            int    `json:"visionScore"`
	GoldEarned             int    `json:"goldEarned"`
	TotalDamageToChampions int    `json:"totalDamageDealtToChampions"`
	TotalDamageDealt       int    `json:"totalDamageDealt"`
	DamageDealtToBuildings int    `json:"damageDealtToBuildings"`
	DamageDealtToTurrets   int    `json:"damageDealtToTurrets"`
	TurretKills            int    `json:"turretKills"`
	InhibitorKills         int    `json:"inhibitorKills"`
	LargestKillingSpree    int    `json:"largestKillingSpree"`
}

// Timeline is the timestamped event log of one match.
type Timeline struct {
	Info TimelineInfo `json:"info"`
}

// TimelineInfo holds the per-minute frames.
type TimelineInfo struct {
	Frames []TimelineFrame `json:"frames"`
}

// TimelineFrame is one slice of the event log.
type TimelineFrame struct {
	Events []TimelineEvent `json:"events"`
}

// Timeline event kinds the enrichment path cares about.
const (
	EventChampionKill     = "CHAMPION_KILL"
	EventEliteMonsterKill = "ELITE_MONSTER_KILL"
	EventBuildingKill     = "BUILDING_KILL"
)

// TimelineEvent is one typed event within a frame. Fields not relevant to
// the event's type are zero.
type TimelineEvent struct {
	Type                    string `json:"type"`
	Timestamp               int64  `json:"timestamp"` // ms from game start
	KillerID                int    `json:"killerId,omitempty"`
	VictimID                int    `json:"victimId,omitempty"`
	AssistingParticipantIDs []int  `json:"assistingParticipantIds,omitempty"`
	MonsterType             string `json:"monsterType,omitempty"`
}

// MatchSummary is the light per-match view used by history listings and
// the streak scan.
type MatchSummary struct {
	MatchID      string `json:"matchId"`
	Champion     string `json:"champion"`
	Kills        int    `json:"kills"`
	Deaths       int    `json:"deaths"`
	Assists      int    `json:"assists"`
	Win          bool   `json:"win"`
	GameMode     string `json:"gameMode"`
	GameDuration int64  `json:"gameDuration"`
	Timestamp    int64  `json:"timestamp"`
}

// DetailedMatch is the fully enriched per-match view: the player's stat
// line, team-relative shares, and timeline-derived fields.
type DetailedMatch struct {
	MatchSummary

	CS                     int       `json:"cs"`
	VisionScore            int       `json:"visionScore"`
	DamageDealtToChampions int       `json:"damageDealtToChampions"`
	GoldEarned             int       `json:"goldEarned"`
	KillParticipation      float64   `json:"killParticipation"` // percent
	DamageShare            float64   `json:"damageShare"`       // percent
	GoldShare              float64   `json:"goldShare"`         // percent
	TeamKills              int       `json:"teamKills"`
	TotalMinionsKilled     int       `json:"totalMinionsKilled"`
	NeutralMinionsKilled   int       `json:"neutralMinionsKilled"`
	DamageDealtToBuildings int       `json:"damageDealtToBuildings"`
	DamageDealtToTurrets   int       `json:"damageDealtToTurrets"`
	TeamTowerDamage        int       `json:"teamTowerDamage"`
	FirstBloodKill         bool      `json:"firstBloodKill"`
	FirstBloodAssist       bool      `json:"firstBloodAssist"`
	FirstBloodVictim       bool      `json:"firstBloodVictim"`
	DeathTimes             []float64 `json:"deathTimes"`          // seconds
	ObjectiveTimestamps    []int64   `json:"objectiveTimestamps"` // ms
	TurretKills            int       `json:"turretKills"`
	InhibitorKills         int       `json:"inhibitorKills"`
	TotalDamageDealt       int       `json:"totalDamageDealt"`
	LargestKillingSpree    int       `json:"largestKillingSpree"`
	ChampionLevel          int       `json:"championLevel"`
}

// MaintenanceResult reports what a cache maintenance pass removed.
type MaintenanceResult struct {
	CorruptedRemoved int `json:"corruptedRemoved"`
	ExpiredRemoved   int `json:"expiredRemoved"`
}
