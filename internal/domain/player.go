// Package domain defines the core interfaces and types for Riftwatch.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidRiotID indicates a human identifier missing the #TAG separator.
	// This is a caller error, not an upstream failure.
	ErrInvalidRiotID = errors.New("invalid riot id: expected GameName#TAG")

	// ErrRateLimited indicates the provider kept returning 429 after all
	// retry attempts were exhausted.
	ErrRateLimited = errors.New("upstream persistently rate limiting")
)

// RiotID is a human-readable player identifier: a display name plus a
// discriminator tag ("GameName#TAG"). Lookups are case-insensitive.
type RiotID struct {
	GameName string
	TagLine  string
}

// ParseRiotID splits a raw identifier at the first '#'.
// A missing separator fails fast with ErrInvalidRiotID.
func ParseRiotID(raw string) (RiotID, error) {
	name, tag, ok := strings.Cut(raw, "#")
	if !ok || name == "" || tag == "" {
		return RiotID{}, fmt.Errorf("%w: %q", ErrInvalidRiotID, raw)
	}
	return RiotID{GameName: name, TagLine: tag}, nil
}

// String reassembles the canonical "GameName#TAG" form.
func (id RiotID) String() string {
	return id.GameName + "#" + id.TagLine
}

// Normalized returns the lowercase form used as a cache key.
func (id RiotID) Normalized() string {
	return strings.ToLower(id.String())
}

// NormalizeRiotID lowercases a raw identifier without validating it.
// Used by storage lookups where the identifier was already parsed.
func NormalizeRiotID(raw string) string {
	return strings.ToLower(raw)
}

// IdentityMapping links a riot ID to its provider-issued PUUID.
// Created on first successful resolution, replaced wholesale on
// re-resolution, never updated in place.
type IdentityMapping struct {
	RiotID   string    `json:"riotId"` // canonical, original casing
	PUUID    string    `json:"puuid"`
	CachedAt time.Time `json:"cachedAt"`
}

// TrackedPlayer is one row of the per-guild tracking registry.
type TrackedPlayer struct {
	GuildID     string `json:"guildId"`
	RiotID      string `json:"riotId"`
	Region      string `json:"region"`
	LastMatchID string `json:"lastMatchId,omitempty"`
}

// Rank is a player's standing in one ranked queue.
type Rank struct {
	Tier     string `json:"tier"`
	Division string `json:"division"`
	LP       int    `json:"lp"`
}

// StreakKind distinguishes the two streak alert families.
type StreakKind string

const (
	StreakLoss StreakKind = "loss"
	StreakWin  StreakKind = "win"
)

// StreakCooldown records the last streak already published for a player,
// so the same run of games is never announced twice.
type StreakCooldown struct {
	GuildID      string     `json:"guildId"`
	RiotID       string     `json:"riotId"`
	Kind         StreakKind `json:"kind"`
	LastMatchID  string     `json:"lastMatchId"`
	LastNotified time.Time  `json:"lastNotified"`
	StreakLength int        `json:"streakLength"`
}

// StreakEvent is published on the event bus when the background scan
// detects a new win or loss streak. Delivery is the alerting layer's job.
type StreakEvent struct {
	GuildID     string     `json:"guildId"`
	RiotID      string     `json:"riotId"`
	Kind        StreakKind `json:"kind"`
	Length      int        `json:"length"`
	LastMatchID string     `json:"lastMatchId"`
	DetectedAt  time.Time  `json:"detectedAt"`
}
