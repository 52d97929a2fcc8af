// Package throttle paces the multi-guild background scan.
package throttle

import (
	"context"
	"sync"
	"time"
)

// guildState is the per-guild pacing record. Process-local and volatile;
// it only protects iteration order within one scan pass.
type guildState struct {
	lastCheck   time.Time
	playerCount int
}

// Governor delays each guild's slice of the background scan by an amount
// derived purely from how many players the guild tracks. Soft, best-effort
// pacing, not admission control.
type Governor struct {
	mu     sync.Mutex
	guilds map[string]*guildState

	// sleep is swappable for tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGovernor creates an empty throttle governor.
func NewGovernor() *Governor {
	return &Governor{
		guilds: make(map[string]*guildState),
		sleep:  sleepCtx,
	}
}

// delayFor maps tracked-player count to the minimum spacing between scans.
func delayFor(playerCount int) time.Duration {
	switch {
	case playerCount > 100:
		return 5 * time.Second
	case playerCount > 50:
		return 3 * time.Second
	case playerCount > 20:
		return time.Second
	default:
		return 500 * time.Millisecond
	}
}

// WaitForGuild suspends the caller until the guild's spacing has elapsed
// since its previous call, then records the new state. State updates
// happen whether or not a sleep occurred.
func (g *Governor) WaitForGuild(ctx context.Context, guildID string, playerCount int) error {
	g.mu.Lock()
	state, ok := g.guilds[guildID]
	if !ok {
		state = &guildState{}
		g.guilds[guildID] = state
	}
	elapsed := time.Since(state.lastCheck)
	wait := delayFor(playerCount) - elapsed
	if !ok || state.lastCheck.IsZero() {
		wait = 0
	}
	g.mu.Unlock()

	if wait > 0 {
		if err := g.sleep(ctx, wait); err != nil {
			return err
		}
	}

	g.mu.Lock()
	state.lastCheck = time.Now()
	state.playerCount = playerCount
	g.mu.Unlock()

	return nil
}

// LastState reports the recorded pacing state for a guild.
func (g *Governor) LastState(guildID string) (lastCheck time.Time, playerCount int, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, ok := g.guilds[guildID]
	if !ok {
		return time.Time{}, 0, false
	}
	return state.lastCheck, state.playerCount, true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
