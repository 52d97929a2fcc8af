package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riftwatch/riftwatch/internal/cache"
	"github.com/riftwatch/riftwatch/internal/domain"
	"github.com/riftwatch/riftwatch/internal/identity"
	"github.com/riftwatch/riftwatch/internal/matches"
	"github.com/riftwatch/riftwatch/internal/rank"
	"github.com/riftwatch/riftwatch/internal/repository"
)

// fakeRiot is a canned provider: one known account with a short ranked
// history and solo-queue rank.
type fakeRiot struct{}

func (f *fakeRiot) AccountByRiotID(ctx context.Context, gameName, tagLine string) (*domain.Account, error) {
	if gameName == "Faker" && tagLine == "KR1" {
		return &domain.Account{PUUID: "puuid-faker", GameName: gameName, TagLine: tagLine}, nil
	}
	return nil, nil
}

func (f *fakeRiot) MatchIDsByPUUID(ctx context.Context, puuid string, count int) ([]string, error) {
	ids := make([]string, 0, count)
	for i := 0; i < count && i < 6; i++ {
		ids = append(ids, fmt.Sprintf("KR_%d", i+1))
	}
	return ids, nil
}

func (f *fakeRiot) MatchByID(ctx context.Context, matchID string) (*domain.MatchPayload, error) {
	return &domain.MatchPayload{
		Info: domain.MatchInfo{
			QueueID:      domain.QueueRankedSolo,
			GameMode:     "CLASSIC",
			GameDuration: 1800,
			Participants: []domain.Participant{
				{PUUID: "puuid-faker", ParticipantID: 1, TeamID: 100, ChampionName: "Azir", Kills: 7, Deaths: 2, Assists: 9, Win: true},
				{PUUID: "puuid-other", ParticipantID: 6, TeamID: 200, ChampionName: "Ahri", Kills: 2, Deaths: 7, Assists: 3},
			},
		},
	}, nil
}

func (f *fakeRiot) TimelineByID(ctx context.Context, matchID string) (*domain.Timeline, error) {
	return &domain.Timeline{}, nil
}

func (f *fakeRiot) LeagueEntries(ctx context.Context, region, puuid string) ([]domain.LeagueEntry, error) {
	return []domain.LeagueEntry{
		{QueueType: domain.QueueTypeSolo, Tier: "CHALLENGER", Rank: "I", LeaguePoints: 1247},
	}, nil
}

func (f *fakeRiot) Close() error { return nil }

func createTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: ":memory:",
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	cacheImpl := cache.NewLRUCache(100)
	riotAPI := &fakeRiot{}

	resolver := identity.NewResolver(cacheImpl, repo, riotAPI)
	matchSvc := matches.NewService(cacheImpl, repo, riotAPI, resolver)
	rankSvc := rank.NewService(resolver, riotAPI)

	handler := NewHandler(repo, cacheImpl, resolver, matchSvc, rankSvc, "na1", "test-v1")

	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}
	return NewServer(cfg, handler)
}

func doRequest(t *testing.T, server *Server, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	return rr
}

func TestResolveEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("KnownAccount", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/resolve?riot_id=Faker%23KR1", nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp["puuid"] != "puuid-faker" {
			t.Errorf("expected puuid-faker, got %q", resp["puuid"])
		}
	})

	t.Run("MissingQueryParam", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/resolve", nil, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("MalformedRiotID", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/resolve?riot_id=NoTagHere", nil, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/resolve?riot_id=Nobody%23NA1", nil, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})
}

func TestMatchHistoryEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("ReturnsSummaries", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/matches?riot_id=Faker%23KR1&count=3", nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp struct {
			RiotID  string                `json:"riotId"`
			Matches []domain.MatchSummary `json:"matches"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(resp.Matches) != 3 {
			t.Fatalf("expected 3 matches, got %d", len(resp.Matches))
		}
		if resp.Matches[0].Champion != "Azir" {
			t.Errorf("expected champion Azir, got %q", resp.Matches[0].Champion)
		}
		if !resp.Matches[0].Win {
			t.Error("expected a win in first match")
		}
	})

	t.Run("InvalidCount", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/matches?riot_id=Faker%23KR1&count=0", nil, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestRankEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("SoloRank", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/rank?riot_id=Faker%23KR1", nil, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp struct {
			Rank domain.Rank `json:"rank"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Rank.Tier != "CHALLENGER" {
			t.Errorf("expected CHALLENGER, got %q", resp.Rank.Tier)
		}
	})

	t.Run("FlexRankMissing", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/rank?riot_id=Faker%23KR1&queue=flex", nil, nil)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("UnknownQueue", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/rank?riot_id=Faker%23KR1&queue=arena", nil, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})
}

func TestTrackedEndpoints(t *testing.T) {
	server := createTestServer(t)
	guild := map[string]string{"X-Guild-ID": "guild-001"}

	t.Run("RequiresGuildHeader", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodGet, "/tracked", nil, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("AddAndList", func(t *testing.T) {
		body, _ := json.Marshal(TrackedPlayerRequest{RiotID: "Faker#KR1"})
		rr := doRequest(t, server, http.MethodPost, "/tracked", body, guild)
		if rr.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
		}

		rr = doRequest(t, server, http.MethodGet, "/tracked", nil, guild)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		var resp struct {
			Players []domain.TrackedPlayer `json:"players"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if len(resp.Players) != 1 {
			t.Fatalf("expected 1 tracked player, got %d", len(resp.Players))
		}
		if resp.Players[0].Region != "na1" {
			t.Errorf("expected default region na1, got %q", resp.Players[0].Region)
		}
	})

	t.Run("DuplicateIsConflict", func(t *testing.T) {
		body, _ := json.Marshal(TrackedPlayerRequest{RiotID: "faker#kr1"})
		rr := doRequest(t, server, http.MethodPost, "/tracked", body, guild)
		if rr.Code != http.StatusConflict {
			t.Errorf("expected status 409, got %d", rr.Code)
		}
	})

	t.Run("InvalidRiotID", func(t *testing.T) {
		body, _ := json.Marshal(TrackedPlayerRequest{RiotID: "missing-tag"})
		rr := doRequest(t, server, http.MethodPost, "/tracked", body, guild)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		rr := doRequest(t, server, http.MethodDelete, "/tracked?riot_id=Faker%23KR1", nil, guild)
		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		rr = doRequest(t, server, http.MethodDelete, "/tracked?riot_id=Faker%23KR1", nil, guild)
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404 after removal, got %d", rr.Code)
		}
	})
}

func TestMaintenanceEndpoint(t *testing.T) {
	server := createTestServer(t)

	rr := doRequest(t, server, http.MethodPost, "/maintenance", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if _, ok := resp["corruptedRemoved"]; !ok {
		t.Error("expected corruptedRemoved in response")
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := createTestServer(t)

	rr := doRequest(t, server, http.MethodGet, "/health", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("expected healthy, got %v", resp["status"])
	}
	if resp["version"] != "test-v1" {
		t.Errorf("expected version test-v1, got %v", resp["version"])
	}
}
