package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/riftwatch/riftwatch/internal/domain"
	"github.com/riftwatch/riftwatch/internal/identity"
	"github.com/riftwatch/riftwatch/internal/matches"
	"github.com/riftwatch/riftwatch/internal/rank"
	"github.com/riftwatch/riftwatch/internal/repository"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	repo     domain.Repository
	cache    domain.Cache
	resolver *identity.Resolver
	matchSvc *matches.Service
	rankSvc  *rank.Service
	region   string
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(repo domain.Repository, cache domain.Cache, resolver *identity.Resolver, matchSvc *matches.Service, rankSvc *rank.Service, region, version string) *Handler {
	return &Handler{
		repo:     repo,
		cache:    cache,
		resolver: resolver,
		matchSvc: matchSvc,
		rankSvc:  rankSvc,
		region:   region,
		version:  version,
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	dbErr := h.repo.Ping(r.Context())
	cacheErr := h.cache.Ping(r.Context())
	if dbErr != nil || cacheErr != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	size, capacity := h.cache.Stats()

	writeJSON(w, code, map[string]any{
		"status":   status,
		"version":  h.version,
		"database": errString(dbErr),
		"cache": map[string]any{
			"status":   errString(cacheErr),
			"size":     size,
			"capacity": capacity,
		},
	})
}

// Ready handles GET /ready.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Resolve handles GET /resolve?riot_id=Name%23TAG.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	riotID := r.URL.Query().Get("riot_id")
	if riotID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "riot_id query parameter is required"})
		return
	}

	puuid, err := h.resolver.Resolve(r.Context(), riotID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRiotID) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "resolution failed, try again later"})
		return
	}
	if puuid == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no account found for " + riotID})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"riotId": riotID,
		"puuid":  puuid,
	})
}

// MatchHistory handles GET /matches?riot_id=...&count=10.
func (h *Handler) MatchHistory(w http.ResponseWriter, r *http.Request) {
	riotID, count, ok := h.historyParams(w, r, 10)
	if !ok {
		return
	}

	history, err := h.matchSvc.MatchHistory(r.Context(), h.queryRegion(r), riotID, count)
	if err != nil {
		h.historyError(w, err)
		return
	}
	if history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no match history found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"riotId":  riotID,
		"matches": history,
	})
}

// DetailedMatches handles GET /matches/detailed?riot_id=...&count=20.
func (h *Handler) DetailedMatches(w http.ResponseWriter, r *http.Request) {
	riotID, count, ok := h.historyParams(w, r, 20)
	if !ok {
		return
	}

	detailed, err := h.matchSvc.DetailedMatches(r.Context(), h.queryRegion(r), riotID, count)
	if err != nil {
		h.historyError(w, err)
		return
	}
	if detailed == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no match history found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"riotId":  riotID,
		"matches": detailed,
	})
}

// Rank handles GET /rank?riot_id=...&queue=solo|flex.
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	riotID := r.URL.Query().Get("riot_id")
	if riotID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "riot_id query parameter is required"})
		return
	}

	var rk *domain.Rank
	var err error
	switch r.URL.Query().Get("queue") {
	case "", "solo":
		rk, err = h.rankSvc.SoloRank(r.Context(), h.queryRegion(r), riotID)
	case "flex":
		rk, err = h.rankSvc.FlexRank(r.Context(), h.queryRegion(r), riotID)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "queue must be solo or flex"})
		return
	}

	if err != nil {
		h.historyError(w, err)
		return
	}
	if rk == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no rank found for " + riotID})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"riotId": riotID,
		"rank":   rk,
	})
}

// TrackedPlayerRequest is the request body for POST /tracked.
type TrackedPlayerRequest struct {
	RiotID string `json:"riotId"`
	Region string `json:"region"`
}

// ListTracked handles GET /tracked for a guild.
func (h *Handler) ListTracked(w http.ResponseWriter, r *http.Request) {
	guildID := GetGuildID(r.Context())

	players, err := h.repo.ListTrackedPlayers(r.Context(), guildID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list tracked players"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"guildId": guildID,
		"players": players,
	})
}

// AddTracked handles POST /tracked for a guild.
func (h *Handler) AddTracked(w http.ResponseWriter, r *http.Request) {
	guildID := GetGuildID(r.Context())

	var req TrackedPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON request body"})
		return
	}
	if _, err := domain.ParseRiotID(req.RiotID); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	region := req.Region
	if region == "" {
		region = h.region
	}

	err := h.repo.AddTrackedPlayer(r.Context(), &domain.TrackedPlayer{
		GuildID: guildID,
		RiotID:  req.RiotID,
		Region:  region,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add tracked player"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"guildId": guildID,
		"riotId":  req.RiotID,
		"region":  region,
	})
}

// RemoveTracked handles DELETE /tracked?riot_id=... for a guild.
func (h *Handler) RemoveTracked(w http.ResponseWriter, r *http.Request) {
	guildID := GetGuildID(r.Context())

	riotID := r.URL.Query().Get("riot_id")
	if riotID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "riot_id query parameter is required"})
		return
	}

	err := h.repo.RemoveTrackedPlayer(r.Context(), guildID, riotID)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": riotID + " is not tracked in this guild"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove tracked player"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"guildId": guildID,
		"riotId":  riotID,
		"status":  "removed",
	})
}

// RunMaintenance handles POST /maintenance.
func (h *Handler) RunMaintenance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := h.matchSvc.RunMaintenance(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "maintenance failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"corruptedRemoved": result.CorruptedRemoved,
		"expiredRemoved":   result.ExpiredRemoved,
		"durationMs":       time.Since(start).Milliseconds(),
	})
}

// CacheStats handles GET /cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	size, capacity := h.cache.Stats()
	writeJSON(w, http.StatusOK, map[string]int{
		"size":     size,
		"capacity": capacity,
	})
}

// historyParams validates the shared riot_id/count query parameters.
func (h *Handler) historyParams(w http.ResponseWriter, r *http.Request, defaultCount int) (string, int, bool) {
	riotID := r.URL.Query().Get("riot_id")
	if riotID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "riot_id query parameter is required"})
		return "", 0, false
	}

	count := defaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "count must be between 1 and 100"})
			return "", 0, false
		}
		count = n
	}

	return riotID, count, true
}

func (h *Handler) queryRegion(r *http.Request) string {
	if region := r.URL.Query().Get("region"); region != "" {
		return region
	}
	return h.region
}

// historyError maps service errors to responses: caller errors are 400,
// everything upstream-shaped is 502 so clients know to retry later.
func (h *Handler) historyError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrInvalidRiotID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream unavailable, try again later"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func errString(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
