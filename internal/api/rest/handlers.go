package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/fortuna/rinkside/internal/advstats"
	"github.com/fortuna/rinkside/internal/cache"
	"github.com/fortuna/rinkside/internal/logging"
	"github.com/fortuna/rinkside/internal/service"
)

// RowCatalog resolves the game and lineup context of a stored row.
type RowCatalog interface {
	GameMeta(ctx context.Context, gameID int64) (advstats.GameMeta, bool, error)
	Skaters(ctx context.Context, gameID int64) ([]advstats.Skater, error)
}

// HealthFunc reports whether a dependency is reachable.
type HealthFunc func(ctx context.Context) error

// Handler contains dependencies for HTTP handlers
type Handler struct {
	analytics *service.AnalyticsService
	catalog   RowCatalog
	cache     cache.ResponseCache
	cacheTTL  time.Duration
	checks    map[string]HealthFunc
	version   string
	logger    *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithCache caches successful responses for ttl.
func WithCache(c cache.ResponseCache, ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithHealthCheck adds a named dependency to /health.
func WithHealthCheck(name string, fn HealthFunc) HandlerOption {
	return func(h *Handler) { h.checks[name] = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logging.OrDefault(l) }
}

// WithVersion sets the calc version reported by /health and used for rows.
func WithVersion(v string) HandlerOption {
	return func(h *Handler) { h.version = v }
}

// NewHandler creates a new handler
func NewHandler(analytics *service.AnalyticsService, catalog RowCatalog, opts ...HandlerOption) *Handler {
	h := &Handler{
		analytics: analytics,
		catalog:   catalog,
		checks:    make(map[string]HealthFunc),
		version:   "v1",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	body := map[string]interface{}{
		"status":       "healthy",
		"service":      "rinkside",
		"calc_version": h.version,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if len(deps) > 0 {
		body["dependencies"] = deps
	}
	respondJSON(w, status, body)
}

// GetOnIce returns the on-ice summary of a player
func (h *Handler) GetOnIce(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		return h.analytics.PlayerOnIceSummary(ctx, pathID(r, "gameID"), pathID(r, "playerID"), aggregateOptions(r.URL.Query()))
	})
}

// GetIndividual returns the individual summary of a player
func (h *Handler) GetIndividual(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		return h.analytics.PlayerIndividualSummary(ctx, pathID(r, "gameID"), pathID(r, "playerID"), aggregateOptions(r.URL.Query()))
	})
}

// GetCorsi returns on-ice Corsi, or Fenwick with ?fenwick=true
func (h *Handler) GetCorsi(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		return h.analytics.PlayerCorsi(ctx, pathID(r, "gameID"), pathID(r, "playerID"), situation(q), boolParam(q, "fenwick", false))
	})
}

// GetPenalties returns the penalty differential of a player
func (h *Handler) GetPenalties(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		return h.analytics.PlayerPenaltyDiff(ctx, pathID(r, "gameID"), pathID(r, "playerID"), situation(r.URL.Query()))
	})
}

// GetGAR returns the GAR-lite composite of a player
func (h *Handler) GetGAR(w http.ResponseWriter, r *http.Request) {
	opts := garOptions(r.URL.Query(), h.analytics.DefaultGAROptions())
	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		return h.analytics.PlayerGARLite(ctx, pathID(r, "gameID"), pathID(r, "playerID"), opts)
	})
}

// GetTOI returns the sanitized TOI of a player
func (h *Handler) GetTOI(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		return h.analytics.PlayerTOI(ctx, pathID(r, "gameID"), pathID(r, "playerID"))
	})
}

// GetRow returns the full row the rebuild would store for one slice
func (h *Handler) GetRow(w http.ResponseWriter, r *http.Request) {
	gameID, playerID := pathID(r, "gameID"), pathID(r, "playerID")
	slice := sliceParam(r.URL.Query())

	meta, ok, err := h.catalog.GameMeta(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read game", err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "Game not found", nil)
		return
	}

	skaters, err := h.catalog.Skaters(r.Context(), gameID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read lineup", err)
		return
	}
	var sk *advstats.Skater
	for i := range skaters {
		if skaters[i].PlayerID == playerID {
			sk = &skaters[i]
			break
		}
	}
	if sk == nil {
		respondError(w, http.StatusNotFound, "Skater not in lineup", nil)
		return
	}

	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		return h.analytics.BuildPlayerRow(ctx, meta, *sk, slice, h.version)
	})
}

// GetSkatersCorsi lists on-ice Corsi for every skater of a game
func (h *Handler) GetSkatersCorsi(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := service.BatchCorsiOptions{
		Situation:     situation(q),
		Fenwick:       boolParam(q, "fenwick", false),
		MinTOISeconds: intParam(q, "min_toi", 0),
	}
	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		return h.analytics.AllSkatersCorsi(ctx, pathID(r, "gameID"), opts)
	})
}

// GetSkatersXG lists on-ice xG for every skater of a game
func (h *Handler) GetSkatersXG(w http.ResponseWriter, r *http.Request) {
	opts := batchXGOptions(r)
	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		return h.analytics.AllSkatersXG(ctx, pathID(r, "gameID"), opts)
	})
}

// GetSkatersQuadrant returns xGF/60 against xGA/60 per skater
func (h *Handler) GetSkatersQuadrant(w http.ResponseWriter, r *http.Request) {
	opts := batchXGOptions(r)
	h.serveCached(w, r, func(ctx context.Context) (interface{}, error) {
		return h.analytics.AllSkatersQuadrant(ctx, pathID(r, "gameID"), opts)
	})
}

func batchXGOptions(r *http.Request) service.BatchXGOptions {
	q := r.URL.Query()
	opts := service.DefaultBatchXGOptions()
	opts.Situation = situation(q)
	opts.IncludeBlocked = boolParam(q, "include_blocked_xg", false)
	opts.MinXGTotal = floatParam(q, "min_xg", opts.MinXGTotal)
	return opts
}

// serveCached answers from the response cache when possible. Cache misses
// and cache errors fall through to compute.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, compute func(ctx context.Context) (interface{}, error)) {
	ctx := r.Context()
	var key string
	if h.cache != nil {
		key = cache.ResponseKey(r.URL.Path, r.URL.Query())
		body, hit, err := h.cache.Get(ctx, key)
		if err != nil {
			h.logger.Warn("response cache read failed", "key", key, "error", err)
		}
		if hit {
			w.Header().Set("X-Cache", "HIT")
			respondRaw(w, http.StatusOK, body)
			return
		}
	}

	data, err := compute(ctx)
	if err != nil {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to compute statistics", err)
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to encode response", err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, key, body, h.cacheTTL); err != nil {
			h.logger.Warn("response cache write failed", "key", key, "error", err)
		}
		w.Header().Set("X-Cache", "MISS")
	}
	respondRaw(w, http.StatusOK, body)
}

func respondRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
	w.Write([]byte("\n"))
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
