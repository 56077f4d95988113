// Package httpapi exposes the progress engine over REST plus a WebSocket
// event stream, intended for the tourism site frontend.
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	wsadapter "tripquest/adapters/websocket"
	"tripquest/analytics"
	"tripquest/engine"
	"tripquest/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
	// MetricsRegistry, if non-nil, mounts Prometheus exposition at MetricsPath.
	MetricsRegistry *prometheus.Registry
	// MetricsPath defaults to "/metrics".
	MetricsPath string
	// Satellites, if non-nil, exposes the per-page auxiliary ID sets
	// under /satellite/{key}.
	Satellites engine.SatelliteStore
}

const maxSnapshotBytes = 1 << 20

// NewRouter builds the chi router for the progress API.
// Routes (all under PathPrefix except /healthz and metrics):
//   - GET  /progress           current raw record
//   - GET  /summary            display-ready projection
//   - POST /visits/{place}     record a destination visit
//   - POST /points             award points, JSON {"amount": n, "reason": s}
//   - POST /badges/{badge}     force-unlock a badge
//   - POST /track/{counter}    bump wildlife|image|culture|map
//   - GET  /snapshot           export progress JSON
//   - PUT  /snapshot           import progress JSON
//   - POST /reset              wipe progress
//   - GET  /analytics/rollup?period=daily|weekly
//   - GET  /analytics/reasons?n=10
//   - GET  /satellite/{key}    read a page-owned ID set
//   - PUT  /satellite/{key}    replace a page-owned ID set
//   - WS   /ws                 live event stream
func NewRouter(eng *engine.Engine, hub *realtime.Hub, opts Options) http.Handler {
	r := chi.NewRouter()

	if opts.AllowCORSOrigin != "" {
		r.Use(corsMiddleware(opts.AllowCORSOrigin))
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		r.Use(rateLimitMiddleware(opts.RateLimitRPM, opts.RateLimitBurst))
	}

	r.Get("/healthz", handleHealth(eng))
	if opts.MetricsRegistry != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, promhttp.HandlerFor(opts.MetricsRegistry, promhttp.HandlerOpts{}))
	}

	prefix := opts.PathPrefix
	if prefix == "" {
		prefix = "/"
	}
	r.Route(prefix, func(r chi.Router) {
		if len(opts.APIKeys) > 0 {
			r.Use(apiKeyMiddleware(opts.APIKeys))
		}

		r.Get("/progress", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, eng.Record())
		})
		r.Get("/summary", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, eng.Summary())
		})

		r.Post("/visits/{place}", func(w http.ResponseWriter, req *http.Request) {
			place := chi.URLParam(req, "place")
			if place == "" {
				writeError(w, http.StatusBadRequest, "invalid_place", "place cannot be empty")
				return
			}
			eng.RecordPlaceVisit(req.Context(), place)
			writeJSON(w, http.StatusOK, eng.Record())
		})

		r.Post("/points", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Amount int    `json:"amount"`
				Reason string `json:"reason"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_body", "expected JSON with amount and reason")
				return
			}
			if body.Amount <= 0 {
				writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be positive")
				return
			}
			eng.AwardPoints(req.Context(), body.Amount, body.Reason)
			writeJSON(w, http.StatusOK, eng.Record())
		})

		r.Post("/badges/{badge}", func(w http.ResponseWriter, req *http.Request) {
			eng.UnlockBadge(req.Context(), chi.URLParam(req, "badge"))
			writeJSON(w, http.StatusOK, eng.Record())
		})

		r.Post("/track/{counter}", func(w http.ResponseWriter, req *http.Request) {
			switch chi.URLParam(req, "counter") {
			case "wildlife":
				eng.RecordWildlifeSighting(req.Context())
			case "image":
				eng.RecordImageView(req.Context())
			case "culture":
				eng.MarkCultureRead(req.Context())
			case "map":
				eng.MarkMapUsed(req.Context())
			default:
				writeError(w, http.StatusNotFound, "unknown_counter", "counter must be wildlife, image, culture or map")
				return
			}
			writeJSON(w, http.StatusOK, eng.Record())
		})

		r.Get("/snapshot", func(w http.ResponseWriter, req *http.Request) {
			data, err := eng.ExportSnapshot()
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal", err.Error())
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Content-Disposition", `attachment; filename="tripquest-progress.json"`)
			_, _ = w.Write(data)
		})

		r.Put("/snapshot", func(w http.ResponseWriter, req *http.Request) {
			data, err := io.ReadAll(io.LimitReader(req.Body, maxSnapshotBytes))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_body", "could not read request body")
				return
			}
			if err := eng.ImportSnapshot(req.Context(), data); err != nil {
				writeError(w, http.StatusUnprocessableEntity, "invalid_snapshot", err.Error())
				return
			}
			writeJSON(w, http.StatusOK, eng.Record())
		})

		r.Post("/reset", func(w http.ResponseWriter, req *http.Request) {
			eng.Reset(req.Context())
			writeJSON(w, http.StatusOK, eng.Record())
		})

		r.Get("/analytics/rollup", func(w http.ResponseWriter, req *http.Request) {
			period := analytics.Period(req.URL.Query().Get("period"))
			if period == "" {
				period = analytics.PeriodDaily
			}
			if period != analytics.PeriodDaily && period != analytics.PeriodWeekly {
				writeError(w, http.StatusBadRequest, "invalid_period", "period must be daily or weekly")
				return
			}
			writeJSON(w, http.StatusOK, analytics.Rollup(eng.Record().PointsHistory, period))
		})

		r.Get("/analytics/reasons", func(w http.ResponseWriter, req *http.Request) {
			n := 10
			if raw := req.URL.Query().Get("n"); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil || parsed <= 0 {
					writeError(w, http.StatusBadRequest, "invalid_n", "n must be a positive integer")
					return
				}
				n = parsed
			}
			ranking := analytics.NewRanking()
			ranking.Load(eng.Record().PointsHistory)
			top := ranking.TopN(n)
			if top == nil {
				top = []analytics.RankEntry{}
			}
			writeJSON(w, http.StatusOK, top)
		})

		if opts.Satellites != nil {
			r.Get("/satellite/{key}", func(w http.ResponseWriter, req *http.Request) {
				key := chi.URLParam(req, "key")
				members, err := opts.Satellites.LoadSet(req.Context(), key)
				if err != nil {
					writeError(w, http.StatusInternalServerError, "internal", err.Error())
					return
				}
				if members == nil {
					members = []string{}
				}
				writeJSON(w, http.StatusOK, satelliteSet{Key: key, Members: members})
			})

			r.Put("/satellite/{key}", func(w http.ResponseWriter, req *http.Request) {
				key := chi.URLParam(req, "key")
				var body satelliteSet
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Members == nil {
					writeError(w, http.StatusBadRequest, "invalid_body", "expected JSON with a members array")
					return
				}
				if err := opts.Satellites.SaveSet(req.Context(), key, body.Members); err != nil {
					writeError(w, http.StatusInternalServerError, "internal", err.Error())
					return
				}
				writeJSON(w, http.StatusOK, satelliteSet{Key: key, Members: body.Members})
			})
		}

		if hub != nil {
			r.Method(http.MethodGet, "/ws", wsadapter.Handler(hub))
		}
	})

	return r
}

func handleHealth(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Record() only touches in-memory state; reaching it proves the
		// engine initialized and is serving.
		_ = eng.Record()
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type satelliteSet struct {
	Key     string   `json:"key"`
	Members []string `json:"members"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg})
}
