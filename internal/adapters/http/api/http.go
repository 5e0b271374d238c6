// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/levelup/internal/adapters/repository"
	"github.com/okian/levelup/pkg/logger"
)

const defaultLeaderboardLimit = 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SubmitDependencies
	LogDependencies
	SubjectDependencies
	LeaderboardDependencies
	RankDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	eventsHandler      *EventsHandler
	subjectsHandler    *SubjectsHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		eventsHandler:      NewEventsHandler(deps),
		subjectsHandler:    NewSubjectsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /subjects/{id}/points", MetricsMiddleware(s.eventsHandler.HandlePostPoints, "points"))
	mux.HandleFunc("POST /subjects/{id}/damage", MetricsMiddleware(s.eventsHandler.HandlePostDamage, "damage"))
	mux.HandleFunc("GET /subjects/{id}/events", MetricsMiddleware(s.eventsHandler.HandleGetEvents, "events"))
	mux.HandleFunc("GET /subjects/{id}/damage", MetricsMiddleware(s.eventsHandler.HandleGetDamage, "damage_history"))
	mux.HandleFunc("DELETE /subjects/{id}/events/last", MetricsMiddleware(s.eventsHandler.HandleUndo, "undo"))
	mux.HandleFunc("DELETE /subjects/{id}/events", MetricsMiddleware(s.eventsHandler.HandleReset, "reset"))

	mux.HandleFunc("GET /subjects/{id}/progression", MetricsMiddleware(s.subjectsHandler.HandleProgression, "progression"))
	mux.HandleFunc("GET /subjects/{id}/pool", MetricsMiddleware(s.subjectsHandler.HandlePool, "pool"))
	mux.HandleFunc("GET /subjects/{id}/notifications", MetricsMiddleware(s.subjectsHandler.HandleNotifications, "notifications"))
	mux.HandleFunc("GET /subjects/{id}/calendar", MetricsMiddleware(s.subjectsHandler.HandleCalendar, "calendar"))
	mux.HandleFunc("GET /subjects/{id}/weekly", MetricsMiddleware(s.subjectsHandler.HandleWeekly, "weekly"))
	mux.HandleFunc("GET /subjects/{id}/export", MetricsMiddleware(s.subjectsHandler.HandleExport, "export"))

	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /rank/{id}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the {code, message} body for err. Server errors are
// logged; their details are not returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, name := status(err)
	msg := err.Error()
	if code >= http.StatusInternalServerError && code != http.StatusServiceUnavailable {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("method", r.Method),
			logger.Error(err),
		)
		msg = http.StatusText(code)
	}
	writeJSON(w, code, errorResponse{Code: name, Message: msg})
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// intQuery parses an optional integer query parameter; absent yields def.
func intQuery(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("invalid " + key + ": must be an integer")
	}
	return n, nil
}
