// Package api wires the service's HTTP routes.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Server wires HTTP routes for the level card service.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	levelsHandler *LevelsHandler
	rankHandler   *RankHandler
}

// NewServer creates a new API server with all handlers. ranks may be nil
// when no database is configured; /rank then answers 503.
func NewServer(statsProvider StatsProvider, ranks RankLookup) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		levelsHandler: NewLevelsHandler(),
		rankHandler:   NewRankHandler(ranks),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/levels/", MetricsMiddleware(s.levelsHandler.HandleGetLevel, "levels"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
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

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
