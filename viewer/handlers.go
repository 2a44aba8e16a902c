package main

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brensch/handlords/db"
)

// Server holds shared state for HTTP handlers.
type Server struct {
	roots   []string
	dbCache *DBCache
	results *db.DB
}

// NewServer creates a Server over the given parquet data roots. results may
// be nil when no SQLite index is configured.
func NewServer(roots []string, results *db.DB) *Server {
	return &Server{
		roots:   roots,
		dbCache: NewDBCache(roots, 30*time.Second),
		results: results,
	}
}

// RegisterRoutes sets up all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/games", s.handleGames)
	mux.HandleFunc("/api/games/", s.handleGameTicks)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/results", s.handleResults)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Force a refresh so freshly flushed batches show up.
	if err := s.dbCache.Refresh(); err != nil {
		http.Error(w, fmt.Sprintf("failed to refresh db: %v", err), http.StatusInternalServerError)
		return
	}
	gamesIndex, err := s.dbCache.GetGamesIndex(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	limit := parseIntQuery(r, "limit", 200)
	offset := parseIntQuery(r, "offset", 0)
	games, total := paginateGames(gamesIndex, limit, offset)
	writeJSON(w, GamesResponse{Total: total, Games: games})
}

func (s *Server) handleGameTicks(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	duck, err := s.dbCache.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// /api/games/{id}/ticks
	rest := strings.TrimPrefix(r.URL.Path, "/api/games/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "ticks" {
		http.NotFound(w, r)
		return
	}
	gameID, err := url.PathUnescape(parts[0])
	if err != nil {
		http.Error(w, "bad game id", http.StatusBadRequest)
		return
	}

	ticks, err := queryTicks(r.Context(), duck, gameID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, ticks)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fromNs := parseInt64Query(r, "from_ns", 0)
	toNs := parseInt64Query(r, "to_ns", 0)
	bucketNs := parseInt64Query(r, "bucket_ns", 5*60*1_000_000_000)
	if bucketNs <= 0 {
		bucketNs = 5 * 60 * 1_000_000_000
	}
	if fromNs <= 0 || toNs <= 0 || toNs <= fromNs {
		// Default: last 24h.
		nowNs := time.Now().UnixNano()
		toNs = nowNs
		fromNs = nowNs - int64(24*time.Hour)
	}

	duck, err := s.dbCache.Get()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	points, err := queryStats(r.Context(), duck, fromNs, toNs, bucketNs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, StatsResponse{FromNs: fromNs, ToNs: toNs, BucketNs: bucketNs, Points: points})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.results == nil {
		http.Error(w, "no results index configured", http.StatusNotFound)
		return
	}

	limit := parseIntQuery(r, "limit", 100)
	results, err := s.results.Results(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	counts, err := s.results.WinCounts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := ResultsResponse{WinCounts: counts}
	for _, res := range results {
		resp.Results = append(resp.Results, ResultRow{
			ID:         res.ID,
			Winner:     res.Winner,
			Ticks:      res.Ticks,
			Seed:       res.Seed,
			RngKind:    res.RngKind,
			PairsRate:  res.PairsRate,
			FinishedAt: res.FinishedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, resp)
}
