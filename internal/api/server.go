// Package api serves a Neo Haven session over HTTP.
// GET endpoints are read-only projections of the current snapshot.
// POST /api/v1/turn is the single mutating entry point; when an admin key is
// configured it requires that bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/neo-haven/internal/citizens"
	"github.com/talgya/neo-haven/internal/engine"
	"github.com/talgya/neo-haven/internal/social"
	"github.com/talgya/neo-haven/internal/world"
)

const (
	maxActionBytes = 4 << 10
	reliefSamples  = 9
)

// Server serves one session over HTTP.
type Server struct {
	Orch     *engine.Orchestrator
	AdminKey string // Bearer token for POST /turn. Empty = open.

	turnLimiter *RateLimiter
	hub         *hub
	upgrader    websocket.Upgrader
}

// NewServer creates a server for o. turnsPerMinute caps turn submissions
// per client IP; zero disables the cap.
func NewServer(o *engine.Orchestrator, adminKey string, turnsPerMinute int) *Server {
	return &Server{
		Orch:        o,
		AdminKey:    adminKey,
		turnLimiter: NewRateLimiter(turnsPerMinute, time.Minute),
		hub:         newHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/state", s.handleState)
	mux.HandleFunc("GET /api/v1/districts", s.handleDistricts)
	mux.HandleFunc("GET /api/v1/district/{id}", s.handleDistrict)
	mux.HandleFunc("GET /api/v1/layout/{id}", s.handleLayout)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)
	mux.HandleFunc("POST /api/v1/turn", RateLimitMiddleware(s.turnLimiter, s.adminOnly(s.handleTurn)))

	return corsMiddleware(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// CORS_ORIGINS adds a comma-separated list to the localhost dev servers.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires the bearer token when an admin key is configured.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey != "" && !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// stateView is the public shape of a snapshot.
type stateView struct {
	Metrics  engine.Metrics        `json:"metrics"`
	Status   engine.Status         `json:"status"`
	Busy     bool                  `json:"busy"`
	History  []engine.HistoryEntry `json:"history"`
	Citizens []citizenView         `json:"citizens"`
}

type citizenView struct {
	citizens.Citizen
	Mood citizens.Mood `json:"mood"`
}

func newStateView(st engine.State, busy bool) stateView {
	v := stateView{
		Metrics:  st.Metrics,
		Status:   st.Status,
		Busy:     busy,
		History:  st.History,
		Citizens: make([]citizenView, len(st.Citizens)),
	}
	for i, c := range st.Citizens {
		v.Citizens[i] = citizenView{Citizen: c, Mood: citizens.MoodOf(c.Happiness)}
	}
	return v
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	resp := struct {
		stateView
		Deltas *engine.MetricDeltas `json:"deltas,omitempty"`
		Last   *engine.TurnResult   `json:"last_result,omitempty"`
	}{stateView: newStateView(s.Orch.Snapshot(), s.Orch.Busy())}
	if last, ok := s.Orch.Last(); ok {
		resp.Deltas = &last.Deltas
		resp.Last = &last.Result
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseFilter reads ?class= and ?politics=; unknown values are an error.
func parseFilter(r *http.Request) (social.Filter, error) {
	var f social.Filter
	if v := r.URL.Query().Get("class"); v != "" {
		c, ok := citizens.ParseClass(v)
		if !ok {
			return f, errors.New("unknown class " + v)
		}
		f.Class = c
	}
	if v := r.URL.Query().Get("politics"); v != "" {
		p, ok := citizens.ParsePolitics(v)
		if !ok {
			return f, errors.New("unknown politics " + v)
		}
		f.Politics = p
	}
	return f, nil
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, social.SummarizeAll(s.Orch.Snapshot().Citizens, f))
}

func (s *Server) handleDistrict(w http.ResponseWriter, r *http.Request) {
	n, ok := citizens.ParseNeighborhood(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown district")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, social.Summarize(s.Orch.Snapshot().Citizens, n, f))
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	n, ok := citizens.ParseNeighborhood(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown district")
		return
	}
	d, ok := world.DistrictFor(n)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown district")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		world.Layout
		Relief [][]float64 `json:"relief"`
	}{
		Layout: world.LayoutFor(d, s.Orch.Snapshot().Citizens),
		Relief: world.Heightmap(d, reliefSamples),
	})
}

type turnRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// A dropped client must not abandon a turn the oracle is already judging.
	out, err := s.Orch.SubmitTurn(context.WithoutCancel(r.Context()), req.Action)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Turn      int                  `json:"turn"`
		Narrative string               `json:"narrative"`
		Status    engine.Status        `json:"status"`
		Metrics   engine.Metrics       `json:"metrics"`
		Deltas    engine.MetricDeltas  `json:"deltas"`
		Samples   []engine.AgentSample `json:"agent_samples"`
	}{
		Turn:      out.Previous.Turn,
		Narrative: out.Result.Narrative,
		Status:    out.State.Status,
		Metrics:   out.State.Metrics,
		Deltas:    out.Deltas,
		Samples:   out.Result.AgentSamples,
	})
}

// statusFor maps turn rejections onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrEmptyAction):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrTurnInFlight), errors.Is(err, engine.ErrGameOver):
		return http.StatusConflict
	case errors.Is(err, engine.ErrOracleUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		slog.Debug("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
