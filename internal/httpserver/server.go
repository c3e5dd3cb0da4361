// internal/httpserver/server.go
//
// HTTP server wiring for the chess memory game backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health".
//   - Game API mounted under /api: positions, start/submit, sessions, stats.
//
// Notes:
//   - CORS is permissive by default (CLIENT_ORIGIN unset means "*"); the API
//     carries no cookies or credentials.
//   - Position selection goes through an injectable random source so tests
//     can pin which position a game starts with.

package httpserver

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/dkarlsson/memchess/internal/store"
)

// Server bundles the router, the persistence layer and the random source
// used to pick positions.
type Server struct {
	r     *chi.Mux
	store store.Store
	pick  func(n int) int // returns a value in [0, n)
}

// Option customizes a Server at construction time.
type Option func(*Server)

// WithRandInt replaces the random source used to choose among candidate
// positions. fn must return a value in [0, n); tests pass a fixed picker
// to make game starts deterministic.
func WithRandInt(fn func(n int) int) Option {
	return func(s *Server) { s.pick = fn }
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, opts ...Option) *Server {
	s := &Server{r: chi.NewRouter(), store: st, pick: rand.Intn}
	for _, opt := range opts {
		opt(s)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(requestLogger)                   // one structured line per request
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(corsFromEnv)                     // browser clients on other origins

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"memchess","endpoints":["/health","/api/positions","/api/positions/count/{n}","POST /api/game/start","POST /api/game/submit","/api/sessions","/api/stats"]}`))
	})
	s.r.Get("/health", s.handleHealth)

	// Game API
	s.mountAPIRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// handleHealth reports liveness. The store is pinged on every call; an
// unreachable store answers 503 instead of 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		log.Error().Err(err).Msg("health: store unreachable")
		http.Error(w, `{"status":"degraded","message":"Store unreachable"}`, http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy","message":"Application is running"}`))
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromEnv enables CORS for the configured CLIENT_ORIGIN (default "*").
// No Allow-Credentials header: the API is cookie-less.
func corsFromEnv(next http.Handler) http.Handler {
	origin := getEnv("CLIENT_ORIGIN", "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one access-log line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// ------------------------------- small util --------------------------------

// respondJSON writes v as the response body with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes the standard {"error": message} body.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
