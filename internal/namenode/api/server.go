// Package api exposes the namenode admin surface: login, node key
// issuance, the monitoring snapshot, and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/internal/namenode/ledger"
	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
	"github.com/Lovepreet67/whispering-woods/pkg/metrics"
	"github.com/Lovepreet67/whispering-woods/pkg/ticket"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Config holds the admin API settings.
type Config struct {
	Port       int
	Username   string
	Password   string
	JWTSignKey string
}

// Server is the admin HTTP server.
type Server struct {
	cfg    Config
	mint   *ticket.Mint
	ledger ledger.Recorder
	snaps  *state.SnapshotStore

	httpSrv *http.Server
}

// NewServer wires the admin API.
func NewServer(cfg Config, mint *ticket.Mint, rec ledger.Recorder, snaps *state.SnapshotStore) *Server {
	s := &Server{cfg: cfg, mint: mint, ledger: rec, snaps: snaps}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/auth/login", s.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/certificates/issue", s.handleIssueKey)
		r.Get("/monitoring/snapshot", s.handleSnapshot)
	})
	if h := metrics.Handler(); h != nil {
		r.Handle("/metrics", h)
	}

	s.httpSrv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	logger.Info("admin api listening", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding api response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
