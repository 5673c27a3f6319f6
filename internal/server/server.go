// Package server exposes the planner over HTTP: plan creation, follow-up
// chat, and a health probe.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/tripsmith/server/internal/planner/graph"
	logx "github.com/tripsmith/server/pkg/logger"
)

type Server struct {
	router   *mux.Router
	runner   graph.Runner
	validate *validator.Validate
	http     *http.Server
}

func New(addr string, runner graph.Runner) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		runner:   runner,
		validate: validator.New(),
	}
	s.routes()

	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // plan creation runs the full pipeline
		IdleTimeout:  2 * time.Minute,
	}
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/plan/create", s.handleCreatePlan).Methods(http.MethodPost)
	s.router.HandleFunc("/plan/chat", s.handleChat).Methods(http.MethodPost)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	logx.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
