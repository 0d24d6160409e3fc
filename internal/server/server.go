// Package server exposes the assistant pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"sylo-assistant/internal/common/auth"
	"sylo-assistant/internal/common/config"
	"sylo-assistant/internal/common/errors"
	"sylo-assistant/internal/common/logger"
)

type Server struct {
	config     config.ServerConfig
	router     chi.Router
	httpServer *http.Server
	logger     logger.Logger
}

// New wires middleware and routes around the assistant handler.
func New(cfg config.ServerConfig, handler *AssistantHandler, authenticator auth.Authenticator, log logger.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "server"}),
	}

	errorHandler := errors.NewErrorHandler(s.logger)

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin(cfg)},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(authenticator, errorHandler))
		r.Post("/api/assistant/message", handler.HandleMessage)
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
	return s
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("http server starting", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down", nil)
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func allowedOrigin(cfg config.ServerConfig) string {
	if cfg.AllowedOrigin != "" {
		return cfg.AllowedOrigin
	}
	return "*"
}
