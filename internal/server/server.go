package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"NewsRefinery/internal/config"
)

// Server owns the HTTP listener for the admin commands and public routes.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// New builds the server with its routes and middleware.
func New(cfg config.ServerConfig, handler *Handler, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/admin/crawl", handler.Crawl)
	mux.HandleFunc("POST /api/admin/process", handler.Process)
	mux.HandleFunc("GET /api/admin/settings", handler.GetSettings)
	mux.HandleFunc("POST /api/admin/settings", handler.SaveSettings)
	mux.HandleFunc("GET /health", handler.Health)

	// Only the public article route is rate limited; admin commands are
	// long-running by nature and gated elsewhere.
	public := newRateLimiter(cfg.PublicRPS, cfg.PublicBurst)
	mux.Handle("GET /api/articles/{id}", public.Middleware(http.HandlerFunc(handler.GetArticle)))

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
		shutdownTimeout: cfg.ShutdownTimeout.Std(),
		logger:          logger,
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *Server) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
