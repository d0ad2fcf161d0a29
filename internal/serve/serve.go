// CLAUDE:SUMMARY Serves the local application directory on an ephemeral loopback port with chi.
// Package serve exposes the local build of the application over HTTP on
// 127.0.0.1 so local runs behave like the deployed site.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler serves dir with no-cache headers and request logging.
func Handler(dir string, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(requestLogger(logger))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/*", http.FileServer(http.Dir(dir)))
	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("serve: request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

// Server is a running loopback server.
type Server struct {
	// URL is the base URL, without trailing slash.
	URL    string
	srv    *http.Server
	done   chan struct{}
	logger *slog.Logger
}

// Start listens on an ephemeral loopback port and serves dir until Close.
func Start(dir string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if fi, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("serve: %w", err)
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("serve: %s is not a directory", dir)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("serve: listen: %w", err)
	}
	s := &Server{
		URL: "http://" + ln.Addr().String(),
		srv: &http.Server{
			Handler:           Handler(dir, logger),
			ReadHeaderTimeout: 10 * time.Second,
		},
		done:   make(chan struct{}),
		logger: logger,
	}
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve: stopped", "error", err)
		}
	}()
	logger.Info("serve: listening", "url", s.URL, "dir", dir)
	return s, nil
}

// Close shuts the server down, waiting for in-flight requests until ctx ends.
func (s *Server) Close(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	<-s.done
	if err != nil {
		return fmt.Errorf("serve: shutdown: %w", err)
	}
	s.logger.Info("serve: closed", "url", s.URL)
	return nil
}
