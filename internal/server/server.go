package server

import (
	"context"
	"net/http"
	"time"
)

// Server wraps the HTTP server of the application with controlled startup and shutdown.
type Server struct {
	server *http.Server
}

// ListenAndServe starts listening and blocks until the server stops.
// After Shutdown it returns http.ErrServerClosed.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server, letting active requests complete within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler, request logging included.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// NewServer creates a server listening on address and serving router.
// writeTimeout bounds a whole response, model inference included.
func NewServer(address string, writeTimeout time.Duration, router *ApiRouter) *Server {
	s := Server{&http.Server{
		Addr:           address,
		Handler:        logRequests(router.Mux()),
		ReadTimeout:    time.Second * 5,
		WriteTimeout:   writeTimeout,
		MaxHeaderBytes: 1024 * 10,
	}}

	return &s
}
