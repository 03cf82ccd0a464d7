package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/fortuna/scaha-mcp/internal/api/websocket"
)

// Options wires the HTTP surface. Nil fields disable their routes.
type Options struct {
	Port     string
	MCP      http.Handler
	Events   *websocket.Server
	QueryLog RecentQueries
	Database HealthChecker
}

// Server represents the HTTP server hosting the MCP endpoint
type Server struct {
	port   string
	server *http.Server
}

// NewServer creates a new HTTP server
func NewServer(opts Options) *Server {
	return &Server{
		port: opts.Port,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", opts.Port),
			Handler:           NewRouter(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter builds the routes and middleware chain
func NewRouter(opts Options) http.Handler {
	handler := NewHandler(opts.QueryLog, opts.Database)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	if opts.MCP != nil {
		router.Handle("/mcp", opts.MCP)
	}
	if opts.Events != nil {
		router.HandleFunc("/ws/queries", opts.Events.HandleQueries).Methods(http.MethodGet)
	}
	if opts.QueryLog != nil {
		api := router.PathPrefix("/api/v1").Subrouter()
		api.HandleFunc("/queries/recent", handler.RecentQueries).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	})
	return c.Handler(router)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
