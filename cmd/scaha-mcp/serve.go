package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fortuna/scaha-mcp/internal/api/rest"
	"github.com/fortuna/scaha-mcp/internal/api/tools"
	"github.com/fortuna/scaha-mcp/internal/api/websocket"
	"github.com/fortuna/scaha-mcp/internal/events"
	"github.com/fortuna/scaha-mcp/internal/publisher"
	"github.com/fortuna/scaha-mcp/internal/store"
)

func newServeCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [--transport stdio|http] [--port <port>]",
		Short: "Runs the MCP server over stdio or streamable HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.MCPTransport, "transport", cfg.MCPTransport, "stdio or http")
	cmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	return cmd
}

// sinks holds the optional event destinations
type sinks struct {
	observers events.Multi
	queryLog  *store.QueryLog
	database  *store.Database
	closers   []func() error
}

func (s *sinks) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			log.Warn().Err(err).Msg("failed to close event sink")
		}
	}
}

// openSinks connects the Redis stream and query log when configured. Either
// failing only disables that sink.
func openSinks(ctx context.Context, cfg *Config) *sinks {
	s := &sinks{}

	if cfg.RedisURL != "" {
		pub, err := publisher.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, query events will not be streamed")
		} else {
			s.observers = append(s.observers, pub)
			s.closers = append(s.closers, pub.Close)
			log.Info().Str("stream", publisher.QueryStream).Msg("✓ streaming query events to redis")
		}
	}

	if cfg.QueryLogDSN != "" {
		db, err := store.NewDatabase(cfg.QueryLogDSN)
		if err == nil {
			err = db.RunMigrations(ctx)
			if err != nil {
				db.Close()
			}
		}
		if err != nil {
			log.Warn().Err(err).Msg("query log unavailable, query runs will not be recorded")
		} else {
			s.database = db
			s.queryLog = store.NewQueryLog(db)
			s.observers = append(s.observers, s.queryLog)
			s.closers = append(s.closers, db.Close)
			log.Info().Msg("✓ recording query runs in postgres")
		}
	}

	return s
}

func serve(ctx context.Context, cfg *Config) error {
	sinks := openSinks(ctx, cfg)
	defer sinks.Close()

	switch cfg.MCPTransport {
	case "stdio":
		svc, err := newService(cfg, sinks.observers)
		if err != nil {
			return err
		}
		log.Info().
			Str("scoreboard", cfg.ScoreboardTransport).
			Str("stats", cfg.StatsTransport).
			Msg("scaha-mcp serving over stdio")
		return tools.NewServer(svc).Run(ctx, &mcp.StdioTransport{})

	case "http":
		return serveHTTP(ctx, cfg, sinks)

	default:
		return fmt.Errorf("unknown MCP transport %q: want stdio or http", cfg.MCPTransport)
	}
}

func serveHTTP(ctx context.Context, cfg *Config, sinks *sinks) error {
	feed := websocket.NewServer(websocket.NewHub())
	feed.Start(ctx)

	observers := append(events.Multi{feed.Hub()}, sinks.observers...)
	svc, err := newService(cfg, observers)
	if err != nil {
		return err
	}

	mcpServer := tools.NewServer(svc)
	opts := rest.Options{
		Port: cfg.Port,
		MCP: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return mcpServer
		}, nil),
		Events: feed,
	}
	if sinks.queryLog != nil {
		opts.QueryLog = sinks.queryLog
		opts.Database = sinks.database
	}

	server := rest.NewServer(opts)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().Str("port", cfg.Port).Msg("✓ scaha-mcp listening")
	log.Info().Msgf("  MCP: http://0.0.0.0:%s/mcp", cfg.Port)
	log.Info().Msgf("  Query feed: ws://0.0.0.0:%s/ws/queries", cfg.Port)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down scaha-mcp gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown error")
	}
	return nil
}
