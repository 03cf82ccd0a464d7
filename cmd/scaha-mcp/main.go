// Command scaha-mcp serves SCAHA hockey league data to MCP clients.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fortuna/scaha-mcp/internal/events"
	"github.com/fortuna/scaha-mcp/internal/logging"
	"github.com/fortuna/scaha-mcp/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig()
	if err := newRootCmd(&cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "scaha-mcp",
		Short:         "scaha-mcp answers questions about SCAHA standings, stats and schedules over MCP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "upstream site root")
	flags.StringVar(&cfg.ScoreboardTransport, "scoreboard-transport", cfg.ScoreboardTransport, "http or browser for scoreboard queries")
	flags.StringVar(&cfg.StatsTransport, "stats-transport", cfg.StatsTransport, "http or browser for stats central queries")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")

	root.AddCommand(newServeCmd(cfg))
	root.AddCommand(newQueryCmd(cfg))
	return root
}

// newService builds the query service for cfg
func newService(cfg *Config, observer events.Observer) (*service.Service, error) {
	scoreboard, err := newTransport(cfg.ScoreboardTransport, *cfg)
	if err != nil {
		return nil, err
	}
	stats, err := newTransport(cfg.StatsTransport, *cfg)
	if err != nil {
		return nil, err
	}

	return service.New(service.Config{
		BaseURL:    cfg.BaseURL,
		Scoreboard: scoreboard,
		Stats:      stats,
		Observer:   observer,
	}), nil
}
