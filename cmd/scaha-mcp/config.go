package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/fortuna/scaha-mcp/internal/ingest/browser"
	"github.com/fortuna/scaha-mcp/internal/ingest/jsf"
	"github.com/fortuna/scaha-mcp/internal/navigator"
	"github.com/fortuna/scaha-mcp/internal/service"
)

// Config holds the settings read from the environment and overridden by flags
type Config struct {
	BaseURL             string
	ScoreboardTransport string
	StatsTransport      string
	ChromePath          string
	Headless            bool
	MCPTransport        string
	Port                string
	RedisURL            string
	QueryLogDSN         string
	LogLevel            string
	LogFormat           string
}

// loadConfig reads the environment, after an optional .env file
func loadConfig() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	return Config{
		BaseURL:             getEnv("SCAHA_BASE_URL", service.DefaultBaseURL),
		ScoreboardTransport: getEnv("SCAHA_SCOREBOARD_TRANSPORT", "browser"),
		StatsTransport:      getEnv("SCAHA_STATS_TRANSPORT", "http"),
		ChromePath:          getEnv("CHROME_EXECUTABLE_PATH", ""),
		Headless:            getEnv("BROWSER_HEADLESS", "true") == "true",
		MCPTransport:        getEnv("MCP_TRANSPORT", "stdio"),
		Port:                getEnv("PORT", "3000"),
		RedisURL:            getEnv("REDIS_URL", ""),
		QueryLogDSN:         getEnv("QUERY_LOG_DSN", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           getEnv("LOG_FORMAT", "json"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// newTransport builds the named navigation strategy
func newTransport(name string, cfg Config) (navigator.Transport, error) {
	switch strings.ToLower(name) {
	case "http":
		return navigator.NewHTTPTransport(jsf.NewClient()), nil
	case "browser":
		return navigator.NewBrowserTransport(browser.NewClient(browser.Options{
			ExecPath: cfg.ChromePath,
			Headless: cfg.Headless,
		})), nil
	default:
		return nil, fmt.Errorf("unknown transport %q: want http or browser", name)
	}
}
