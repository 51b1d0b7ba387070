package chronicle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soundprediction/chronicle"
	"github.com/soundprediction/chronicle/pkg/config"
	"github.com/soundprediction/chronicle/pkg/factstore"
	chronicleLogger "github.com/soundprediction/chronicle/pkg/logger"
	"github.com/soundprediction/chronicle/pkg/resolver"
	"github.com/soundprediction/chronicle/pkg/server"
	"github.com/soundprediction/chronicle/pkg/telemetry"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Chronicle HTTP server",
	Long: `Start the Chronicle HTTP server to provide REST API access to the
temporal reasoning engine.

The server provides endpoints for:
- Registering entities and recording temporal facts
- Asserting and querying temporal relations
- Inferring relations and recomputing timeline order
- Rendering timelines, narrative context, and segments
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Store flags
	serverCmd.Flags().String("store-backend", "memory", "Fact store backend (memory, sqlite, badger, neo4j)")
	serverCmd.Flags().String("store-path", "./chronicle_db", "Store path (sqlite file or badger directory)")
	serverCmd.Flags().String("store-uri", "", "Store URI (neo4j bolt uri)")
	serverCmd.Flags().String("store-username", "", "Store username (neo4j only)")
	serverCmd.Flags().String("store-password", "", "Store password (neo4j only)")
	serverCmd.Flags().String("store-database", "", "Store database name (neo4j only)")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for error telemetry")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	overrideConfigWithFlags(cmd, cfg)

	// Validate configuration
	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize Chronicle
	fmt.Println("Initializing Chronicle...")
	client, registry, err := initializeChronicle(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Chronicle: %w", err)
	}
	defer client.Close()

	// Create and setup server
	srv := server.New(cfg, client, registry)
	srv.Setup()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Store flags
	if cmd.Flags().Changed("store-backend") {
		cfg.Store.Backend, _ = cmd.Flags().GetString("store-backend")
	}
	if cmd.Flags().Changed("store-path") {
		cfg.Store.Path, _ = cmd.Flags().GetString("store-path")
	}
	if cmd.Flags().Changed("store-uri") {
		cfg.Store.URI, _ = cmd.Flags().GetString("store-uri")
	}
	if cmd.Flags().Changed("store-username") {
		cfg.Store.Username, _ = cmd.Flags().GetString("store-username")
	}
	if cmd.Flags().Changed("store-password") {
		cfg.Store.Password, _ = cmd.Flags().GetString("store-password")
	}
	if cmd.Flags().Changed("store-database") {
		cfg.Store.Database, _ = cmd.Flags().GetString("store-database")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	switch cfg.Store.Backend {
	case "memory":
	case "sqlite", "badger":
		if cfg.Store.Path == "" {
			return fmt.Errorf("store path is required for %s", cfg.Store.Backend)
		}
	case "neo4j":
		if cfg.Store.URI == "" {
			return fmt.Errorf("store URI is required for neo4j")
		}
	default:
		return fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
	return nil
}

func initializeChronicle(cfg *config.Config) (*chronicle.Client, *resolver.Static, error) {
	logger := buildLogger(cfg)

	facts, err := factstore.New(&factstore.Config{
		Type:     factstore.StoreType(cfg.Store.Backend),
		Path:     cfg.Store.Path,
		URI:      cfg.Store.URI,
		Username: cfg.Store.Username,
		Password: cfg.Store.Password,
		Database: cfg.Store.Database,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create fact store: %w", err)
	}
	if err := facts.Initialize(context.Background()); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize fact store: %w", err)
	}

	registry := resolver.NewStatic()
	var res resolver.Resolver = registry
	if cfg.CircuitBreaker.Enabled {
		res = resolver.NewBreaker(res, &resolver.BreakerConfig{
			MaxRequests:  cfg.CircuitBreaker.MaxRequests,
			Interval:     time.Duration(cfg.CircuitBreaker.Interval) * time.Second,
			Timeout:      time.Duration(cfg.CircuitBreaker.Timeout) * time.Second,
			FailureRatio: cfg.CircuitBreaker.ReadyToTripRatio,
		})
	}

	client, err := chronicle.NewClient(facts, res, &chronicle.Config{
		TimeZone:     time.UTC,
		GapThreshold: time.Duration(cfg.Segmenter.GapThresholdSeconds) * time.Second,
		BatchSize:    cfg.Segmenter.BatchSize,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Chronicle client: %w", err)
	}

	fmt.Printf("Chronicle initialized successfully with store: %s\n", cfg.Store.Backend)
	return client, registry, nil
}

// buildLogger assembles the slog chain: colored terminal output, wrapped
// with parquet error telemetry when a path is configured.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	switch cfg.Log.Format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	default:
		handler = chronicleLogger.NewColorHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	if cfg.Telemetry.ParquetPath != "" {
		parquetHandler, err := telemetry.NewParquetHandler(handler, cfg.Telemetry.ParquetPath)
		if err != nil {
			fmt.Printf("Warning: Failed to initialize error tracking: %v\n", err)
		} else {
			handler = parquetHandler
			fmt.Printf("Error tracking enabled at: %s\n", cfg.Telemetry.ParquetPath)
		}
	}

	return slog.New(handler)
}
