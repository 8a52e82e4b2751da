// Package main provides the cuebox server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/osa030/cuebox/internal/api/rest"
	"github.com/osa030/cuebox/internal/app/notification"
	"github.com/osa030/cuebox/internal/app/scheduler"
	"github.com/osa030/cuebox/internal/infra/config"
	"github.com/osa030/cuebox/internal/infra/library"
	"github.com/osa030/cuebox/internal/infra/logger"
	"github.com/osa030/cuebox/internal/infra/player"
)

var (
	app        = kingpin.New("cueboxd", "cuebox media-cue scheduler server")
	configPath = app.Flag("config", "Path to config file").Default("config/cuebox.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-players command
	listPlayersCmd = app.Command("list-players", "List available player backends and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-players command
	if command == listPlayersCmd.FullCommand() {
		printPlayers()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	// Config file log settings apply unless flags override them
	if !*verbose && *logfile == "" {
		if err := logger.Init(logger.Config{Output: cfg.Log.Output, Level: cfg.Log.Level}); err != nil {
			zlog.Fatal().Msgf("Failed to initialize logger: %v", err)
		}
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	// Parse scheduler policy
	policy, err := scheduler.ParseFailurePolicy(cfg.Playback.OnStartFailure)
	if err != nil {
		return fmt.Errorf("invalid playback config: %w", err)
	}

	// Build the cue library
	lib := library.New(cfg.Cues)
	zlog.Info().Msgf("Loaded cue library: kinds=%d", len(lib.Kinds()))

	// Notification fan-out, registered as the scheduler's queue observer
	notif := notification.NewManager()

	// Player backend reports completions into the scheduler; the
	// scheduler is created right after, before any playback can start.
	var sched *scheduler.Scheduler
	backend, err := player.New(cfg.Player, func(token string, success bool) {
		sched.OnPlaybackFinished(token, success)
	})
	if err != nil {
		return fmt.Errorf("failed to create player backend: %w", err)
	}

	sched = scheduler.New(scheduler.Config{OnStartFailure: policy}, lib, backend, notif)

	// HTTP API
	apiServer := rest.NewServer(sched, lib, notif)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(apiServer.Router(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s player=%s policy=%s", cfg.Server.Addr, cfg.Player.Type, policy)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Drop subscribers first to terminate active event streams
	notif.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")
	return nil
}

// printPlayers prints available player backends.
func printPlayers() {
	fmt.Println("Available Players:")
	for _, t := range player.Types() {
		switch t {
		case "exec":
			fmt.Printf("  %-6s - spawn an external command per clip (settings: command, args)\n", t)
		case "null":
			fmt.Printf("  %-6s - accept everything, finish after a delay (settings: delay_ms)\n", t)
		}
	}
}
