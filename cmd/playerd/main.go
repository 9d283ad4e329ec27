// Package main provides the player daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/19player/internal/api/connect"
	"github.com/osa030/19player/internal/app/playback"
	"github.com/osa030/19player/internal/app/session"
	"github.com/osa030/19player/internal/infra/audio"
	"github.com/osa030/19player/internal/infra/catalog"
	"github.com/osa030/19player/internal/infra/config"
	"github.com/osa030/19player/internal/infra/logger"
	"github.com/osa030/19player/internal/infra/objectstore"
)

var (
	app        = kingpin.New("19player", "19player audio player daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/player.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// tracks command
	tracksCmd = app.Command("tracks", "List the library tracks and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output:     "stdout",
		Level:      "info",
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	zlog.Info().Msgf("Loaded config from %s", *configPath)

	if command == tracksCmd.FullCommand() {
		if err := printTracks(cfg); err != nil {
			zlog.Error().Msgf("Failed to list tracks: %v", err)
			os.Exit(1)
		}
		return
	}

	// Run server (defer ensures shutdown hook is called)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	library, catalogClient, err := newLibrary(cfg)
	if err != nil {
		return err
	}

	// Validate catalog availability
	if err := validateLibrary(ctx, library); err != nil {
		return fmt.Errorf("library validation failed: %w", err)
	}

	opener, err := newOpener(cfg, catalogClient)
	if err != nil {
		return err
	}

	settings, err := audio.ParseSettings(cfg.Audio.Settings)
	if err != nil {
		return fmt.Errorf("invalid audio settings: %w", err)
	}
	if !audio.Available {
		zlog.Warn().Msg("Audio output is not available in this build, every track will fail to load")
	}
	speaker := audio.NewSpeaker(opener, settings)
	defer speaker.Close()

	// Create player manager
	playerMgr := session.NewManager(library, speaker, playback.Config{
		Volume:      cfg.Playback.InitialVolume,
		AutoAdvance: cfg.Playback.AutoAdvance,
	})
	if err := playerMgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}

	// Create RPC service
	playerService := apiconnect.NewPlayerService(playerMgr, cfg.PlayWait())

	// Create HTTP mux
	mux := http.NewServeMux()

	// Register service behind the control token interceptor
	playerPath, playerHandler := apiconnect.NewPlayerServiceHandler(
		playerService,
		connect.WithInterceptors(apiconnect.NewControlAuthInterceptor(cfg.Server.ControlToken)),
	)
	mux.Handle(playerPath, playerHandler)

	// Create server with h2c (HTTP/2 cleartext) support
	serverAddr := cfg.Server.Addr
	server := &http.Server{
		Addr:    serverAddr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	// Start server
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		// Signal that we're about to start listening
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for server to start listening
	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	// Execute startup hook if configured (after server is running)
	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	// Wait for shutdown signal, player close, or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case <-playerMgr.Done():
		zlog.Info().Msg("Player closed, shutting down...")
	case err := <-serverErrCh:
		playerMgr.Close()
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close player manager first to terminate active event streams
	playerMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	// Execute shutdown hook if configured
	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// newLibrary creates the track library selected in config.
// The catalog client is nil for a static library.
func newLibrary(cfg *config.Config) (session.Library, *catalog.Client, error) {
	if cfg.Library.Source != config.SourceCatalog {
		zlog.Info().Msgf("Using static library: tracks=%d", len(cfg.Library.Tracks))
		return session.StaticLibraryFromConfig(cfg.Library.Tracks), nil, nil
	}

	client, err := catalog.New(catalog.Config{
		BaseURL: cfg.Library.Catalog.BaseURL,
		Token:   cfg.Library.Catalog.Token,
		Timeout: cfg.CatalogTimeout(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create catalog client: %w", err)
	}

	zlog.Info().Msgf("Using catalog library: base_url=%s playlist=%q", cfg.Library.Catalog.BaseURL, cfg.Library.PlaylistID)
	return &session.CatalogLibrary{Client: client, PlaylistID: cfg.Library.PlaylistID}, client, nil
}

// newOpener creates the source opener. Catalog song URLs are fetched with the
// catalog's authenticated client.
func newOpener(cfg *config.Config, catalogClient *catalog.Client) (*audio.Opener, error) {
	opener := &audio.Opener{BaseDir: cfg.Audio.BaseDir}

	if catalogClient != nil {
		opener.Client = catalogClient.HTTPClient()
	} else {
		opener.Client = &http.Client{Timeout: cfg.CatalogTimeout()}
	}

	if cfg.StorageEnabled() {
		store, err := objectstore.New(objectstore.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create object store: %w", err)
		}
		opener.Objects = store
		zlog.Info().Msgf("Object storage enabled: endpoint=%s", cfg.Storage.Endpoint)
	}

	return opener, nil
}

// validateLibrary checks that the library can be read.
// It includes retry logic to handle a catalog that is still starting up.
func validateLibrary(ctx context.Context, library session.Library) error {
	maxRetries := 5
	baseDelay := 1 * time.Second

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			delay := baseDelay * time.Duration(1<<uint(i-1))
			zlog.Info().Msgf("Retrying library validation in %v...", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		tracks, err := library.Tracks(ctx)
		if err != nil {
			lastErr = err
			zlog.Warn().Msgf("Failed to read library (attempt %d/%d): %v", i+1, maxRetries, err)
			continue
		}
		if len(tracks) == 0 {
			zlog.Warn().Msg("Library is empty, nothing can be played until it is filled")
		}

		zlog.Info().Msgf("Library validated successfully: tracks=%d", len(tracks))
		return nil
	}
	return fmt.Errorf("failed after %d attempts: %v", maxRetries, lastErr)
}

// printTracks prints the library tracks.
func printTracks(cfg *config.Config) error {
	library, _, err := newLibrary(cfg)
	if err != nil {
		return err
	}

	tracks, err := library.Tracks(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Library (%d tracks):\n", len(tracks))
	for i, t := range tracks {
		fmt.Printf("  %3d. %-12s %s\n", i+1, t.ID, t.DisplayName())
	}
	return nil
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
