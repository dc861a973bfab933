package main

import (
	"chat-relay/auth"
	"chat-relay/directory"
	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/ws"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/search"
	"chat-relay/services"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// A reconnect drains the whole mailbox into a single sink buffer, so the
	// buffer must be able to hold the worst-case backlog.
	if config.MailboxLimit > 0 && config.SinkBufferSize < config.MailboxLimit {
		log.Warn("SINK_BUFFER_SIZE below MAILBOX_LIMIT, raising it to cover a full drain",
			"sink_buffer_size", config.SinkBufferSize,
			"mailbox_limit", config.MailboxLimit)
		config.SinkBufferSize = config.MailboxLimit
	}

	// 2. Database (BadgerDB, in-memory: presence and transcripts do not
	// survive a restart)
	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	//  Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Roster & seeded credentials
	dir, seeds, err := directory.Load(config.RosterPath)
	if err != nil {
		return fmt.Errorf("loading roster failed: %w", err)
	}
	users := repositories.NewUserRepository(db)
	for _, seed := range seeds {
		hash, err := auth.HashPassword(seed.Password)
		if err != nil {
			return fmt.Errorf("hashing seed password: %w", err)
		}
		if err := users.SeedUser(seed.Username, hash); err != nil {
			return fmt.Errorf("seeding user %s: %w", seed.Username, err)
		}
	}
	log.Info("Roster loaded", "identities", len(dir.Identities()), "groups", len(dir.GroupNames()))

	// 4. Moderation
	blocklist, err := moderation.LoadBlocklist()
	if err != nil {
		return fmt.Errorf("loading blocklist failed: %w", err)
	}
	replacement := '*'
	if runes := []rune(config.ModerationCharReplacement); len(runes) > 0 {
		replacement = runes[0]
	}
	moderator, err := moderation.NewModerator(blocklist.Words, replacement)
	if err != nil {
		return fmt.Errorf("building moderator failed: %w", err)
	}
	log.Info("Moderation dictionaries loaded", "languages", blocklist.Languages, "words", len(blocklist.Words))

	// 5. Transcript store & search index
	transcripts := repositories.NewTranscriptRepository(db, log)
	index, err := search.NewInMemoryIndex(log)
	if err != nil {
		return fmt.Errorf("opening search index failed: %w", err)
	}
	defer func() { _ = index.Close() }()

	// 6. Router actor & supervised workers
	metrics := observability.New()
	router := runtime.NewRouter(log, dir, runtime.Options{
		Transcripts:       transcripts,
		Index:             index,
		Moderator:         moderator,
		Metrics:           metrics,
		CommandBufferSize: config.CommandBufferSize,
		MailboxLimit:      config.MailboxLimit,
	})

	sup := workers.NewSupervisor(log, config.RestartInterval).
		Add(router).
		Add(workers.NewTelemetryWorker(log, metrics, config.TelemetryInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sup.Run(ctx)

	// 7. Services & HTTP surface
	tokens := auth.NewTokens(config.TokenSecret, config.TokenTTL)
	authService := services.NewAuthService(users, tokens)
	chatService := services.NewChatService(router, dir, transcripts, index)

	wsHandler := ws.NewHandler(authService, chatService, log, ws.HandlerOptions{
		AllowedOrigin: config.AllowedOrigin,
		SinkBuffer:    config.SinkBufferSize,
		WriteTimeout:  config.WriteTimeout,
	})
	handler := httpapi.NewRouter(authService, chatService, wsHandler, log, httpapi.Options{
		AllowedOrigin: config.AllowedOrigin,
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: handler}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
