package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"event-invite/internal/auth"
	"event-invite/internal/config"
	"event-invite/internal/handler"
	"event-invite/internal/logging"
	"event-invite/internal/notify"
	"event-invite/internal/rsvp"
	"event-invite/internal/storage"
	"event-invite/internal/storage/filestore"
	"event-invite/internal/storage/sqlitestore"
	"event-invite/internal/whatsapp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("failed to seed documents: %w", err)
	}

	sinks, closeSinks, err := buildSinks(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSinks()

	dispatcher := notify.NewDispatcher(log, cfg.NotifyTimeout, sinks...)
	svc := rsvp.NewService(store, dispatcher, log)

	limiter := handler.NewIPRateLimiter(cfg.RSVPRatePerMinute, cfg.RSVPRateBurst, 5*time.Minute)
	defer limiter.Stop()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(handler.RouterConfig{
		RSVP:      svc,
		Documents: store,
		Admin:     auth.NewAdmin(cfg.AdminPassword),
		Limiter:   limiter,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.StoreDriver).
			Strs("sinks", dispatcher.Sinks()).
			Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to drain HTTP server")
	}
	dispatcher.Wait()
	log.Info().Msg("Goodbye")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (*storage.Store, error) {
	var backend storage.Backend
	switch cfg.StoreDriver {
	case "sqlite":
		b, err := sqlitestore.Open(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		backend = b
	default:
		b, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open file store: %w", err)
		}
		backend = b
	}
	return storage.New(backend), nil
}

// buildSinks creates every notification sink the configuration enables.
// The returned func releases long-lived connections.
func buildSinks(ctx context.Context, cfg *config.Config, log zerolog.Logger) ([]notify.Sink, func(), error) {
	var (
		sinks   []notify.Sink
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if sc := cfg.Sheets(); sc.Enabled() {
		sinks = append(sinks, notify.NewSheetsSink(sc))
	}
	if ec := cfg.Email(); ec.Enabled() {
		sinks = append(sinks, notify.NewEmailSink(ec))
	}
	if cfg.WhatsAppEnabled() {
		wa, err := whatsapp.NewService(ctx, cfg.WhatsApp(), log)
		if err != nil {
			return nil, closeAll, fmt.Errorf("failed to initialize WhatsApp: %w", err)
		}
		go func() {
			if err := wa.Connect(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to connect to WhatsApp")
			}
		}()
		closers = append(closers, wa.Disconnect)
		sinks = append(sinks, notify.NewWhatsAppSink(wa, cfg.WhatsAppNotifyTo))
	}
	return sinks, closeAll, nil
}
