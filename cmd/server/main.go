package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"portfolio-site/internal/auth"
	"portfolio-site/internal/backend"
	"portfolio-site/internal/backend/memory"
	"portfolio-site/internal/config"
	"portfolio-site/internal/database"
	"portfolio-site/internal/handlers"
	"portfolio-site/internal/logging"
	"portfolio-site/internal/services"
	"portfolio-site/internal/session"
	"portfolio-site/internal/supabase"
	"portfolio-site/internal/web"
)

const (
	sessionIdleTTL    = 24 * time.Hour
	sessionSweepEvery = 10 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

type remote interface {
	backend.Auth
	backend.Tables
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(cfg.LogLevel, cfg.IsProduction())

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runMigrations(ctx, cfg)

	jwtSecret := cfg.SupabaseJWTSecret
	var client remote
	var images *services.ImageService

	switch cfg.Backend {
	case config.BackendMemory:
		if jwtSecret == "" {
			jwtSecret = randomSecret()
		}
		mem := memory.New(memory.WithJWTSecret(jwtSecret))
		if cfg.SeedDemoData {
			mem.Seed()
		}
		if cfg.DevAdminPassword != "" {
			for _, email := range cfg.AdminEmails {
				mem.AddUser(email, cfg.DevAdminPassword, nil)
			}
		}
		client = mem
		log.Warn().Msg("Using in-memory backend. Data is lost on restart.")
	default:
		supabaseClient, err := supabase.NewClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Supabase client")
		}
		client = supabaseClient

		if cfg.SupabaseStorageBucket != "" {
			storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
			if err != nil {
				log.Warn().Err(err).Msg("Image uploads disabled")
			} else {
				images = services.NewImageService(storageClient)
			}
		}
	}

	verifier := auth.NewTokenVerifier(jwtSecret)
	if !verifier.Enabled() {
		log.Warn().Msg("SUPABASE_JWT_SECRET not set. JSON API writes are disabled.")
	}

	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		// Sessions live in memory, so a per-process key loses nothing on restart.
		sessionSecret = randomSecret()
	}

	sessions := session.NewStore(session.NewBroker(), sessionIdleTTL)
	go sessions.Run(ctx, sessionSweepEvery, func(removed int) {
		log.Debug().Int("removed", removed).Msg("Expired browser sessions swept")
	})

	guard := auth.NewGuard(client, sessions, auth.AllowList{
		Emails: cfg.AdminEmails,
		Role:   cfg.AdminRole,
	})

	templates, err := web.Templates()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse templates")
	}

	router := handlers.NewRouter(handlers.Dependencies{
		Auth:      client,
		Tables:    client,
		Sessions:  sessions,
		Guard:     guard,
		Verifier:  verifier,
		Panels:    services.NewPanelService(client, images),
		Mailer:    services.NewMailer(cfg),
		Templates: templates,

		CookieName:    cfg.SessionCookie,
		SessionSecret: []byte(sessionSecret),
		SecureCookie:  cfg.IsProduction(),
		ContactEmail:  cfg.ContactEmail,
		BackendName:   cfg.Backend,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.Backend).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// runMigrations applies the embedded schema when a direct database
// connection is configured, then syncs the admin allow list and image bucket
// the policies enforce. Failures are logged, not fatal.
func runMigrations(ctx context.Context, cfg *config.Config) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set. Migrations will be skipped.")
		return
	}

	migrator, err := database.NewMigrator(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize migrator")
		return
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		log.Warn().Err(err).Msg("Migration failed")
		return
	}
	log.Info().Msg("Migrations completed successfully")

	access := database.Access{AdminEmails: cfg.AdminEmails, AdminRole: cfg.AdminRole}
	if cfg.Backend == config.BackendSupabase {
		access.ImageBucket = cfg.SupabaseStorageBucket
	}
	if err := migrator.Sync(ctx, access); err != nil {
		log.Warn().Err(err).Msg("Failed to sync database access rules")
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal().Err(err).Msg("Failed to generate secret")
	}
	return hex.EncodeToString(buf)
}
