package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medisched/medisched/internal/config"
	"github.com/medisched/medisched/internal/domain/appointment"
	"github.com/medisched/medisched/internal/domain/roster"
	"github.com/medisched/medisched/internal/domain/treatment"
	"github.com/medisched/medisched/internal/platform/auth"
	"github.com/medisched/medisched/internal/platform/db"
	"github.com/medisched/medisched/internal/platform/meeting"
	"github.com/medisched/medisched/internal/platform/middleware"
	"github.com/medisched/medisched/internal/platform/notification"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sched-server",
		Short: "Clinic scheduling and booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduling API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// logEmailSender logs outbound email instead of delivering it; the
// production sender is wired via SMTP configuration of the deployment.
type logEmailSender struct {
	log zerolog.Logger
}

func (s logEmailSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.log.Info().Str("to", to).Str("subject", subject).Msg("email notification")
	return nil
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.Sanitize())
	e.Use(middleware.RequestTimeout(30 * time.Second))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.IsDev() && cfg.JWTSecret == "" {
		logger.Warn().Msg("development mode: requests run as admin")
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			SigningKey: []byte(cfg.JWTSecret),
			Issuer:     cfg.AuthIssuer,
		}))
	}

	// API group
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))

	// Roster
	entryRepo := roster.NewEntryRepoPG(pool)
	doctorRepo := roster.NewDoctorRepoPG(pool)
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
	rosterSvc := roster.NewService(entryRepo, doctorRepo, inTx, roster.Config{
		GenerationDays:  cfg.Clinic.GenerationDays,
		DoctorsPerShift: cfg.Clinic.DoctorsPerShift,
	})
	roster.NewHandler(rosterSvc).RegisterRoutes(apiV1)

	// Notifications
	templates := notification.NewTemplateEngine()
	manager := notification.NewManager(logEmailSender{log: logger}, nil, templates)
	// The user directory lives behind the auth provider; plug its
	// address lookup in here when one is available.
	resolver := func(context.Context, uuid.UUID) (string, bool) { return "", false }
	reminder := notification.NewReminder(manager, resolver, logger)

	// Appointments
	template := appointment.NewSlotTemplate(appointment.TemplateConfig{
		StartHour:          cfg.Clinic.SlotStartHour,
		SlotMinutes:        cfg.Clinic.SlotMinutes,
		MorningSlots:       cfg.Clinic.MorningSlots,
		AfternoonStartHour: cfg.Clinic.AfternoonStartHour,
		AfternoonSlots:     cfg.Clinic.AfternoonSlots,
	})
	var meetings appointment.MeetingProvisioner
	if cfg.MeetingProviderURL != "" {
		meetings = meeting.NewClient(cfg.MeetingProviderURL, logger)
	} else {
		logger.Warn().Msg("no meeting provider configured, online appointments get no URL")
	}
	apptSvc := appointment.NewService(
		appointment.NewRepoPG(pool),
		appointment.NewServiceRepoPG(pool),
		rosterSvc,
		template,
		meetings,
		reminder,
		logger,
	)
	appointment.NewHandler(apptSvc).RegisterRoutes(apiV1)

	// Treatments. cfg.Validate already guaranteed the ID parses.
	followupID, err := uuid.Parse(cfg.Clinic.FollowupServiceID)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid FOLLOWUP_SERVICE_ID")
	}
	treatmentSvc := treatment.NewService(
		treatment.NewProtocolRepoPG(pool),
		treatment.NewTreatmentRepoPG(pool),
		apptSvc,
		treatment.CheckpointPolicy{Fractions: cfg.Clinic.FollowupCheckpoints},
		followupID,
		logger,
	)
	treatment.NewHandler(treatmentSvc).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
