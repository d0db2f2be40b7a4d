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

	"github.com/clinops/clinops/internal/config"
	"github.com/clinops/clinops/internal/domain/casestate"
	"github.com/clinops/clinops/internal/domain/checklist"
	"github.com/clinops/clinops/internal/domain/dayboard"
	"github.com/clinops/clinops/internal/domain/nursedoc"
	"github.com/clinops/clinops/internal/domain/planning"
	"github.com/clinops/clinops/internal/domain/readiness"
	"github.com/clinops/clinops/internal/domain/surgery"
	"github.com/clinops/clinops/internal/domain/timeline"
	"github.com/clinops/clinops/internal/platform/auth"
	"github.com/clinops/clinops/internal/platform/db"
	"github.com/clinops/clinops/internal/platform/middleware"
)

// The readiness aggregator talks to its collaborators through narrow
// provider interfaces so that the readiness package never imports the
// domain packages it scores. The adapters below bridge the domain services
// to those interfaces, avoiding circular imports.

// PlanProviderAdapter adapts planning.Service to readiness.DoctorPlanProvider.
type PlanProviderAdapter struct {
	svc *planning.Service
}

func (a *PlanProviderAdapter) PlanStatus(ctx context.Context, caseID uuid.UUID) (readiness.PlanStatus, error) {
	p, err := a.svc.Plan(ctx, caseID)
	if err != nil {
		return readiness.PlanStatus{}, err
	}
	return readiness.PlanStatus{Ready: p.Ready, MissingCount: p.MissingCount}, nil
}

// ConsentProviderAdapter adapts planning.Service to readiness.ConsentProvider.
type ConsentProviderAdapter struct {
	svc *planning.Service
}

func (a *ConsentProviderAdapter) ConsentCounts(ctx context.Context, caseID uuid.UUID) (readiness.ConsentCounts, error) {
	counts, err := a.svc.ConsentCounts(ctx, caseID)
	if err != nil {
		return readiness.ConsentCounts{}, err
	}
	return readiness.ConsentCounts{Signed: counts.Signed, Total: counts.Total}, nil
}

// NurseDocProviderAdapter adapts nursedoc.Service to readiness.NurseDocProvider
// and readiness.OperativeNoteProvider.
type NurseDocProviderAdapter struct {
	svc *nursedoc.Service
}

func (a *NurseDocProviderAdapter) DocStatus(ctx context.Context, caseID uuid.UUID, phase readiness.DocPhase) (readiness.NurseDoc, error) {
	d, err := a.svc.Doc(ctx, caseID, nursedoc.Phase(phase))
	if err != nil {
		return readiness.NurseDoc{}, err
	}
	return readiness.NurseDoc{
		Status:         readiness.DocStatus(d.Status),
		Discrepancy:    d.Discrepancy,
		DischargeReady: d.DischargeReady,
		PhotoCount:     d.PhotoCount,
	}, nil
}

func (a *NurseDocProviderAdapter) NoteStatus(ctx context.Context, caseID uuid.UUID) (readiness.DocStatus, error) {
	n, err := a.svc.Note(ctx, caseID)
	if err != nil {
		return readiness.DocNone, err
	}
	return readiness.DocStatus(n.Status), nil
}

// ChecklistProviderAdapter adapts checklist.Service to readiness.ChecklistProvider.
type ChecklistProviderAdapter struct {
	svc *checklist.Service
}

func (a *ChecklistProviderAdapter) ChecklistFlags(ctx context.Context, caseID uuid.UUID) (readiness.ChecklistFlags, error) {
	cs, err := a.svc.Status(ctx, caseID)
	if err != nil {
		return readiness.ChecklistFlags{}, err
	}
	return readiness.ChecklistFlags{
		SignInDone:  cs.SignIn.Completed,
		TimeOutDone: cs.TimeOut.Completed,
		SignOutDone: cs.SignOut.Completed,
	}, nil
}

// TimelineProviderAdapter adapts timeline.Service to readiness.TimelineProvider.
type TimelineProviderAdapter struct {
	svc *timeline.Service
}

func (a *TimelineProviderAdapter) MissingFields(ctx context.Context, caseID uuid.UUID, status casestate.Status) ([]string, error) {
	view, err := a.svc.View(ctx, caseID, status)
	if err != nil {
		return nil, err
	}
	missing := make([]string, 0, len(view.MissingItems))
	for _, f := range view.MissingItems {
		missing = append(missing, string(f))
	}
	return missing, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinops-server",
		Short: "Surgical case readiness and transition API server",
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
		Short: "Start the API server",
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
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
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

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Restore from a database backup or write a forward migration instead.")
			return nil
		},
	})

	return cmd
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
		logger.Fatal().Err(err).Msg("invalid config")
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
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Auth middleware
	if cfg.ResolvedAuthMode() == "development" {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:   cfg.AuthIssuer,
			Audience: cfg.AuthAudience,
			JWKSURL:  cfg.AuthJWKSURL,
		}))
	}

	// API group with rate limiting
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Repositories
	caseRepo := surgery.NewCaseRepoPG(pool)
	auditRepo := surgery.NewAuditRepoPG(pool)
	checklistRepo := checklist.NewRepoPG(pool)
	timelineRepo := timeline.NewRepoPG(pool)
	planRepo := planning.NewPlanRepoPG(pool)
	consentRepo := planning.NewConsentRepoPG(pool)
	nurseDocRepo := nursedoc.NewRepoPG(pool)

	// Services
	checklistSvc := checklist.NewService(checklistRepo)
	timelineSvc := timeline.NewService(timelineRepo)
	planningSvc := planning.NewService(planRepo, consentRepo)
	nurseDocSvc := nursedoc.NewService(nurseDocRepo)

	nurseDocAdapter := &NurseDocProviderAdapter{svc: nurseDocSvc}
	aggregator := readiness.NewAggregator(
		&PlanProviderAdapter{svc: planningSvc},
		&ConsentProviderAdapter{svc: planningSvc},
		nurseDocAdapter,
		nurseDocAdapter,
		&ChecklistProviderAdapter{svc: checklistSvc},
		&TimelineProviderAdapter{svc: timelineSvc},
		logger,
	)

	surgerySvc := surgery.NewService(caseRepo, auditRepo, aggregator)
	dayboardSvc := dayboard.NewService(
		caseRepo,
		checklistSvc,
		timelineSvc,
		aggregator,
		cfg.DelayedStartThreshold(),
		logger,
	)

	// Handlers
	surgery.NewHandler(surgerySvc, auditRepo).RegisterRoutes(apiV1)
	checklist.NewHandler(checklistSvc).RegisterRoutes(apiV1)
	timeline.NewHandler(timelineSvc, surgerySvc.Status).RegisterRoutes(apiV1)
	planning.NewHandler(planningSvc).RegisterRoutes(apiV1)
	nursedoc.NewHandler(nurseDocSvc).RegisterRoutes(apiV1)
	dayboard.NewHandler(dayboardSvc).RegisterRoutes(apiV1)

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
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
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
