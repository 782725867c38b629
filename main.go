package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/audit"
	"github.com/zinspection/zi-engine/pkg/auth"
	"github.com/zinspection/zi-engine/pkg/config"
	"github.com/zinspection/zi-engine/pkg/database"
	"github.com/zinspection/zi-engine/pkg/handlers"
	"github.com/zinspection/zi-engine/pkg/llm"
	"github.com/zinspection/zi-engine/pkg/metrics"
	"github.com/zinspection/zi-engine/pkg/middleware"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/repositories"
	"github.com/zinspection/zi-engine/pkg/retry"
	"github.com/zinspection/zi-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := rootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "zi-engine",
		Short:         "Z-Inspection evaluation backend",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML config file")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run migrations and start the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), configPath)
			},
		},
		migrateCommand(&configPath),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintln(cmd.OutOrStdout(), Version)
			},
		},
	)

	return rootCmd
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setup loads configuration, builds the logger and connects to the database.
func setup(ctx context.Context, configPath string) (*config.Config, *zap.Logger, *database.DB, error) {
	cfg, err := config.Load(configPath, Version)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("llm_available", cfg.LLM.IsAvailable()))

	// The database may still be starting when the engine comes up next to it.
	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:             cfg.Database.URL(),
			ApplicationName: "zi-engine",
			MaxConnections:  cfg.Database.MaxConnections,
		})
	})
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	return cfg, logger, db, nil
}

func migrate(db *database.DB, cfg *config.Config, logger *zap.Logger) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()
	return database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger)
}

func migrateCommand(configPath *string) *cobra.Command {
	var rollback int
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := setup(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer db.Close()
			defer func() { _ = logger.Sync() }()

			if rollback == 0 && !status {
				return migrate(db, cfg, logger)
			}

			sqlDB := stdlib.OpenDBFromPool(db.Pool)
			defer sqlDB.Close()
			if rollback > 0 {
				if err := database.RollbackMigrations(sqlDB, cfg.Database.MigrationsPath, rollback, logger); err != nil {
					return err
				}
			}
			state, err := database.GetMigrationState(sqlDB, cfg.Database.MigrationsPath, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", state.Version, state.Dirty)
			return nil
		},
	}
	cmd.Flags().IntVar(&rollback, "rollback", 0, "revert this many migrations instead of applying")
	cmd.Flags().BoolVar(&status, "status", false, "print the applied schema version and exit")
	return cmd
}

func runServe(ctx context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, db, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer db.Close()
	defer func() { _ = logger.Sync() }()

	if err := migrate(db, cfg, logger); err != nil {
		return err
	}

	m, err := metrics.New()
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}
	if err := m.RegisterPoolGauges(func() (int32, int32, int32) {
		s := db.Stats()
		return s.Total, s.Idle, s.Acquired
	}); err != nil {
		return fmt.Errorf("register pool metrics: %w", err)
	}

	jwksClient, err := auth.NewJWKSClient(ctx, &auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		Audience:           cfg.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("create JWKS client: %w", err)
	}
	defer jwksClient.Close()
	if !cfg.Auth.EnableVerification {
		logger.Warn("JWT verification is disabled; tokens are trusted without signature checks")
	}
	authMiddleware := auth.NewMiddleware(auth.NewAuthService(jwksClient, logger), logger)

	var llmClient llm.LLMClient
	if cfg.LLM.IsAvailable() {
		llmClient, err = llm.New(&llm.Config{
			Provider:  cfg.LLM.Provider,
			Endpoint:  cfg.LLM.EffectiveBaseURL(),
			Model:     cfg.LLM.Model,
			APIKey:    cfg.LLM.APIKey,
			MaxTokens: cfg.LLM.MaxTokens,
		}, logger)
		if err != nil {
			return fmt.Errorf("create LLM client: %w", err)
		}
	} else {
		logger.Warn("No LLM configured; report generation is disabled")
	}

	// Repositories
	userRepo := repositories.NewUserRepository()
	useCaseRepo := repositories.NewUseCaseRepository()
	projectRepo := repositories.NewProjectRepository()
	assignmentRepo := repositories.NewAssignmentRepository()
	questionnaireRepo := repositories.NewQuestionnaireRepository()
	responseRepo := repositories.NewResponseRepository()
	tensionRepo := repositories.NewTensionRepository()
	messageRepo := repositories.NewMessageRepository()
	reportRepo := repositories.NewReportRepository()

	// Services
	auditor := audit.NewSecurityAuditor(logger)
	resolver := services.NewAssignedExpertsService(useCaseRepo, projectRepo, assignmentRepo, responseRepo, userRepo, m, logger)
	analyticsService := services.NewAnalyticsService(projectRepo, responseRepo, assignmentRepo, userRepo, services.AnalyticsConfig{
		HotspotThreshold: cfg.Scoring.HotspotThreshold,
		CacheTTL:         cfg.Scoring.CacheTTL(),
	}, m, logger)
	userService := services.NewUserService(userRepo, auditor, logger)
	useCaseService := services.NewUseCaseService(useCaseRepo, userRepo, resolver, logger)
	projectService := services.NewProjectService(projectRepo, useCaseRepo, userRepo, assignmentRepo, questionnaireRepo, auditor, logger)
	questionnaireService := services.NewQuestionnaireService(questionnaireRepo, logger)
	responseService := services.NewResponseService(projectRepo, questionnaireRepo, assignmentRepo, responseRepo, analyticsService, m, logger)
	tensionService := services.NewTensionService(projectRepo, tensionRepo, logger)
	messageService := services.NewMessageService(projectRepo, userRepo, messageRepo, logger)
	reportService := services.NewReportService(services.ReportDeps{
		DB:          db,
		ProjectRepo: projectRepo,
		UseCaseRepo: useCaseRepo,
		TensionRepo: tensionRepo,
		ReportRepo:  reportRepo,
		Analytics:   analyticsService,
		Resolver:    resolver,
		LLM:         llmClient,
		Temperature: cfg.LLM.Temperature,
		Metrics:     m,
		Auditor:     auditor,
		Logger:      logger,
	})

	// Route wrappers: authenticate, then hold one pooled connection for the request.
	withScope := database.WithScope(db, logger)
	authed := handlers.RouteWrapper(func(h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireAuth(withScope(h))
	})
	admin := handlers.RouteWrapper(func(h http.HandlerFunc) http.HandlerFunc {
		return authMiddleware.RequireRole(models.RoleAdmin)(withScope(h))
	})

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, m.Handler(), logger).RegisterRoutes(mux)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux, admin)
	handlers.NewUseCasesHandler(useCaseService, logger).RegisterRoutes(mux, authed, admin)
	handlers.NewProjectsHandler(projectService, logger).RegisterRoutes(mux, authed, admin)
	handlers.NewQuestionnairesHandler(questionnaireService, logger).RegisterRoutes(mux, authed, admin)
	handlers.NewResponsesHandler(responseService, logger).RegisterRoutes(mux, authed, admin)
	handlers.NewAnalyticsHandler(analyticsService, projectService, logger).RegisterRoutes(mux, authed)
	handlers.NewTensionsHandler(tensionService, projectService, logger).RegisterRoutes(mux, authed, admin)
	handlers.NewMessagesHandler(messageService, projectService, logger).RegisterRoutes(mux, authed)
	handlers.NewReportsHandler(reportService, projectService, logger).RegisterRoutes(mux, authed, admin)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger, m)(mux),
		ReadHeaderTimeout: 10 * time.Second,
		// Report generation waits on the LLM, so writes get a generous limit.
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting zi-engine",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version),
			zap.Bool("tls", cfg.TLSCertPath != ""))
		var err error
		if cfg.TLSCertPath != "" {
			err = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
