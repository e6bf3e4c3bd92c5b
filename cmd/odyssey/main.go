package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-hr/odyssey-hr/internal/app"
	"github.com/odyssey-hr/odyssey-hr/internal/audit"
	audithttp "github.com/odyssey-hr/odyssey-hr/internal/audit/http"
	"github.com/odyssey-hr/odyssey-hr/internal/auth"
	"github.com/odyssey-hr/odyssey-hr/internal/claims"
	"github.com/odyssey-hr/odyssey-hr/internal/departments"
	"github.com/odyssey-hr/odyssey-hr/internal/employees"
	"github.com/odyssey-hr/odyssey-hr/internal/observability"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/cache"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/db"
	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
	"github.com/odyssey-hr/odyssey-hr/internal/roles"
	"github.com/odyssey-hr/odyssey-hr/internal/shared"
	"github.com/odyssey-hr/odyssey-hr/internal/uiaccess"
	"github.com/odyssey-hr/odyssey-hr/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	// The registry is validated before any connection is opened.
	registry := rbac.MustDefault()
	gate := rbac.NewGate(registry)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{
		MaxConns:        cfg.PGMaxConns,
		MaxConnLifetime: cfg.PGMaxConnLifetime,
		ApplicationName: "odyssey-hr",
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	if cfg.PGMigrate {
		if err := db.Migrate(dbpool); err != nil {
			logger.Error("run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	rbacMiddleware := rbac.Middleware{
		Gate:   gate,
		Logger: logger,
		OnDeny: func(role rbac.Role) { metrics.RBACDenied(string(role)) },
	}
	auditLogger := shared.NewAuditLogger(dbpool)

	rolesService := roles.NewService(roles.NewRepository(dbpool), registry, logger)
	if err := rolesService.EnsureRoles(ctx); err != nil {
		logger.Error("seed roles", slog.Any("error", err))
		os.Exit(1)
	}

	departmentCache := cache.NewJSONStore(redisClient, "odyssey:departments:", cfg.DepartmentCacheTTL)
	departmentsService := departments.NewService(departments.NewRepository(dbpool), departmentCache, logger)

	tokenConfig := claims.Config{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	issuer, err := claims.NewIssuer(tokenConfig)
	if err != nil {
		logger.Error("init token issuer", slog.Any("error", err))
		os.Exit(1)
	}
	verifier, err := claims.NewVerifier(tokenConfig)
	if err != nil {
		logger.Error("init token verifier", slog.Any("error", err))
		os.Exit(1)
	}
	authenticator := claims.Authenticator{Verifier: verifier, Logger: logger}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	authService, err := auth.NewService(auth.Deps{
		Repo:        auth.NewRepository(dbpool),
		Roles:       rolesService,
		Departments: departmentsService,
		Issuer:      issuer,
		Audit:       auditLogger,
		Mail:        jobClient,
		Metrics:     metrics,
		Logger:      logger,
		BcryptCost:  cfg.BcryptCost,
	})
	if err != nil {
		logger.Error("init auth service", slog.Any("error", err))
		os.Exit(1)
	}
	authHandler := auth.NewHandler(auth.HandlerConfig{
		Logger:        logger,
		Service:       authService,
		Authenticate:  authenticator.Authenticate,
		Registry:      registry,
		Navigator:     uiaccess.NewNavigator(registry, uiaccess.DefaultRoutes()),
		RateLimit:     cfg.AuthRateLimit,
		RateLimitSpan: cfg.AuthRateLimitSpan,
	})

	auditService := audit.NewService(audit.NewRepository(dbpool))

	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Authenticate:       authenticator.Authenticate,
		AuthHandler:        authHandler,
		RolesHandler:       roles.NewHandler(logger, rolesService, rbacMiddleware),
		DepartmentsHandler: departments.NewHandler(logger, departmentsService, rbacMiddleware, auditLogger),
		EmployeesHandler:   employees.NewHandler(logger, employees.NewService(employees.NewRepository(dbpool)), rbacMiddleware),
		AuditHandler:       audithttp.NewHandler(logger, auditService, rbacMiddleware),
		PermissionsHandler: rbac.NewPermissionsHandler(gate),
		JobHandler:         jobs.NewHandler(inspector, logger),
		Readiness: map[string]app.ReadinessCheck{
			"postgres": dbpool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
		Metrics: metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
