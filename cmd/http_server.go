package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/internal/audit"
	auditPostgres "github.com/frahmantamala/employee-directory/internal/audit/postgres"
	"github.com/frahmantamala/employee-directory/internal/auth"
	authPostgres "github.com/frahmantamala/employee-directory/internal/auth/postgres"
	"github.com/frahmantamala/employee-directory/internal/core/common/i18n"
	"github.com/frahmantamala/employee-directory/internal/core/common/validation"
	"github.com/frahmantamala/employee-directory/internal/core/events"
	"github.com/frahmantamala/employee-directory/internal/database"
	"github.com/frahmantamala/employee-directory/internal/department"
	departmentPostgres "github.com/frahmantamala/employee-directory/internal/department/postgres"
	"github.com/frahmantamala/employee-directory/internal/employee"
	employeePostgres "github.com/frahmantamala/employee-directory/internal/employee/postgres"
	"github.com/frahmantamala/employee-directory/internal/transport"
	"github.com/frahmantamala/employee-directory/internal/transport/middleware"
	"github.com/frahmantamala/employee-directory/internal/transport/rest"
	"github.com/frahmantamala/employee-directory/internal/upload"
	"github.com/frahmantamala/employee-directory/internal/user"
	userPostgres "github.com/frahmantamala/employee-directory/internal/user/postgres"
	"github.com/frahmantamala/employee-directory/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(cmd.Context()); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *database.DB
	Redis  *redis.Client
	Bus    *events.EventBus
	Router *chi.Mux
	Logger *slog.Logger
}

func (d *Dependencies) Close() {
	d.Bus.Wait()
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func startHTTPServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := initializeDependencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	cfg := deps.Config.Server
	addr := fmt.Sprintf(":%d", cfg.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("starting HTTP server", "address", addr, "api_prefix", cfg.APIPrefix)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		shutdownCtx, cancel := internal.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	deps.Logger.Info("server stopped")
	return nil
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Logging.Format, cfg.Logging.Level)
	lg := logger.LoggerWrapper()

	catalog, err := i18n.New(cfg.App.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	v, err := validation.New(catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to build validator: %w", err)
	}

	if _, err := rest.LoadOpenAPI(ctx, cfg.Server.OpenAPIPath); err != nil {
		lg.Warn("openapi document unavailable, docs routes disabled", "error", err)
		cfg.Server.OpenAPIPath = ""
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := &Dependencies{
		Config: cfg,
		DB:     db,
		Bus:    events.NewEventBus(lg),
		Router: chi.NewRouter(),
		Logger: lg,
	}

	if cfg.Redis.Addr != "" {
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := deps.Redis.Ping(ctx).Err(); err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	photoStore, err := newPhotoStore(ctx, cfg.Storage)
	if err != nil {
		deps.Close()
		return nil, err
	}

	base := transport.NewBaseHandler(lg, catalog)

	audit.NewEventHandler(auditPostgres.NewLoginLogRepository(db.Gorm), lg).RegisterEventHandlers(deps.Bus)

	authService := auth.NewService(
		authPostgres.NewUserRepository(db.Gorm),
		auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.TokenDuration),
		v,
		deps.Bus,
		cfg.Security.BCryptCost,
		lg,
	)
	roles := authPostgres.NewRoleRepository(db.SQL)
	rbac := auth.NewRBACAuthorization(base, roles)
	userService := user.NewService(userPostgres.NewUserRepository(db.SQL), roles)

	uploads := upload.NewService(photoStore, cfg.Storage.MaxUploadSize)
	employeeService := employee.NewService(
		employeePostgres.NewEmployeeRepository(db),
		uploads,
		authService,
		v,
		cfg.Employee,
		lg,
	)
	departmentService := department.NewService(departmentPostgres.NewDepartmentRepository(db.Gorm), v, lg)

	health := map[string]rest.Pinger{"database": db.SQL}
	if deps.Redis != nil {
		health["redis"] = rest.PingFunc(func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		})
	}

	rest.RegisterAllRoutes(deps.Router, base, rest.Handlers{
		Auth:       auth.NewHandler(base, authService),
		RBAC:       rbac,
		Employee:   employee.NewHandler(base, employeeService, cfg.Storage.MaxUploadSize),
		Department: department.NewHandler(base, departmentService),
		Upload:     upload.NewHandler(base, uploads),
		User:       user.NewHandler(base, userService),
		Health:     rest.NewHealthHandler(health),
	}, rest.Options{
		APIPrefix:      cfg.Server.APIPrefix,
		AllowedOrigins: cfg.Server.Origins(),
		OpenAPIPath:    cfg.Server.OpenAPIPath,
		RateLimit:      rateLimitConfig(cfg, deps.Redis, lg),
	})

	return deps, nil
}

func newPhotoStore(ctx context.Context, cfg internal.StorageConfig) (upload.Store, error) {
	switch cfg.Driver {
	case "minio":
		store, err := upload.NewMinioStore(ctx, cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize minio storage: %w", err)
		}
		return store, nil
	default:
		store, err := upload.NewLocalStore(cfg.LocalDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize upload directory: %w", err)
		}
		return store, nil
	}
}

func rateLimitConfig(cfg *internal.Config, rdb *redis.Client, lg *slog.Logger) *middleware.RateLimitConfig {
	if !cfg.RateLimit.Enabled {
		return nil
	}

	var store middleware.RateLimitStore = middleware.NewMemoryRateLimitStore()
	if rdb != nil {
		store = middleware.NewRedisRateLimitStore(rdb, "")
	}

	return &middleware.RateLimitConfig{
		Store:  store,
		Limit:  cfg.RateLimit.Limit,
		Window: cfg.RateLimit.Window,
		SkipPaths: []string{
			cfg.Server.APIPrefix + "/health",
			cfg.Server.APIPrefix + "/ping",
		},
		Logger: lg,
	}
}
