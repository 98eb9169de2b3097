package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"tee-studio/internal/config"
	"tee-studio/internal/database"
	"tee-studio/internal/handler"
	"tee-studio/internal/metrics"
	"tee-studio/internal/middleware"
	"tee-studio/internal/repository"
	"tee-studio/internal/router"
	"tee-studio/internal/service"
	"tee-studio/internal/storage"
)

type App struct {
	server       *http.Server
	handler      http.Handler
	cleanupFuncs []func()
}

type stores struct {
	users    service.UserStore
	products service.ProductStore
	designs  service.DesignStore
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	st, db, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		a.cleanupFuncs = append(a.cleanupFuncs, db.Close)
	}

	objects, uploads, err := openObjectStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	tokenService := service.NewTokenService(st.users, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := service.NewAuthService(st.users, tokenService, service.NewPasswordHasher(cfg.BcryptCost), m)
	productService := service.NewProductService(st.products, objects, cfg.MaxUploadSize, cfg.AllowedMIMETypes, m)
	designService := service.NewDesignService(st.designs)

	if cfg.SeedAdmin() {
		admin, err := authService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to ensure admin account: %w", err)
		}
		slog.Info("admin account ready", "user_id", admin.ID, "username", admin.Username)
	}

	var health *handler.HealthHandler
	if db != nil {
		health = handler.NewHealthHandler(db)
	} else {
		health = handler.NewHealthHandler(nil)
	}

	a.handler = router.New(cfg,
		router.Guards{
			Auth: middleware.NewAuthMiddleware(tokenService),
			View: middleware.NewViewGuard(tokenService, "/"),
		},
		router.Handlers{
			Auth:    handler.NewAuthHandler(authService, cfg.CookieSecure),
			User:    handler.NewUserHandler(authService),
			Product: handler.NewProductHandler(productService, cfg.MaxUploadSize),
			Design:  handler.NewDesignHandler(designService),
			View:    handler.NewViewHandler(cfg.WebRoot),
			Docs:    handler.NewDocsHandler(cfg.OpenAPIPath),
			Health:  health,
		},
		m,
		uploads,
	)

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           a.handler,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

// openStores connects to PostgreSQL when DATABASE_URL is set and falls back
// to the in-process store otherwise.
func openStores(ctx context.Context, cfg *config.Config) (stores, *database.DB, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, using in-memory store; data is lost on restart")
		mem := repository.NewMemoryStore()
		return stores{users: mem.Users(), products: mem.Products(), designs: mem.Designs()}, nil, nil
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return stores{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return stores{}, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	pool := db.Pool
	return stores{
		users:    repository.NewUserRepository(pool),
		products: repository.NewProductRepository(pool),
		designs:  repository.NewDesignRepository(pool),
	}, db, nil
}

// openObjectStore returns the configured object store and, for the local
// driver, a handler that serves the stored files.
func openObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, http.Handler, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverS3:
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
			Endpoint:        cfg.S3Endpoint,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
		slog.Info("object storage ready", "driver", "s3", "bucket", cfg.S3Bucket)
		return store, nil, nil
	default:
		store, err := storage.NewLocalStore(cfg.StorageRoot, cfg.PublicBaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
		slog.Info("object storage ready", "driver", "local", "root", store.RootAbs())
		return store, http.FileServer(http.Dir(store.RootAbs())), nil
	}
}

func (a *App) Handler() http.Handler {
	return a.handler
}

func (a *App) Close() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.Close()

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
