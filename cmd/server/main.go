package main

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

	"petitionhub-backend/cache"
	"petitionhub-backend/config"
	"petitionhub-backend/handlers"
	"petitionhub-backend/identity"
	"petitionhub-backend/logger"
	"petitionhub-backend/metrics"
	"petitionhub-backend/middleware"
	"petitionhub-backend/migrations"
	"petitionhub-backend/repository"
	"petitionhub-backend/service"
	"petitionhub-backend/storage"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, envLoaded, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", logger.Err(err))
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if !envLoaded {
		log.Warn("no .env file found, using environment variables")
	}
	log.Info("starting petitionhub",
		slog.String("env", cfg.App.Env),
		slog.String("version", cfg.App.Version),
		slog.String("store_backend", cfg.App.StoreBackend),
		slog.String("auth_provider", cfg.Auth.Provider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", logger.Err(err))
		os.Exit(1)
	}
	log.Info("server stopped gracefully")
}

// stores bundles the persistence implementations for one backend
type stores struct {
	petitions service.PetitionStore
	files     service.FileStore
	users     service.UserStore
	db        *pgxpool.Pool
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	var fbApp *firebase.App
	if cfg.App.StoreBackend == config.BackendFirestore || cfg.Auth.Provider == config.AuthFirebase {
		app, err := identity.NewFirebaseApp(ctx, cfg.Firebase)
		if err != nil {
			return err
		}
		fbApp = app
		log.Info("firebase app initialized")
	}

	st, closeStores, err := initStores(ctx, cfg, fbApp, log)
	if err != nil {
		return err
	}
	defer closeStores()

	provider, err := initIdentity(ctx, cfg, fbApp, st.users)
	if err != nil {
		return err
	}

	fileStorage, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("storage initialized", slog.String("type", cfg.Storage.Type))

	m := metrics.New()

	petitionOpts := []service.PetitionServiceOption{
		service.WithPetitionStore(st.petitions),
		service.WithFileStore(st.files),
		service.WithStorage(fileStorage),
		service.WithMetrics(m),
		service.WithLogger(log),
	}
	if cfg.Redis.Enabled {
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		petitionOpts = append(petitionOpts, service.WithCache(cache.NewPetitionCache(rdb, cfg.Redis.TTL)))
		log.Info("petition cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	petitionService := service.NewPetitionService(petitionOpts...)
	authService := service.NewAuthService(
		service.WithIdentityProvider(provider),
		service.WithUserStore(st.users),
		service.AuthWithMetrics(m),
		service.AuthWithLogger(log),
	)

	var pinger handlers.Pinger
	if st.db != nil {
		pinger = st.db
	}

	if !cfg.IsLocal() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterDeps{
		Petitions:   handlers.NewPetitionHandler(petitionService, log),
		Files:       handlers.NewFileHandler(petitionService, cfg.HTTP.MaxUploadMB, log),
		Auth:        handlers.NewAuthHandler(authService, log),
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pinger),
		Identity:    provider,
		Profiles:    authService,
		Metrics:     m,
		SignLimiter: middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func initStores(ctx context.Context, cfg *config.Config, fbApp *firebase.App, log *slog.Logger) (*stores, func(), error) {
	switch cfg.App.StoreBackend {
	case config.BackendFirestore:
		client, err := fbApp.Firestore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Firestore: %w", err)
		}
		log.Info("firestore client initialized")
		return &stores{
			petitions: repository.NewFirestorePetitionRepository(client),
			files:     repository.NewFirestoreFileRepository(client),
			users:     repository.NewFirestoreUserRepository(client),
		}, func() { _ = client.Close() }, nil

	default:
		pool, err := initPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		if err := migrations.Up(pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("postgres connection established, schema up to date")
		return &stores{
			petitions: repository.NewPetitionRepository(pool),
			files:     repository.NewFileRepository(pool),
			users:     repository.NewUserRepository(pool),
			db:        pool,
		}, pool.Close, nil
	}
}

func initPostgres(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func initIdentity(ctx context.Context, cfg *config.Config, fbApp *firebase.App, users identity.CredentialStore) (identity.Provider, error) {
	if cfg.Auth.Provider == config.AuthFirebase {
		client, err := fbApp.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Firebase auth: %w", err)
		}
		return identity.NewFirebaseProvider(client, cfg.Firebase.WebAPIKey), nil
	}
	return identity.NewLocalProvider(users, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), nil
}
