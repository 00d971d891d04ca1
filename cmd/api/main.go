package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/photohub/internal/auth"
	"github.com/geocoder89/photohub/internal/cache"
	"github.com/geocoder89/photohub/internal/classifier"
	"github.com/geocoder89/photohub/internal/config"
	"github.com/geocoder89/photohub/internal/db"
	httpx "github.com/geocoder89/photohub/internal/http"
	"github.com/geocoder89/photohub/internal/http/handlers"
	"github.com/geocoder89/photohub/internal/observability"
	"github.com/geocoder89/photohub/internal/photostore"
	"github.com/geocoder89/photohub/internal/redisclient"
	"github.com/geocoder89/photohub/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownTracer, err := observability.InitTracer(ctx, cfg.AppName, cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	// admin bootstrap runs once before any traffic is accepted
	created, err := db.EnsureAdminUser(ctx, pool, cfg)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg, "photohub")

	jwtManager, err := auth.NewManager(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTTTL())
	if err != nil {
		return err
	}

	photos, err := newPhotoStore(ctx, cfg)
	if err != nil {
		return err
	}

	readyChecks := map[string]handlers.Pinger{"postgres": pool.Ping}

	// nil store: every admin listing goes to postgres
	var listingCache cache.Store
	switch {
	case cfg.RedisAddr != "":
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rc.Close()

		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unreachable, admin cache degrades to misses", "err", err)
		}
		listingCache = cache.NewRedisStore(rc.Raw(), cfg.AdminCacheTTL)
		readyChecks["redis"] = rc.Ping
	case cfg.AdminCacheLocal:
		log.Info("admin listing cache is in-process; run a single API replica")
		listingCache = cache.New(cfg.AdminCacheTTL)
	}

	submissions := cache.NewCachingSubmissions(postgres.NewSubmissionsRepo(pool, prom), listingCache, "photohub:submissions")

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Users:       postgres.NewUsersRepo(pool, prom),
		Submissions: submissions,
		Classifier:  classifier.NewClient(cfg.ClassifierURL, classifier.NewHTTPClient(classifier.DefaultTimeout)),
		Photos:      photos,
		JWT:         jwtManager,
		Prom:        prom,
		Gatherer:    reg,
		ReadyChecks: readyChecks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return serve(log, srv, cfg)
}

func newPhotoStore(ctx context.Context, cfg config.Config) (photostore.Store, error) {
	switch cfg.PhotoBackend {
	case config.PhotoBackendS3:
		client, err := photostore.NewS3Client(ctx, photostore.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
		return photostore.NewS3Store(client, cfg.S3Bucket, cfg.MaxUploadBytes), nil
	case config.PhotoBackendLocal, "":
		return photostore.NewLocalStore(cfg.StoragePath, cfg.MaxUploadBytes), nil
	default:
		return nil, fmt.Errorf("unknown PHOTO_BACKEND %q", cfg.PhotoBackend)
	}
}

func serve(log *slog.Logger, srv *http.Server, cfg config.Config) error {
	errCh := make(chan error, 1)

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	log.Info("server shutting down")

	ctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return err
	}

	log.Info("shutdown complete")
	return nil
}
