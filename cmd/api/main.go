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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geocoder89/devdeck/internal/auth"
	"github.com/geocoder89/devdeck/internal/cache"
	"github.com/geocoder89/devdeck/internal/config"
	"github.com/geocoder89/devdeck/internal/db"
	httpx "github.com/geocoder89/devdeck/internal/http"
	"github.com/geocoder89/devdeck/internal/http/middlewares"
	"github.com/geocoder89/devdeck/internal/observability"
	"github.com/geocoder89/devdeck/internal/repo/postgres"
	"github.com/geocoder89/devdeck/internal/service"
	"github.com/geocoder89/devdeck/internal/storage"
)

const localUploadsDir = "./uploads"

func main() {
	// Load the config set up
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("prod").Error("config load failed", "err", err)
		os.Exit(1)
	}

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx := context.Background()

	if cfg.OTELEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "devdeck-api",
			Env:         cfg.Env,
			Endpoint:    cfg.OTELEndpoint,
			SampleRatio: cfg.OTELSampleRatio,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				sctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(sctx)
			}()
		}
	}

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, log); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	projectsRepo := postgres.NewProjectsRepo(pool, prom)
	messagesRepo := postgres.NewMessagesRepo(pool, prom)
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	if err := db.EnsureAdminUser(ctx, usersRepo, cfg, log); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	ready := map[string]func(context.Context) error{
		"postgres": pool.Ping,
	}

	// portfolio cache and login rate limits: redis when configured, in-process otherwise
	var (
		cacheStore  cache.Store
		rateCounter middlewares.WindowCounter
	)
	if cfg.RedisEnabled() {
		rdb := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		rc := cache.NewRedis(rdb, "devdeck:")
		cacheStore = rc
		rateCounter = rc
		ready["redis"] = rc.Ping
	} else {
		cacheStore = cache.NewMemory(cfg.PortfolioCacheTTL)
	}
	portfolioCache := cache.NewPortfolioCache(cacheStore, cfg.PortfolioCacheTTL, prom, log)

	// image storage: minio when configured, local disk otherwise
	var (
		objects    storage.ObjectStore
		uploadsDir string
	)
	if cfg.StorageEnabled() {
		m, err := storage.NewMinio(ctx, storage.MinioConfig{
			Endpoint:      cfg.Storage.Endpoint,
			AccessKey:     cfg.Storage.AccessKey,
			SecretKey:     cfg.Storage.SecretKey,
			UseSSL:        cfg.Storage.UseSSL,
			Bucket:        cfg.Storage.Bucket,
			PublicBaseURL: cfg.Storage.PublicBaseURL,
		}, log)
		if err != nil {
			log.Error("object storage init failed", "err", err)
			os.Exit(1)
		}
		objects = m
		ready["minio"] = m.Ping
	} else {
		d, err := storage.NewDisk(localUploadsDir, "/uploads")
		if err != nil {
			log.Error("upload dir init failed", "err", err)
			os.Exit(1)
		}
		objects = d
		uploadsDir = d.Dir()
	}

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	projects := service.NewProjectService(projectsRepo, portfolioCache, log)

	router := httpx.NewRouter(httpx.Dependencies{
		Config:      cfg,
		Log:         log,
		Prom:        prom,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Tokens:      tokens,
		Auth:        service.NewAuthService(usersRepo, tokens, log),
		Users:       service.NewUserService(usersRepo, projectsRepo, portfolioCache, log),
		Projects:    projects,
		Messages:    service.NewMessageService(messagesRepo, usersRepo, jobsRepo, log),
		Admin:       service.NewAdminService(usersRepo, projects, portfolioCache, log),
		AdminJobs:   service.NewAdminJobsService(jobsRepo, log),
		Uploads:     service.NewUploadService(objects, cfg.Storage.MaxUploadBytes, log),
		UploadsDir:  uploadsDir,
		RateCounter: rateCounter,
		ReadyChecks: ready,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
