package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetdev/carhub/internal/cache"
	"github.com/fleetdev/carhub/internal/config"
	"github.com/fleetdev/carhub/internal/db"
	httpx "github.com/fleetdev/carhub/internal/http"
	"github.com/fleetdev/carhub/internal/http/middlewares"
	"github.com/fleetdev/carhub/internal/observability"
	"github.com/fleetdev/carhub/internal/redisclient"
	"github.com/fleetdev/carhub/internal/repo/postgres"

	"github.com/fleetdev/carhub/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// optional tracing
	if cfg.TracingEnabled {
		shutdownTracer, err := observability.InitTracer(context.Background(), "carhub", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(ctx)
		}()
	}

	// migrations run before the pool opens
	if err := db.Migrate(cfg.DBURL); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connection failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	seedCtx, seedCancel := config.WithTimeout(5 * time.Second)

	err = db.EnsureAdminUser(seedCtx, pool, cfg)

	seedCancel()

	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	// metrics
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// login brute-force guard; Redis variant when configured so replicas
	// share one window
	var loginLimiter gin.HandlerFunc

	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})

		pingCtx, pingCancel := config.WithTimeout(2 * time.Second)
		err = rc.Ping(pingCtx)
		pingCancel()

		if err != nil {
			log.Error("redis connection failed", "err", err)
			os.Exit(1)
		}

		defer rc.Close()

		loginLimiter = middlewares.NewRedisRateLimiter(rc.Raw(), 10, time.Minute).Middleware(middlewares.KeyByIP)
	} else {
		loginLimiter = middlewares.NewRateLimiter(10, time.Minute).Middleware(middlewares.KeyByIP)
	}

	ping := func() error {
		ctx, cancel := config.WithTimeout(1 * time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	deps := httpx.Deps{
		Cars:           postgres.NewCarsRepo(pool, prom),
		Users:          postgres.NewUsersRepo(pool, prom),
		JWT:            auth.NewManager(cfg.JWTSecret, cfg.TokenTTL()),
		Prom:           prom,
		ListCache:      cache.New(30 * time.Second),
		LoginLimiter:   loginLimiter,
		Ping:           ping,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	router := httpx.NewRouter(log, cfg, deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
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

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
