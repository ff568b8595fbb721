package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/auralis-health/clinical-console/internal/config"
	"github.com/auralis-health/clinical-console/internal/db"
	"github.com/auralis-health/clinical-console/internal/devserver"
	redisclient "github.com/auralis-health/clinical-console/internal/redis"
)

const version = "0.3.0"

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	log.Info().Msg("devserver starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	log.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configured")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	healthDeps := make(map[string]devserver.Pinger)

	var store devserver.Store
	if cfg.PostgresDSN != "" {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connection error")
		}
		defer pool.Close()

		pg := devserver.NewPgStore(pool)
		if err := pg.EnsureSchema(rootCtx); err != nil {
			log.Fatal().Err(err).Msg("schema error")
		}
		store = pg
		healthDeps["postgres"] = pool.Ping
		log.Info().Msg("using postgres store")
	} else {
		store = devserver.NewMemStore()
		log.Info().Msg("using in-memory store")
	}

	var locker redisclient.Locker
	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection error")
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing redis")
			}
		}()
		locker = redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
		healthDeps["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Msg("using redis booking lock")
	}

	router := devserver.NewRouter(devserver.RouterConfig{
		Store:      store,
		Locker:     locker,
		Log:        log,
		Env:        cfg.Env,
		Version:    version,
		HealthDeps: healthDeps,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down devserver")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
