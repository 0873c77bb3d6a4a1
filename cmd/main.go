// jobmate-vacancy-service
//
// Ingests hh.ru vacancies into PostgreSQL (companies + vacancies tables) and
// serves the analytic queries over them as JSON:
//   - company vacancy counts
//   - all vacancies / keyword search
//   - average salary and vacancies above it
//
// Employers listed in VACANCY_HH_EMPLOYER_IDS are re-ingested on a cron
// schedule; batches can also be pushed to POST /vacancies/ingest.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"jobmate/vacancy-service/internal/api"
	"jobmate/vacancy-service/internal/config"
	"jobmate/vacancy-service/internal/db"
	"jobmate/vacancy-service/internal/events"
	"jobmate/vacancy-service/internal/hh"
	"jobmate/vacancy-service/internal/logger"
	"jobmate/vacancy-service/internal/scheduler"
	"jobmate/vacancy-service/internal/store"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[vacancy-service] Config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("vacancy-service stopped with error")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL ───────────────────────────────────────────────────────────
	log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.Name).Msg("connecting to PostgreSQL")
	st, err := store.Open(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	if err := st.CreateSchema(ctx); err != nil {
		return err
	}
	log.Info().Msg("PostgreSQL connected, schema ready")

	// ── Redis (optional) ─────────────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		rdb, err = db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected, ingest events enabled")
	}
	publisher := events.NewPublisher(rdb, log)

	// ── Scheduler ────────────────────────────────────────────────────────────
	if len(cfg.HH.EmployerIDs) > 0 {
		worker := scheduler.NewWorker(hh.NewFetcher(cfg.HH, log), st, publisher, cfg.HH.Exclude, log)
		sched := scheduler.New(worker, cfg.HH.EmployerIDs, cfg.Scrape.IntervalHours, log)
		if err := sched.Start(ctx, cfg.Scrape.RunOnStart); err != nil {
			return err
		}
		defer sched.Stop()
	} else {
		log.Info().Msg("no employer ids configured, scheduler disabled")
	}

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	api.NewHandler(st, publisher, version, log).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("version", version).Str("port", cfg.Server.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}

	log.Info().Msg("stopped")
	return nil
}
