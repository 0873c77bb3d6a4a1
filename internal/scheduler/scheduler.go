// Package scheduler wires up the cron job that periodically pulls vacancies
// for every configured employer and ingests them.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"jobmate/vacancy-service/internal/logger"
)

// Scheduler wraps robfig/cron and manages the ingest loop.
type Scheduler struct {
	cron        *cron.Cron
	worker      *Worker
	employerIDs []int64
	spec        string // cron spec, e.g. "@every 6h"
	log         zerolog.Logger

	// startup tracks the run-on-start cycle, which cron does not own.
	startup sync.WaitGroup
}

// New creates a Scheduler that fires every intervalHours hours.
func New(worker *Worker, employerIDs []int64, intervalHours int, log zerolog.Logger) *Scheduler {
	log = logger.Component(log, "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{log: log}),
			cron.WithChain(cron.SkipIfStillRunning(cronLogger{log: log})),
		),
		worker:      worker,
		employerIDs: employerIDs,
		spec:        fmt.Sprintf("@every %dh", intervalHours),
		log:         log,
	}
}

// Start registers the job and starts the scheduler. When runNow is set one
// cycle also runs immediately so the tables fill without waiting for the
// first tick.
func (s *Scheduler) Start(ctx context.Context, runNow bool) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Int("employers", len(s.employerIDs)).Msg("cron started")

	if runNow {
		s.startup.Add(1)
		go func() {
			defer s.startup.Done()
			s.RunOnce(ctx)
		}()
	}
	return nil
}

// Stop halts the scheduler and waits for any running cycle, including the
// run-on-start one, to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
	s.log.Info().Msg("cron stopped")
}

// RunOnce ingests every configured employer in turn. A failing employer is
// logged and skipped.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.log.Info().Msg("ingest cycle started")

	var failed int
	for _, id := range s.employerIDs {
		if ctx.Err() != nil {
			s.log.Warn().Err(ctx.Err()).Msg("ingest cycle cancelled")
			return
		}
		if _, err := s.worker.Run(ctx, id); err != nil {
			failed++
			s.log.Error().Err(err).Int64("employer_id", id).Msg("employer ingest failed, continuing")
		}
	}

	s.log.Info().Int("employers", len(s.employerIDs)).Int("failed", failed).Msg("ingest cycle complete")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
