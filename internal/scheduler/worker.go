package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"jobmate/vacancy-service/internal/logger"
	"jobmate/vacancy-service/internal/model"
)

// Source supplies vacancy records for an employer.
type Source interface {
	Fetch(ctx context.Context, employerID int64) ([]model.VacancyRecord, error)
}

// Ingester persists a batch of records.
type Ingester interface {
	Ingest(ctx context.Context, records []model.VacancyRecord) (model.IngestStats, error)
}

// Notifier is told about every successful ingest.
type Notifier interface {
	Ingested(ctx context.Context, source string, employerID int64, stats model.IngestStats)
}

// Worker runs one fetch-filter-ingest cycle for a single employer.
type Worker struct {
	source   Source
	store    Ingester
	notifier Notifier
	exclude  []string
	log      zerolog.Logger
}

// NewWorker constructs a Worker. notifier may be nil.
func NewWorker(source Source, store Ingester, notifier Notifier, exclude []string, log zerolog.Logger) *Worker {
	return &Worker{
		source:   source,
		store:    store,
		notifier: notifier,
		exclude:  exclude,
		log:      logger.Component(log, "worker"),
	}
}

// Run fetches the employer's vacancies, drops excluded ones and ingests the
// rest as one batch.
func (w *Worker) Run(ctx context.Context, employerID int64) (model.IngestStats, error) {
	records, err := w.source.Fetch(ctx, employerID)
	if err != nil {
		return model.IngestStats{}, fmt.Errorf("fetch employer %d: %w", employerID, err)
	}

	kept := make([]model.VacancyRecord, 0, len(records))
	for _, r := range records {
		employerName := ""
		if r.Employer != nil {
			employerName = r.Employer.Name
		}
		if ContainsExcluded(r.Name, employerName, w.exclude) {
			continue
		}
		kept = append(kept, r)
	}
	filtered := len(records) - len(kept)

	if len(kept) == 0 {
		w.log.Info().Int64("employer_id", employerID).Int("filtered", filtered).Msg("nothing to ingest")
		return model.IngestStats{}, nil
	}

	stats, err := w.store.Ingest(ctx, kept)
	if err != nil {
		return stats, fmt.Errorf("ingest employer %d: %w", employerID, err)
	}

	if w.notifier != nil {
		w.notifier.Ingested(ctx, "scheduler", employerID, stats)
	}

	w.log.Info().
		Int64("employer_id", employerID).
		Int("fetched", len(records)).
		Int("filtered", filtered).
		Int("vacancies_inserted", stats.VacanciesInserted).
		Int("companies_inserted", stats.CompaniesInserted).
		Msg("employer done")
	return stats, nil
}
