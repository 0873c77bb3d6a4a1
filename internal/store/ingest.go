package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"jobmate/vacancy-service/internal/model"
)

const (
	insertCompany = `
		INSERT INTO companies (id, name, vacancies_count)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`

	insertVacancy = `
		INSERT INTO vacancies (company_id, name, salary, link)
		VALUES ($1, $2, $3, $4)`
)

// Ingest writes a batch of vacancy records in one transaction.
//
// Each record inserts its employer into companies unless that id already
// exists, then appends a vacancy row. vacancies_count is the number of
// top-level fields on the record that first introduced the company. The
// batch is validated up front, so a malformed record writes nothing.
func (s *Store) Ingest(ctx context.Context, records []model.VacancyRecord) (model.IngestStats, error) {
	stats := model.IngestStats{Records: len(records)}

	if err := model.ValidateBatch(records); err != nil {
		return stats, err
	}
	if len(records) == 0 {
		return stats, nil
	}

	batch := &pgx.Batch{}
	for i := range records {
		r := &records[i]
		batch.Queue(insertCompany, int64(r.Employer.ID), r.Employer.Name, r.FieldCount())
		batch.Queue(insertVacancy, int64(r.Employer.ID), r.Name, r.SalaryText(), r.AlternateURL)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("ingest begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	br := tx.SendBatch(ctx, batch)
	for i := range records {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return stats, fmt.Errorf("ingest company %d: %w", records[i].Employer.ID, err)
		}
		stats.CompaniesInserted += int(tag.RowsAffected())

		tag, err = br.Exec()
		if err != nil {
			br.Close()
			return stats, fmt.Errorf("ingest vacancy %q: %w", records[i].Name, err)
		}
		stats.VacanciesInserted += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return stats, fmt.Errorf("ingest batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return stats, fmt.Errorf("ingest commit: %w", err)
	}

	s.log.Info().
		Int("records", stats.Records).
		Int("companies_inserted", stats.CompaniesInserted).
		Int("vacancies_inserted", stats.VacanciesInserted).
		Msg("batch ingested")
	return stats, nil
}
