package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"jobmate/vacancy-service/internal/model"
)

const selectVacancyRows = `
	SELECT c.name, v.name, v.salary, COALESCE(v.link, '')
	FROM vacancies v
	INNER JOIN companies c ON v.company_id = c.id`

// CompanyVacancyCounts returns every company with its stored vacancies_count.
func (s *Store) CompanyVacancyCounts(ctx context.Context) ([]model.CompanyCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.conn.Query(ctx, `SELECT name, vacancies_count FROM companies`)
	if err != nil {
		return nil, fmt.Errorf("company counts query: %w", err)
	}

	counts, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.CompanyCount])
	if err != nil {
		return nil, fmt.Errorf("company counts scan: %w", err)
	}
	if counts == nil {
		counts = make([]model.CompanyCount, 0)
	}
	return counts, nil
}

// AllVacancies returns every vacancy joined to its company. Vacancies with no
// matching company row are left out.
func (s *Store) AllVacancies(ctx context.Context) ([]model.VacancyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queryVacancies(ctx, "all vacancies", selectVacancyRows)
}

// AverageSalary returns the mean of every non-null salary. ok is false when
// no vacancy has a salary. A salary that does not parse as an integer once
// spaces are removed fails with model.ErrInvalidSalary.
func (s *Store) AverageSalary(ctx context.Context) (avg float64, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.averageSalary(ctx)
}

func (s *Store) averageSalary(ctx context.Context) (float64, bool, error) {
	rows, err := s.conn.Query(ctx, `SELECT salary FROM vacancies WHERE salary IS NOT NULL`)
	if err != nil {
		return 0, false, fmt.Errorf("average salary query: %w", err)
	}

	salaries, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return 0, false, fmt.Errorf("average salary scan: %w", err)
	}

	avg, ok, err := model.MeanSalary(salaries)
	if err != nil {
		return 0, false, fmt.Errorf("average salary: %w", err)
	}
	return avg, ok, nil
}

// AboveAverageSalary returns the vacancies whose salary is strictly greater
// than AverageSalary.
func (s *Store) AboveAverageSalary(ctx context.Context) ([]model.VacancyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	avg, ok, err := s.averageSalary(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return make([]model.VacancyRow, 0), nil
	}

	rows, err := s.queryVacancies(ctx, "above average", selectVacancyRows+` WHERE v.salary IS NOT NULL`)
	if err != nil {
		return nil, err
	}

	above, err := model.AboveSalary(rows, avg)
	if err != nil {
		return nil, fmt.Errorf("above average: %w", err)
	}
	return above, nil
}

// SearchByKeyword returns the vacancies whose name contains keyword,
// ignoring case. An empty keyword matches everything.
func (s *Store) SearchByKeyword(ctx context.Context, keyword string) ([]model.VacancyRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.queryVacancies(ctx, "keyword search",
		selectVacancyRows+` WHERE LOWER(v.name) LIKE LOWER($1)`,
		"%"+escapeLike(keyword)+"%",
	)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes keyword match literally inside a LIKE pattern.
func escapeLike(keyword string) string {
	return likeEscaper.Replace(keyword)
}

func (s *Store) queryVacancies(ctx context.Context, op, query string, args ...any) ([]model.VacancyRow, error) {
	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", op, err)
	}
	defer rows.Close()

	out := make([]model.VacancyRow, 0)
	for rows.Next() {
		var v model.VacancyRow
		if err := rows.Scan(&v.CompanyName, &v.VacancyName, &v.Salary, &v.Link); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return out, nil
}
