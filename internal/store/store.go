// Package store persists companies and vacancies in PostgreSQL and answers
// the analytic queries over them.
//
// A Store owns exactly one connection. Calls are serialized internally so the
// HTTP API and the scheduler can share it.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"jobmate/vacancy-service/internal/config"
	"jobmate/vacancy-service/internal/db"
	"jobmate/vacancy-service/internal/logger"
)

// Store wraps a single PostgreSQL connection.
type Store struct {
	mu   sync.Mutex
	conn *pgx.Conn
	log  zerolog.Logger
}

// New wraps an already open connection. The Store takes ownership of conn.
func New(conn *pgx.Conn, log zerolog.Logger) *Store {
	return &Store{conn: conn, log: logger.Component(log, "store")}
}

// Open connects to the database described by cfg.
func Open(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*Store, error) {
	conn, err := db.NewPostgresConn(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return New(conn, log), nil
}

// Close releases the connection.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Close(ctx); err != nil {
		return fmt.Errorf("close connection: %w", err)
	}
	return nil
}

const (
	createCompaniesTable = `
		CREATE TABLE IF NOT EXISTS companies (
			id              INTEGER PRIMARY KEY,
			name            VARCHAR(255) NOT NULL,
			vacancies_count INTEGER
		)`

	createVacanciesTable = `
		CREATE TABLE IF NOT EXISTS vacancies (
			id         SERIAL PRIMARY KEY,
			company_id INTEGER REFERENCES companies(id),
			name       VARCHAR(255) NOT NULL,
			salary     VARCHAR(100),
			link       VARCHAR(255)
		)`
)

// CreateSchema creates the companies and vacancies tables if they are absent.
// It is safe to call on every startup.
func (s *Store) CreateSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range []string{createCompaniesTable, createVacanciesTable} {
		if _, err := s.conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	s.log.Debug().Msg("schema ready")
	return nil
}
