// Package db provides database connection helpers.
package db

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"jobmate/vacancy-service/internal/config"
	"jobmate/vacancy-service/internal/logger"
)

const pingTimeout = 10 * time.Second

// DSN builds a postgres:// connection string from cfg.
func DSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

// NewPostgresConn opens a single connection and verifies it with a ping.
// SQL is traced to log when it is at debug level or lower.
func NewPostgresConn(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*pgx.Conn, error) {
	connCfg, err := pgx.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("pgx.ParseConfig: %w", err)
	}
	if tr := logger.QueryTracer(log); tr != nil {
		connCfg.Tracer = tr
	}

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, fmt.Errorf("pgx.ConnectConfig: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		conn.Close(context.Background())
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return conn, nil
}
