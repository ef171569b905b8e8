package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/FangWolf96/corepoint-ingest/internal/config"
)

// TokenRepository loads API tokens and their rate limits from Postgres.
type TokenRepository struct {
	mgr *DB
	dsn string
}

// NewTokenRepository creates a repository bound to the given DSN.
func NewTokenRepository(mgr *DB, dsn string) *TokenRepository {
	return &TokenRepository{mgr: mgr, dsn: dsn}
}

// LoadTokens reads all tokens, ensuring the schema exists first.
func (r *TokenRepository) LoadTokens(ctx context.Context) (map[string]int, error) {
	db, err := r.mgr.Get(r.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open token db: %w", err)
	}
	if err := VerifySchema(db); err != nil {
		return nil, fmt.Errorf("failed to verify token schema: %w", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT token, rate_limit FROM tokens;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var token string
		var limit int
		if err := rows.Scan(&token, &limit); err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		out[token] = limit
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read token rows: %w", err)
	}
	return out, nil
}

func postgresPort(cfg config.PostgresConfig) int {
	if cfg.Port != 0 {
		return cfg.Port
	}
	return 5432
}

// BuildDSN turns a PostgresConfig into a postgres:// DSN. A Host already
// carrying a DSN is passed through unchanged.
func BuildDSN(cfg config.PostgresConfig) (string, error) {
	if strings.HasPrefix(cfg.Host, "postgres://") || strings.HasPrefix(cfg.Host, "postgresql://") {
		return cfg.Host, nil
	}
	if cfg.Host == "" {
		return "", fmt.Errorf("postgres host is empty")
	}
	if cfg.Database == "" {
		return "", fmt.Errorf("postgres database is empty")
	}
	if cfg.User == "" {
		return "", fmt.Errorf("postgres user is empty")
	}

	hostPort := cfg.Host
	port := postgresPort(cfg)
	// Handle IPv6 or explicit host:port strings.
	if strings.HasPrefix(hostPort, "[") {
		if !strings.Contains(hostPort, "]:") {
			hostPort = fmt.Sprintf("%s:%d", hostPort, port)
		}
	} else if strings.Count(hostPort, ":") >= 2 {
		hostPort = fmt.Sprintf("[%s]:%d", hostPort, port)
	} else if !strings.Contains(hostPort, ":") {
		hostPort = fmt.Sprintf("%s:%d", hostPort, port)
	}

	u := &url.URL{Scheme: "postgres", Host: hostPort, Path: "/" + cfg.Database}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}
	q := u.Query()
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
