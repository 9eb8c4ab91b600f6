// Package postgres implements the ledger snapshot store on PostgreSQL via
// pgx. Each ledger snapshot is one JSONB row keyed by snapshot name,
// rewritten wholesale on every save.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ZanKramar/polymarket-trading/internal/domain"
)

const (
	positionsSnapshot   = "positions"
	paperTradesSnapshot = "paper_trades"
)

const schema = `
	CREATE TABLE IF NOT EXISTS ledger_snapshots (
		name       TEXT PRIMARY KEY,
		data       JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

// ClientConfig holds connection parameters for the PostgreSQL client.
type ClientConfig struct {
	DSN      string
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int
}

// DSN builds a PostgreSQL connection string from the given config. An
// explicit DSN wins over the individual fields.
func DSN(cfg ClientConfig) string {
	if strings.TrimSpace(cfg.DSN) != "" {
		return cfg.DSN
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, port, cfg.Database, sslMode,
	)
}

// Store persists ledger snapshots in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a connection pool, verifies connectivity, and ensures the
// snapshot table exists.
func New(ctx context.Context, cfg ClientConfig) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ensure schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// LoadPositions reads the positions snapshot. A missing row yields an empty
// map.
func (s *Store) LoadPositions(ctx context.Context) (map[string]domain.Position, error) {
	out := make(map[string]domain.Position)
	if err := s.load(ctx, positionsSnapshot, &out); err != nil {
		return nil, fmt.Errorf("postgres: load positions: %w", err)
	}
	return out, nil
}

// SavePositions rewrites the whole positions snapshot.
func (s *Store) SavePositions(ctx context.Context, positions map[string]domain.Position) error {
	if err := s.save(ctx, positionsSnapshot, positions); err != nil {
		return fmt.Errorf("postgres: save positions: %w", err)
	}
	return nil
}

// LoadPaperTrades reads the paper-trade snapshot. A missing row yields an
// empty map.
func (s *Store) LoadPaperTrades(ctx context.Context) (map[string]domain.PaperTrade, error) {
	out := make(map[string]domain.PaperTrade)
	if err := s.load(ctx, paperTradesSnapshot, &out); err != nil {
		return nil, fmt.Errorf("postgres: load paper trades: %w", err)
	}
	return out, nil
}

// SavePaperTrades rewrites the whole paper-trade snapshot.
func (s *Store) SavePaperTrades(ctx context.Context, trades map[string]domain.PaperTrade) error {
	if err := s.save(ctx, paperTradesSnapshot, trades); err != nil {
		return fmt.Errorf("postgres: save paper trades: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, name string, dst any) error {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM ledger_snapshots WHERE name = $1`, name,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

func (s *Store) save(ctx context.Context, name string, src any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO ledger_snapshots (name, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		name, data)
	return err
}
