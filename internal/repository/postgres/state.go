package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"quickref/internal/domain"
	"quickref/internal/domain/repositories"
)

// StateStore implements repositories.DurableStore as a key/JSONB table.
// An upsert replaces a whole value in one statement, so readers see either
// the old or the new document.
type StateStore struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

var _ repositories.DurableStore = (*StateStore)(nil)

// NewStateStore creates a state store using the given pool.
func NewStateStore(pool *pgxpool.Pool, tables *TableNames, logger *slog.Logger) *StateStore {
	return &StateStore{
		pool:   pool,
		tables: tables,
		logger: logger,
	}
}

// EnsureSchema creates the state table if it does not exist.
func (s *StateStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key        TEXT PRIMARY KEY,
			value      JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, s.tables.State)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.tables.State, err)
	}
	return nil
}

func (s *StateStore) Load(ctx context.Context, key string) ([]byte, bool, error) {
	query := fmt.Sprintf(`SELECT value::text FROM %s WHERE key = $1`, s.tables.State)

	var value string
	err := s.pool.QueryRow(ctx, query, key).Scan(&value)
	if IsPgNoRowsError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *StateStore) Save(ctx context.Context, key string, data []byte) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`, s.tables.State)

	if _, err := s.pool.Exec(ctx, query, key, string(data)); err != nil {
		if IsPgInvalidJSONError(err) {
			return fmt.Errorf("%w: %s is not valid JSON", domain.ErrValidation, key)
		}
		return fmt.Errorf("save %s: %w", key, err)
	}
	s.logger.Debug("state saved", "key", key, "bytes", len(data), "table", s.tables.State)
	return nil
}
