package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telemetryhub/relay/internal/domain"
)

// PgStore keeps each queue record as one row in the relay_blobs table
// (see migrations/). SQLSTATE 53100 (disk_full) is the Postgres equivalent
// of a quota-exceeded write and maps to domain.ErrQuotaExceeded.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Read(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM relay_blobs WHERE key = $1`, key).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return blob, nil
}

func (s *PgStore) Write(ctx context.Context, key string, blob []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO relay_blobs (key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE
			SET payload = EXCLUDED.payload, updated_at = now()`,
		key, blob,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.DiskFull {
			return fmt.Errorf("database disk full: %w", domain.ErrQuotaExceeded)
		}
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func (s *PgStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM relay_blobs WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

var _ Store = (*PgStore)(nil)
