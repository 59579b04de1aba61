package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// PostgresStore persists fingerprints so that evidence reuse is rejected
// across restarts. Inserts rely on ON CONFLICT DO NOTHING, so concurrent
// Record calls for the same fingerprint are safe.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens the fingerprint database and creates the table if missing.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("dedup.Connect: cannot connect to database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(60 * time.Minute)

	_, err = db.Exec(`
	    CREATE TABLE IF NOT EXISTS evidence_fingerprints (
		    fingerprint TEXT PRIMARY KEY,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("dedup.Connect: cannot create table: %w", err)
	}

	return db, nil
}

func (s *PostgresStore) Exists(ctx context.Context, fingerprint string) (bool, error) {
	var count int

	err := s.db.GetContext(ctx, &count, `
	    SELECT COUNT(*) FROM evidence_fingerprints
		WHERE fingerprint = $1
	`, fingerprint)
	if err != nil {
		return false, fmt.Errorf("PostgresStore.Exists: %w", err)
	}

	return count > 0, nil
}

func (s *PostgresStore) Record(ctx context.Context, fingerprint string) error {
	_, err := s.db.ExecContext(ctx, `
	    INSERT INTO evidence_fingerprints (fingerprint)
		VALUES ($1)
		ON CONFLICT (fingerprint) DO NOTHING
	`, fingerprint)
	if err != nil {
		return fmt.Errorf("PostgresStore.Record: %w", err)
	}

	return nil
}
