// Package postgres implements the identity store on PostgreSQL, for
// deployments that keep identity records in their own database instead
// of DynamoDB.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/fault"
	"github.com/facegate/facegate/internal/identity"
)

// Pool manages a PostgreSQL connection pool.
type Pool struct {
	db *sql.DB
}

// NewPool creates a new PostgreSQL connection pool.
func NewPool(cfg *config.DatabaseConfig) (*Pool, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{db: db}, nil
}

// Migrate creates the identities table if it does not exist.
func (p *Pool) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS identities (
			face_id      VARCHAR(255) PRIMARY KEY,
			name         TEXT NOT NULL,
			email        TEXT NOT NULL,
			organization TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create identities table: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Pool) Close() error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}

// Store adapts the identities table to the identity.Store contract.
type Store struct {
	pool *Pool
}

// NewStore creates a store over the given pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Put creates or overwrites the record keyed by its faceId.
func (s *Store) Put(ctx context.Context, rec identity.Record) error {
	_, err := s.pool.db.ExecContext(ctx, `
		INSERT INTO identities (face_id, name, email, organization)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (face_id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, organization = EXCLUDED.organization
	`, rec.FaceID, rec.Attributes.Name, rec.Attributes.Email, rec.Attributes.Organization)
	if err != nil {
		return fault.Wrap(err, fault.CodeService, fmt.Sprintf("putting identity record %s", rec.FaceID))
	}
	return nil
}

// Get returns the record for faceID, or nil when no row exists.
func (s *Store) Get(ctx context.Context, faceID string) (*identity.Record, error) {
	rec := &identity.Record{FaceID: faceID}
	err := s.pool.db.QueryRowContext(ctx, `
		SELECT name, email, organization FROM identities WHERE face_id = $1
	`, faceID).Scan(&rec.Attributes.Name, &rec.Attributes.Email, &rec.Attributes.Organization)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fault.Wrap(err, fault.CodeService, fmt.Sprintf("getting identity record %s", faceID))
	}
	return rec, nil
}

// Delete removes the record for faceID; deleting an absent row is a no-op.
func (s *Store) Delete(ctx context.Context, faceID string) error {
	_, err := s.pool.db.ExecContext(ctx, `DELETE FROM identities WHERE face_id = $1`, faceID)
	if err != nil {
		return fault.Wrap(err, fault.CodeService, fmt.Sprintf("deleting identity record %s", faceID))
	}
	return nil
}
