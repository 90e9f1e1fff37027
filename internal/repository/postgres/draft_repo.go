package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ticketwizard/internal/domain"
)

type draftRepository struct {
	DB *sql.DB
}

// NewDraftRepository returns a domain.DraftRepository implemented with Postgres.
// It expects the event_form_progress table from Schema.
func NewDraftRepository(db *sql.DB) domain.DraftRepository {
	return &draftRepository{DB: db}
}

// Schema creates the table used by the draft repository.
const Schema = `
	CREATE TABLE IF NOT EXISTS event_form_progress (
		key        TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}

func (r *draftRepository) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT payload FROM event_form_progress
		WHERE key = $1
	`
	var payload []byte
	err := r.DB.QueryRowContext(ctx, query, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return payload, nil
}

func (r *draftRepository) Put(ctx context.Context, key string, payload []byte) error {
	query := `
		INSERT INTO event_form_progress (key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`
	_, err := r.DB.ExecContext(ctx, query, key, payload)
	return err
}

func (r *draftRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM event_form_progress WHERE key = $1`
	_, err := r.DB.ExecContext(ctx, query, key)
	return err
}
