package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tgstorefront/internal/domain"
)

// HandoffRepo implements repository.HandoffStore on top of PostgreSQL.
// Safe to share between several server instances.
type HandoffRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewHandoffRepo creates a new handoff repository
func NewHandoffRepo(db *sql.DB) *HandoffRepo {
	return &HandoffRepo{db: db, now: time.Now}
}

// Set removes expired codes and stores a new one
func (r *HandoffRepo) Set(ctx context.Context, code string, record domain.HandoffRecord) error {
	if _, err := r.Sweep(ctx); err != nil {
		return err
	}

	user, err := json.Marshal(record.User)
	if err != nil {
		return fmt.Errorf("failed to encode handoff user: %w", err)
	}

	query := `
		INSERT INTO handoff_codes (code, user_payload, created_at_ms, expires_at_ms)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code)
		DO UPDATE SET user_payload = $2, created_at_ms = $3, expires_at_ms = $4
	`
	if _, err := r.db.ExecContext(ctx, query, code, user, record.CreatedAtMs, record.ExpiresAtMs); err != nil {
		return fmt.Errorf("failed to store handoff code: %w", err)
	}
	return nil
}

// Consume removes expired codes, then deletes and returns the code in one statement
func (r *HandoffRepo) Consume(ctx context.Context, code string) (*domain.HandoffRecord, error) {
	if _, err := r.Sweep(ctx); err != nil {
		return nil, err
	}

	query := `
		DELETE FROM handoff_codes
		WHERE code = $1 AND expires_at_ms > $2
		RETURNING user_payload, created_at_ms, expires_at_ms
	`

	var (
		rec  domain.HandoffRecord
		user []byte
	)
	err := r.db.QueryRowContext(ctx, query, code, r.now().UnixMilli()).Scan(&user, &rec.CreatedAtMs, &rec.ExpiresAtMs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to consume handoff code: %w", err)
	}

	if err := json.Unmarshal(user, &rec.User); err != nil {
		return nil, fmt.Errorf("failed to decode handoff user: %w", err)
	}

	return &rec, nil
}

// Sweep deletes expired codes and returns how many were removed
func (r *HandoffRepo) Sweep(ctx context.Context) (int64, error) {
	query := `DELETE FROM handoff_codes WHERE expires_at_ms <= $1`
	result, err := r.db.ExecContext(ctx, query, r.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep handoff codes: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return removed, nil
}
