package postgres

import (
	"context"
	"database/sql"

	"tgstorefront/internal/domain"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// RecordLogin creates the user or refreshes its username and last login time
func (r *UserRepo) RecordLogin(ctx context.Context, user domain.TelegramUser) error {
	query := `
		INSERT INTO users (user_id, username, last_login_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET username = $2, last_login_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, user.ID(), user.Username())
	return err
}
