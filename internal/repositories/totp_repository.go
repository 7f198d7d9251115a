package repositories

import (
	"context"
	"errors"
	"time"

	"pam-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TOTPRepository struct {
	DB *pgxpool.Pool
}

func NewTOTPRepository(db *pgxpool.Pool) *TOTPRepository {
	return &TOTPRepository{DB: db}
}

func (r *TOTPRepository) Get(ctx context.Context, userID int) (*models.UserTOTP, error) {
	var t models.UserTOTP
	err := r.DB.QueryRow(ctx,
		`SELECT user_id, secret, enabled, created_at FROM user_totp WHERE user_id=$1`,
		userID).Scan(&t.UserID, &t.Secret, &t.Enabled, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert stores a fresh secret, resetting enabled until the user confirms.
func (r *TOTPRepository) Upsert(ctx context.Context, userID int, secret string) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO user_totp (user_id, secret, enabled, created_at)
         VALUES ($1, $2, false, $3)
         ON CONFLICT (user_id) DO UPDATE SET
           secret = EXCLUDED.secret, enabled = false, created_at = EXCLUDED.created_at`,
		userID, secret, time.Now())
	return err
}

func (r *TOTPRepository) Enable(ctx context.Context, userID int) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE user_totp SET enabled=true WHERE user_id=$1`, userID)
	return err
}
