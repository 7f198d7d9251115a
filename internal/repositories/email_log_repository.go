package repositories

import (
	"context"

	"pam-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type EmailLogRepository struct {
	DB *pgxpool.Pool
}

func NewEmailLogRepository(db *pgxpool.Pool) *EmailLogRepository {
	return &EmailLogRepository{DB: db}
}

func (r *EmailLogRepository) Create(ctx context.Context, log *models.EmailLog) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO email_logs (to_addrs, cc_addrs, subject, status, error, created_at)
         VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		log.ToAddrs, log.CcAddrs, log.Subject, log.Status, log.Error, log.CreatedAt).
		Scan(&log.ID)
}

func (r *EmailLogRepository) Recent(ctx context.Context, limit int) ([]*models.EmailLog, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, to_addrs, COALESCE(cc_addrs,''), subject, status, COALESCE(error,''), created_at
         FROM email_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.EmailLog
	for rows.Next() {
		var l models.EmailLog
		if err := rows.Scan(&l.ID, &l.ToAddrs, &l.CcAddrs, &l.Subject, &l.Status,
			&l.Error, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
