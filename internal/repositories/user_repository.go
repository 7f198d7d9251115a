package repositories

import (
	"context"

	"pam-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, COALESCE(user_code, ''), name, email, password_hash, role_id, country_id, site_id, update_pass, last_login`

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	var u models.User
	err := row.Scan(&u.ID, &u.UserCode, &u.Name, &u.Email, &u.PasswordHash,
		&u.RoleID, &u.CountryID, &u.SiteID, &u.UpdatePass, &u.LastLogin)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	var u models.User
	err := row.Scan(&u.ID, &u.UserCode, &u.Name, &u.Email, &u.PasswordHash,
		&u.RoleID, &u.CountryID, &u.SiteID, &u.UpdatePass, &u.LastLogin)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO users(user_code, name, email, password_hash, role_id, country_id, site_id, update_pass)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING id`,
		u.UserCode, u.Name, u.Email, u.PasswordHash, u.RoleID, u.CountryID, u.SiteID, u.UpdatePass,
	).Scan(&u.ID)
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int) error {
	_, err := r.DB.Exec(ctx, `UPDATE users SET last_login=NOW() WHERE id=$1`, id)
	return err
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int, hash string) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE users SET password_hash=$1, update_pass=TRUE WHERE id=$2`, hash, id)
	return err
}

// ApproversAtSite returns users at a site holding any of the given roles.
// Used to find transfer-notification recipients.
func (r *UserRepository) ApproversAtSite(ctx context.Context, siteID int, roleIDs ...int) ([]*models.User, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE site_id=$1 AND role_id = ANY($2)`,
		siteID, roleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.UserCode, &u.Name, &u.Email, &u.PasswordHash,
			&u.RoleID, &u.CountryID, &u.SiteID, &u.UpdatePass, &u.LastLogin); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}
