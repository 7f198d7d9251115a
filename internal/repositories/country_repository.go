package repositories

import (
	"context"
	"errors"

	"pam-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CountryRepository struct {
	DB *pgxpool.Pool
}

func NewCountryRepository(db *pgxpool.Pool) *CountryRepository {
	return &CountryRepository{DB: db}
}

func (r *CountryRepository) AllCountries(ctx context.Context) ([]*models.Country, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, code, name, COALESCE(ops_email, '') FROM countries ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countries []*models.Country
	for rows.Next() {
		var c models.Country
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.OpsEmail); err != nil {
			return nil, err
		}
		countries = append(countries, &c)
	}
	return countries, rows.Err()
}

func (r *CountryRepository) CountryByID(ctx context.Context, id int) (*models.Country, error) {
	var c models.Country
	err := r.DB.QueryRow(ctx,
		`SELECT id, code, name, COALESCE(ops_email, '') FROM countries WHERE id=$1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.OpsEmail)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountryGrants returns the countries granted to a user via join rows.
// The user's primary country is not included here.
func (r *CountryRepository) CountryGrants(ctx context.Context, userID int) ([]*models.Country, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT c.id, c.code, c.name, COALESCE(c.ops_email, '')
         FROM user_countries uc
         JOIN countries c ON c.id = uc.country_id
         WHERE uc.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countries []*models.Country
	for rows.Next() {
		var c models.Country
		if err := rows.Scan(&c.ID, &c.Code, &c.Name, &c.OpsEmail); err != nil {
			return nil, err
		}
		countries = append(countries, &c)
	}
	return countries, rows.Err()
}
