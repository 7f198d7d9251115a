package repositories

import (
	"context"
	"errors"

	"pam-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubcontractorRepository struct {
	DB *pgxpool.Pool
}

func NewSubcontractorRepository(db *pgxpool.Pool) *SubcontractorRepository {
	return &SubcontractorRepository{DB: db}
}

// ListByCountry returns subcontractors available in a country: country-bound
// rows plus global rows (country_id = 0). The "Returned to Supplier" sentinel
// row is a PO-return artifact and is excluded from selection lists.
func (r *SubcontractorRepository) ListByCountry(ctx context.Context, countryID int) ([]*models.Subcontractor, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, name, country_id
         FROM subcontractors
         WHERE name <> 'Returned to Supplier' AND (country_id = $1 OR country_id = 0)
         ORDER BY name`, countryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*models.Subcontractor
	for rows.Next() {
		var s models.Subcontractor
		if err := rows.Scan(&s.ID, &s.Name, &s.CountryID); err != nil {
			return nil, err
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}

func (r *SubcontractorRepository) Name(ctx context.Context, subID int) (string, error) {
	var name string
	err := r.DB.QueryRow(ctx, `SELECT name FROM subcontractors WHERE id=$1`, subID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return name, err
}

// ContractNumbers returns a subcontractor's contract numbers at a site.
func (r *SubcontractorRepository) ContractNumbers(ctx context.Context, subID, siteID int) ([]*models.SubContractNumber, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, sub_id, site_id, contract_number
         FROM sub_contract_numbers
         WHERE sub_id=$1 AND site_id=$2
         ORDER BY contract_number`, subID, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nums []*models.SubContractNumber
	for rows.Next() {
		var n models.SubContractNumber
		if err := rows.Scan(&n.ID, &n.SubID, &n.SiteID, &n.ContractNumber); err != nil {
			return nil, err
		}
		nums = append(nums, &n)
	}
	return nums, rows.Err()
}

func (r *SubcontractorRepository) ContractNumber(ctx context.Context, numID int) (string, error) {
	var num string
	err := r.DB.QueryRow(ctx,
		`SELECT contract_number FROM sub_contract_numbers WHERE id=$1`, numID).Scan(&num)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return num, err
}
