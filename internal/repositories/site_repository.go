package repositories

import (
	"context"
	"errors"

	"pam-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SiteRepository struct {
	DB *pgxpool.Pool
}

func NewSiteRepository(db *pgxpool.Pool) *SiteRepository {
	return &SiteRepository{DB: db}
}

const siteColumns = `id, site_code, name, COALESCE(city_name, ''), COALESCE(acronym, ''), is_dead, country_id`

func scanSite(row pgx.Row) (*models.Site, error) {
	var s models.Site
	err := row.Scan(&s.ID, &s.SiteCode, &s.Name, &s.CityName, &s.Acronym, &s.IsDead, &s.CountryID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SiteRepository) SiteByID(ctx context.Context, id int) (*models.Site, error) {
	s, err := scanSite(r.DB.QueryRow(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *SiteRepository) SitesInCountry(ctx context.Context, countryID int) ([]*models.Site, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE country_id=$1 ORDER BY name`, countryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSites(rows)
}

// SiteGrants returns the sites granted to a user via join rows. The user's
// primary site is not included here.
func (r *SiteRepository) SiteGrants(ctx context.Context, userID int) ([]*models.Site, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT s.id, s.site_code, s.name, COALESCE(s.city_name, ''), COALESCE(s.acronym, ''), s.is_dead, s.country_id
         FROM user_sites us
         JOIN sites s ON s.id = us.site_id
         WHERE us.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSites(rows)
}

// TransferTargets lists live sites in the same country as the origin site,
// excluding the origin itself. Used to populate the other-site transfer form.
func (r *SiteRepository) TransferTargets(ctx context.Context, originSiteID int) ([]*models.SiteOption, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT s.id, s.name
         FROM sites s
         JOIN sites origin ON origin.country_id = s.country_id
         WHERE origin.id = $1 AND s.id <> $1 AND NOT s.is_dead
         ORDER BY s.name`, originSiteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []*models.SiteOption
	for rows.Next() {
		var o models.SiteOption
		if err := rows.Scan(&o.SiteID, &o.SiteName); err != nil {
			return nil, err
		}
		options = append(options, &o)
	}
	return options, rows.Err()
}

// SiteCode resolves a site's code for reference-number formatting.
func (r *SiteRepository) SiteCode(ctx context.Context, siteID int) (string, error) {
	var code string
	err := r.DB.QueryRow(ctx, `SELECT site_code FROM sites WHERE id=$1`, siteID).Scan(&code)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return code, err
}

func collectSites(rows pgx.Rows) ([]*models.Site, error) {
	var sites []*models.Site
	for rows.Next() {
		var s models.Site
		if err := rows.Scan(&s.ID, &s.SiteCode, &s.Name, &s.CityName, &s.Acronym, &s.IsDead, &s.CountryID); err != nil {
			return nil, err
		}
		sites = append(sites, &s)
	}
	return sites, rows.Err()
}

// Directory bundles country and site lookups behind the access.Directory
// contract used by the scope resolver.
type Directory struct {
	*CountryRepository
	*SiteRepository
}

func NewDirectory(db *pgxpool.Pool) *Directory {
	return &Directory{
		CountryRepository: NewCountryRepository(db),
		SiteRepository:    NewSiteRepository(db),
	}
}
