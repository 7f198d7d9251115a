package access

import (
	"context"

	"pam-backend/internal/models"
)

// Directory is the read-only store the resolver runs against. Lookups by ID
// return (nil, nil) when the row does not exist.
type Directory interface {
	AllCountries(ctx context.Context) ([]*models.Country, error)
	CountryByID(ctx context.Context, id int) (*models.Country, error)
	SitesInCountry(ctx context.Context, countryID int) ([]*models.Site, error)
	SiteByID(ctx context.Context, id int) (*models.Site, error)
	CountryGrants(ctx context.Context, userID int) ([]*models.Country, error)
	SiteGrants(ctx context.Context, userID int) ([]*models.Site, error)
}

// Resolver computes the set of countries and sites a user may see or act on.
// All queries are read-only and idempotent; result ordering is not part of
// the contract.
type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// ResolveCountries returns the countries in the user's scope.
//
// Admin sees everything. Country-scoped roles see their primary country plus
// explicit country grants. Site-scoped roles additionally inherit the country
// of every granted site. A primary country of 0 means unset and contributes
// nothing. Unknown roles see nothing.
func (r *Resolver) ResolveCountries(ctx context.Context, user *models.User) ([]*models.Country, error) {
	switch Role(user.RoleID).Scope() {
	case ScopeAdmin:
		return r.dir.AllCountries(ctx)

	case ScopeCountry:
		countries, err := r.dir.CountryGrants(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		return r.addPrimaryCountry(ctx, user, countries)

	case ScopeSite:
		countries, err := r.dir.CountryGrants(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		sites, err := r.dir.SiteGrants(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		seen := make(map[int]bool, len(countries))
		for _, c := range countries {
			seen[c.ID] = true
		}
		for _, s := range sites {
			if seen[s.CountryID] {
				continue
			}
			c, err := r.dir.CountryByID(ctx, s.CountryID)
			if err != nil {
				return nil, err
			}
			if c != nil {
				countries = append(countries, c)
				seen[c.ID] = true
			}
		}
		return r.addPrimaryCountry(ctx, user, countries)

	default:
		return nil, nil
	}
}

func (r *Resolver) addPrimaryCountry(ctx context.Context, user *models.User, countries []*models.Country) ([]*models.Country, error) {
	if user.CountryID == 0 {
		return countries, nil
	}
	for _, c := range countries {
		if c.ID == user.CountryID {
			return countries, nil
		}
	}
	c, err := r.dir.CountryByID(ctx, user.CountryID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		countries = append(countries, c)
	}
	return countries, nil
}

// ResolveSites returns the sites within countryID the user may access.
// An unknown countryID yields an empty set, not an error.
func (r *Resolver) ResolveSites(ctx context.Context, user *models.User, countryID int) ([]*models.Site, error) {
	switch Role(user.RoleID).Scope() {
	case ScopeAdmin:
		return r.dir.SitesInCountry(ctx, countryID)

	case ScopeCountry:
		countries, err := r.ResolveCountries(ctx, user)
		if err != nil {
			return nil, err
		}
		for _, c := range countries {
			if c.ID == countryID {
				return r.dir.SitesInCountry(ctx, countryID)
			}
		}
		return nil, nil

	case ScopeSite:
		granted, err := r.dir.SiteGrants(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		var sites []*models.Site
		havePrimary := false
		for _, s := range granted {
			if s.CountryID != countryID {
				continue
			}
			sites = append(sites, s)
			if s.ID == user.SiteID {
				havePrimary = true
			}
		}
		// The primary site is always in scope, granted or not.
		if user.SiteID != 0 && !havePrimary {
			s, err := r.dir.SiteByID(ctx, user.SiteID)
			if err != nil {
				return nil, err
			}
			if s != nil && s.CountryID == countryID {
				sites = append(sites, s)
			}
		}
		return sites, nil

	default:
		return nil, nil
	}
}

// HasSiteAccess reports whether the user may read or act on the given site.
func (r *Resolver) HasSiteAccess(ctx context.Context, user *models.User, siteID int) (bool, error) {
	if Role(user.RoleID).Scope() == ScopeAdmin {
		return true, nil
	}
	if user.SiteID != 0 && user.SiteID == siteID {
		return true, nil
	}
	site, err := r.dir.SiteByID(ctx, siteID)
	if err != nil {
		return false, err
	}
	if site == nil {
		return false, nil
	}
	sites, err := r.ResolveSites(ctx, user, site.CountryID)
	if err != nil {
		return false, err
	}
	for _, s := range sites {
		if s.ID == siteID {
			return true, nil
		}
	}
	return false, nil
}
