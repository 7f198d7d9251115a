package services

import (
	"context"

	"pam-backend/internal/access"
	"pam-backend/internal/models"
)

// scopeResolver is satisfied by *access.Resolver.
type scopeResolver interface {
	ResolveCountries(ctx context.Context, user *models.User) ([]*models.Country, error)
	ResolveSites(ctx context.Context, user *models.User, countryID int) ([]*models.Site, error)
	HasSiteAccess(ctx context.Context, user *models.User, siteID int) (bool, error)
}

type transferTargetStore interface {
	TransferTargets(ctx context.Context, originSiteID int) ([]*models.SiteOption, error)
}

type subLookupStore interface {
	ListByCountry(ctx context.Context, countryID int) ([]*models.Subcontractor, error)
	ContractNumbers(ctx context.Context, subID, siteID int) ([]*models.SubContractNumber, error)
}

type itemLookupStore interface {
	Search(ctx context.Context, term string) ([]*models.ItemOption, error)
	ListCostCodes(ctx context.Context) ([]*models.CostCode, error)
}

// SiteService exposes the scope and form-lookup queries the UI drives the
// workflow with.
type SiteService struct {
	resolver scopeResolver
	sites    transferTargetStore
	subs     subLookupStore
	items    itemLookupStore
}

func NewSiteService(resolver scopeResolver, sites transferTargetStore, subs subLookupStore, items itemLookupStore) *SiteService {
	return &SiteService{resolver: resolver, sites: sites, subs: subs, items: items}
}

// UserCountries lists the countries in the caller's scope.
func (s *SiteService) UserCountries(ctx context.Context, user *models.User) ([]*models.Country, error) {
	return s.resolver.ResolveCountries(ctx, user)
}

// UserSites lists the sites of a country the caller may access.
func (s *SiteService) UserSites(ctx context.Context, user *models.User, countryID int) ([]*models.Site, error) {
	return s.resolver.ResolveSites(ctx, user, countryID)
}

// TransferTargets lists the live same-country sites material can be sent to
// from the caller's own site.
func (s *SiteService) TransferTargets(ctx context.Context, user *models.User) ([]*models.SiteOption, error) {
	if !access.Role(user.RoleID).CanIssueStock() || user.SiteID == 0 {
		return nil, ErrForbidden
	}
	return s.sites.TransferTargets(ctx, user.SiteID)
}

// Subcontractors lists the subcontractors selectable in a country.
func (s *SiteService) Subcontractors(ctx context.Context, user *models.User, countryID int) ([]*models.Subcontractor, error) {
	countries, err := s.resolver.ResolveCountries(ctx, user)
	if err != nil {
		return nil, err
	}
	for _, c := range countries {
		if c.ID == countryID {
			return s.subs.ListByCountry(ctx, countryID)
		}
	}
	return nil, ErrForbidden
}

// ContractNumbers lists a subcontractor's contracts at the caller's site.
func (s *SiteService) ContractNumbers(ctx context.Context, user *models.User, subID int) ([]*models.SubContractNumber, error) {
	if user.SiteID == 0 {
		return nil, ErrForbidden
	}
	return s.subs.ContractNumbers(ctx, subID, user.SiteID)
}

// SearchItems answers the request-form item autocomplete.
func (s *SiteService) SearchItems(ctx context.Context, term string) ([]*models.ItemOption, error) {
	if len(term) < 2 {
		return nil, validationf("search term must be at least 2 characters")
	}
	return s.items.Search(ctx, term)
}

func (s *SiteService) CostCodes(ctx context.Context) ([]*models.CostCode, error) {
	return s.items.ListCostCodes(ctx)
}
