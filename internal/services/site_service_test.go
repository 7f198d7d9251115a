package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pam-backend/internal/access"
	"pam-backend/internal/models"
	"pam-backend/internal/services"
)

type fakeResolver struct {
	countries []*models.Country
}

func (f *fakeResolver) ResolveCountries(ctx context.Context, user *models.User) ([]*models.Country, error) {
	return f.countries, nil
}

func (f *fakeResolver) ResolveSites(ctx context.Context, user *models.User, countryID int) ([]*models.Site, error) {
	return nil, nil
}

func (f *fakeResolver) HasSiteAccess(ctx context.Context, user *models.User, siteID int) (bool, error) {
	return true, nil
}

type fakeTransferTargets struct {
	byOrigin map[int][]*models.SiteOption
}

func (f *fakeTransferTargets) TransferTargets(ctx context.Context, originSiteID int) ([]*models.SiteOption, error) {
	return f.byOrigin[originSiteID], nil
}

type fakeSubLookup struct {
	byCountry map[int][]*models.Subcontractor
	contracts map[[2]int][]*models.SubContractNumber
}

func (f *fakeSubLookup) ListByCountry(ctx context.Context, countryID int) ([]*models.Subcontractor, error) {
	return f.byCountry[countryID], nil
}

func (f *fakeSubLookup) ContractNumbers(ctx context.Context, subID, siteID int) ([]*models.SubContractNumber, error) {
	return f.contracts[[2]int{subID, siteID}], nil
}

type fakeItemLookup struct {
	options   []*models.ItemOption
	costCodes []*models.CostCode
}

func (f *fakeItemLookup) Search(ctx context.Context, term string) ([]*models.ItemOption, error) {
	var out []*models.ItemOption
	for _, o := range f.options {
		if strings.Contains(strings.ToLower(o.Text), strings.ToLower(term)) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeItemLookup) ListCostCodes(ctx context.Context) ([]*models.CostCode, error) {
	return f.costCodes, nil
}

func newSiteService() *services.SiteService {
	resolver := &fakeResolver{countries: []*models.Country{{ID: 1, Name: "Lebanon"}}}
	targets := &fakeTransferTargets{byOrigin: map[int][]*models.SiteOption{
		5: {{SiteID: 6, SiteName: "Tripoli North"}},
	}}
	subs := &fakeSubLookup{
		byCountry: map[int][]*models.Subcontractor{
			1: {{ID: 7, Name: "Al Bina Contracting"}},
		},
		contracts: map[[2]int][]*models.SubContractNumber{
			{7, 5}: {{ID: 3, SubID: 7, SiteID: 5, ContractNumber: "CN-2024-031"}},
		},
	}
	items := &fakeItemLookup{
		options: []*models.ItemOption{
			{Value: "1", Text: "Cement 42.5"},
			{Value: "2", Text: "Rebar 12mm"},
		},
	}
	return services.NewSiteService(resolver, targets, subs, items)
}

func TestTransferTargetsNeedIssuingRoleAndSite(t *testing.T) {
	svc := newSiteService()

	targets, err := svc.TransferTargets(context.Background(), siteUser(int(access.RoleSiteUser), 5))
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "Tripoli North", targets[0].SiteName)

	_, err = svc.TransferTargets(context.Background(), siteUser(int(access.RoleOperations), 5))
	assert.ErrorIs(t, err, services.ErrForbidden)

	_, err = svc.TransferTargets(context.Background(), siteUser(int(access.RoleSiteUser), 0))
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestSubcontractorsScopedToResolvedCountries(t *testing.T) {
	svc := newSiteService()
	user := siteUser(int(access.RoleSiteUser), 5)

	subs, err := svc.Subcontractors(context.Background(), user, 1)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	_, err = svc.Subcontractors(context.Background(), user, 2)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestContractNumbersUseCallersSite(t *testing.T) {
	svc := newSiteService()

	nums, err := svc.ContractNumbers(context.Background(), siteUser(int(access.RoleSiteUser), 5), 7)
	require.NoError(t, err)
	require.Len(t, nums, 1)
	assert.Equal(t, "CN-2024-031", nums[0].ContractNumber)

	nums, err = svc.ContractNumbers(context.Background(), siteUser(int(access.RoleSiteUser), 6), 7)
	require.NoError(t, err)
	assert.Empty(t, nums)

	_, err = svc.ContractNumbers(context.Background(), siteUser(int(access.RoleSiteUser), 0), 7)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestSearchItemsMinimumTerm(t *testing.T) {
	svc := newSiteService()

	var vErr *services.ValidationError
	_, err := svc.SearchItems(context.Background(), "c")
	assert.ErrorAs(t, err, &vErr)

	found, err := svc.SearchItems(context.Background(), "ceme")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Cement 42.5", found[0].Text)
}
