package access_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pam-backend/internal/access"
	"pam-backend/internal/models"
)

type fakeDirectory struct {
	countries     []*models.Country
	sites         []*models.Site
	countryGrants map[int][]int // userID -> countryIDs
	siteGrants    map[int][]int // userID -> siteIDs
}

func (d *fakeDirectory) AllCountries(ctx context.Context) ([]*models.Country, error) {
	return d.countries, nil
}

func (d *fakeDirectory) CountryByID(ctx context.Context, id int) (*models.Country, error) {
	for _, c := range d.countries {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) SitesInCountry(ctx context.Context, countryID int) ([]*models.Site, error) {
	var out []*models.Site
	for _, s := range d.sites {
		if s.CountryID == countryID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (d *fakeDirectory) SiteByID(ctx context.Context, id int) (*models.Site, error) {
	for _, s := range d.sites {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (d *fakeDirectory) CountryGrants(ctx context.Context, userID int) ([]*models.Country, error) {
	var out []*models.Country
	for _, id := range d.countryGrants[userID] {
		if c, _ := d.CountryByID(ctx, id); c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (d *fakeDirectory) SiteGrants(ctx context.Context, userID int) ([]*models.Site, error) {
	var out []*models.Site
	for _, id := range d.siteGrants[userID] {
		if s, _ := d.SiteByID(ctx, id); s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

// newTestDirectory builds a three-country, five-site org:
// country 1: sites 10, 11; country 2: sites 20, 21; country 3: site 30.
func newTestDirectory() *fakeDirectory {
	return &fakeDirectory{
		countries: []*models.Country{
			{ID: 1, Code: "LB", Name: "Lebanon"},
			{ID: 2, Code: "QA", Name: "Qatar"},
			{ID: 3, Code: "KSA", Name: "Saudi Arabia"},
		},
		sites: []*models.Site{
			{ID: 10, SiteCode: "ABC", CountryID: 1},
			{ID: 11, SiteCode: "DEF", CountryID: 1},
			{ID: 20, SiteCode: "GHI", CountryID: 2},
			{ID: 21, SiteCode: "JKL", CountryID: 2},
			{ID: 30, SiteCode: "MNO", CountryID: 3},
		},
		countryGrants: map[int][]int{},
		siteGrants:    map[int][]int{},
	}
}

func countryIDs(cs []*models.Country) []int {
	out := make([]int, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func siteIDs(ss []*models.Site) []int {
	out := make([]int, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.ID)
	}
	return out
}

func TestResolveCountries_Admin_SeesEverything(t *testing.T) {
	dir := newTestDirectory()
	r := access.NewResolver(dir)
	admin := &models.User{ID: 1, RoleID: int(access.RoleAdmin)}

	countries, err := r.ResolveCountries(context.Background(), admin)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, countryIDs(countries))

	for _, c := range dir.countries {
		sites, err := r.ResolveSites(context.Background(), admin, c.ID)
		require.NoError(t, err)
		expected, _ := dir.SitesInCountry(context.Background(), c.ID)
		assert.ElementsMatch(t, siteIDs(expected), siteIDs(sites))
	}
}

func TestResolveCountries_CountryScoped_PrimaryUnionGrants(t *testing.T) {
	dir := newTestDirectory()
	dir.countryGrants[5] = []int{2, 3}
	r := access.NewResolver(dir)

	user := &models.User{ID: 5, RoleID: int(access.RoleOperations), CountryID: 1}
	countries, err := r.ResolveCountries(context.Background(), user)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, countryIDs(countries))
}

func TestResolveCountries_CountryScoped_PrimaryAlreadyGranted_NoDuplicate(t *testing.T) {
	dir := newTestDirectory()
	dir.countryGrants[5] = []int{1, 2}
	r := access.NewResolver(dir)

	user := &models.User{ID: 5, RoleID: int(access.RoleOperationsManager), CountryID: 1}
	countries, err := r.ResolveCountries(context.Background(), user)
	require.NoError(t, err)
	assert.Len(t, countries, 2)
	assert.ElementsMatch(t, []int{1, 2}, countryIDs(countries))
}

func TestResolveCountries_ZeroPrimary_ContributesNothing(t *testing.T) {
	dir := newTestDirectory()
	dir.countryGrants[5] = []int{2}
	r := access.NewResolver(dir)

	user := &models.User{ID: 5, RoleID: int(access.RoleAccountant), CountryID: 0}
	countries, err := r.ResolveCountries(context.Background(), user)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{2}, countryIDs(countries))
}

func TestResolveCountries_SiteScoped_InheritsGrantedSiteCountries(t *testing.T) {
	dir := newTestDirectory()
	dir.siteGrants[7] = []int{20, 30}
	r := access.NewResolver(dir)

	// Primary country 1 plus countries 2 and 3 through site grants.
	user := &models.User{ID: 7, RoleID: int(access.RoleProjectManager), CountryID: 1, SiteID: 10}
	countries, err := r.ResolveCountries(context.Background(), user)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3}, countryIDs(countries))
}

func TestResolveCountries_UnknownRole_FailsClosed(t *testing.T) {
	dir := newTestDirectory()
	r := access.NewResolver(dir)

	user := &models.User{ID: 9, RoleID: 42, CountryID: 1, SiteID: 10}
	countries, err := r.ResolveCountries(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, countries)

	sites, err := r.ResolveSites(context.Background(), user, 1)
	require.NoError(t, err)
	assert.Empty(t, sites)
}

func TestResolveSites_CountryScoped_WholeCountryOrNothing(t *testing.T) {
	dir := newTestDirectory()
	r := access.NewResolver(dir)

	user := &models.User{ID: 5, RoleID: int(access.RoleGeneralManager), CountryID: 2}

	sites, err := r.ResolveSites(context.Background(), user, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{20, 21}, siteIDs(sites))

	sites, err = r.ResolveSites(context.Background(), user, 1)
	require.NoError(t, err)
	assert.Empty(t, sites)
}

func TestResolveSites_SiteScoped_PrimaryIncludedWithoutGrant(t *testing.T) {
	dir := newTestDirectory()
	dir.siteGrants[4] = []int{11}
	r := access.NewResolver(dir)

	user := &models.User{ID: 4, RoleID: int(access.RoleSiteUser), CountryID: 1, SiteID: 10}
	sites, err := r.ResolveSites(context.Background(), user, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{10, 11}, siteIDs(sites))
}

func TestResolveSites_SiteScoped_GrantFilteredByCountry(t *testing.T) {
	dir := newTestDirectory()
	dir.siteGrants[4] = []int{11, 20}
	r := access.NewResolver(dir)

	user := &models.User{ID: 4, RoleID: int(access.RoleWarehouseManager), CountryID: 1, SiteID: 10}

	sites, err := r.ResolveSites(context.Background(), user, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{20}, siteIDs(sites))
}

func TestResolveSites_UnknownCountry_EmptyNotError(t *testing.T) {
	dir := newTestDirectory()
	r := access.NewResolver(dir)

	user := &models.User{ID: 4, RoleID: int(access.RoleSiteUser), CountryID: 1, SiteID: 10}
	sites, err := r.ResolveSites(context.Background(), user, 999)
	require.NoError(t, err)
	assert.Empty(t, sites)
}

func TestResolve_Idempotent(t *testing.T) {
	dir := newTestDirectory()
	dir.siteGrants[7] = []int{20}
	r := access.NewResolver(dir)

	user := &models.User{ID: 7, RoleID: int(access.RoleSeniorPM), CountryID: 1, SiteID: 10}

	first, err := r.ResolveCountries(context.Background(), user)
	require.NoError(t, err)
	second, err := r.ResolveCountries(context.Background(), user)
	require.NoError(t, err)
	assert.ElementsMatch(t, countryIDs(first), countryIDs(second))

	s1, err := r.ResolveSites(context.Background(), user, 1)
	require.NoError(t, err)
	s2, err := r.ResolveSites(context.Background(), user, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, siteIDs(s1), siteIDs(s2))
}

func TestHasSiteAccess(t *testing.T) {
	dir := newTestDirectory()
	r := access.NewResolver(dir)

	// Role 4 user, primary site 10 in country 1, no grants.
	user := &models.User{ID: 4, RoleID: int(access.RoleSiteUser), CountryID: 2, SiteID: 10}

	ok, err := r.HasSiteAccess(context.Background(), user, 10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.HasSiteAccess(context.Background(), user, 11)
	require.NoError(t, err)
	assert.False(t, ok)

	admin := &models.User{ID: 1, RoleID: int(access.RoleAdmin)}
	ok, err = r.HasSiteAccess(context.Background(), admin, 30)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.HasSiteAccess(context.Background(), user, 999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, access.RoleProjectManager.CanApproveAsPM())
	assert.True(t, access.RoleSeniorPM.CanApproveAsPM())
	assert.False(t, access.RoleOperations.CanApproveAsPM())

	assert.True(t, access.RoleOperations.CanAdvanceToPO())
	assert.False(t, access.RoleAdmin.CanAdvanceToPO())

	for _, r := range []access.Role{access.RoleSiteUser, access.RoleWarehouseManager, access.RoleProjectManager, access.RoleSeniorPM} {
		assert.True(t, r.CanIssueStock(), "role %d", r)
	}
	assert.False(t, access.RoleAdmin.CanIssueStock())

	assert.True(t, access.RoleProjectManager.CanRejectAt(models.StatusPendingApproval))
	assert.False(t, access.RoleProjectManager.CanRejectAt(models.StatusPendingPOs))
	assert.True(t, access.RoleOperations.CanRejectAt(models.StatusPendingPOs))

	// Unknown roles fall into ScopeNone.
	assert.Equal(t, access.ScopeNone, access.Role(42).Scope())
}
