package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pam-backend/internal/access"
	"pam-backend/internal/auth"
	"pam-backend/internal/models"
	"pam-backend/internal/services"
)

type fakeUserStore struct {
	users      map[int]*models.User
	lastLogins map[int]int
	nextID     int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int]*models.User{}, lastLogins: map[int]int{}, nextID: 1}
}

func (f *fakeUserStore) Get(ctx context.Context, id int) (*models.User, error) {
	return f.users[id], nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) Create(ctx context.Context, u *models.User) error {
	u.ID = f.nextID
	f.nextID++
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserStore) UpdateLastLogin(ctx context.Context, id int) error {
	f.lastLogins[id]++
	return nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, id int, hash string) error {
	f.users[id].PasswordHash = hash
	return nil
}

type fakeTOTPStore struct {
	rows map[int]*models.UserTOTP
}

func newFakeTOTPStore() *fakeTOTPStore {
	return &fakeTOTPStore{rows: map[int]*models.UserTOTP{}}
}

func (f *fakeTOTPStore) Get(ctx context.Context, userID int) (*models.UserTOTP, error) {
	return f.rows[userID], nil
}

func (f *fakeTOTPStore) Upsert(ctx context.Context, userID int, secret string) error {
	f.rows[userID] = &models.UserTOTP{UserID: userID, Secret: secret}
	return nil
}

func (f *fakeTOTPStore) Enable(ctx context.Context, userID int) error {
	f.rows[userID].Enabled = true
	return nil
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(user *models.User) (string, error) {
	return fmt.Sprintf("token-%d", user.ID), nil
}

func (fakeTokens) GenerateTempToken(user *models.User) (string, error) {
	return fmt.Sprintf("temp-%d", user.ID), nil
}

func seedUser(t *testing.T, store *fakeUserStore, email, password string, roleID int) *models.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Name: "Dana Saab", Email: email, PasswordHash: hash, RoleID: roleID}
	require.NoError(t, store.Create(context.Background(), u))
	return u
}

func TestLoginIssuesToken(t *testing.T) {
	store := newFakeUserStore()
	u := seedUser(t, store, "dana@example.com", "s3cret-pass", int(access.RoleSiteUser))
	svc := services.NewUserService(store, newFakeTOTPStore(), fakeTokens{})

	resp, err := svc.Login(context.Background(), &models.LoginRequest{
		Email: "Dana@Example.com ", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("token-%d", u.ID), resp.Token)
	assert.False(t, resp.TwoFactorRequired)
	assert.Equal(t, 1, store.lastLogins[u.ID])
}

func TestLoginBadCredentials(t *testing.T) {
	store := newFakeUserStore()
	seedUser(t, store, "dana@example.com", "s3cret-pass", int(access.RoleSiteUser))
	svc := services.NewUserService(store, newFakeTOTPStore(), fakeTokens{})

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Email: "dana@example.com", Password: "wrong",
	})
	assert.ErrorIs(t, err, services.ErrBadCredentials)

	_, err = svc.Login(context.Background(), &models.LoginRequest{
		Email: "nobody@example.com", Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, services.ErrBadCredentials)
}

func TestLoginWithTOTPEnabledReturnsTempToken(t *testing.T) {
	store := newFakeUserStore()
	u := seedUser(t, store, "dana@example.com", "s3cret-pass", int(access.RoleSiteUser))
	totpStore := newFakeTOTPStore()
	totpStore.rows[u.ID] = &models.UserTOTP{UserID: u.ID, Secret: "SECRET", Enabled: true}
	svc := services.NewUserService(store, totpStore, fakeTokens{})

	resp, err := svc.Login(context.Background(), &models.LoginRequest{
		Email: "dana@example.com", Password: "s3cret-pass",
	})
	require.NoError(t, err)
	assert.True(t, resp.TwoFactorRequired)
	assert.Equal(t, fmt.Sprintf("temp-%d", u.ID), resp.TempToken)
	assert.Empty(t, resp.Token, "full token withheld until the code is verified")
}

func TestCompleteLoginIssuesFullToken(t *testing.T) {
	store := newFakeUserStore()
	u := seedUser(t, store, "dana@example.com", "s3cret-pass", int(access.RoleSiteUser))
	svc := services.NewUserService(store, newFakeTOTPStore(), fakeTokens{})

	resp, err := svc.CompleteLogin(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("token-%d", u.ID), resp.Token)

	_, err = svc.CompleteLogin(context.Background(), 404)
	assert.ErrorIs(t, err, services.ErrBadCredentials)
}

func TestCreateUserAdminOnly(t *testing.T) {
	store := newFakeUserStore()
	svc := services.NewUserService(store, newFakeTOTPStore(), fakeTokens{})

	in := &models.CreateUserRequest{
		Name: "New User", Email: "New@Example.com", Password: "changeme1",
		RoleID: int(access.RoleSiteUser), SiteID: 5,
	}

	_, err := svc.CreateUser(context.Background(), &models.User{RoleID: int(access.RoleOperations)}, in)
	assert.ErrorIs(t, err, services.ErrForbidden)

	created, err := svc.CreateUser(context.Background(), &models.User{RoleID: int(access.RoleAdmin)}, in)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", created.Email)
	assert.True(t, created.UpdatePass, "fresh accounts must change their password")
	assert.NotEqual(t, "changeme1", created.PasswordHash)

	var vErr *services.ValidationError
	_, err = svc.CreateUser(context.Background(), &models.User{RoleID: int(access.RoleAdmin)}, in)
	assert.ErrorAs(t, err, &vErr, "duplicate email rejected")
}

func TestChangePassword(t *testing.T) {
	store := newFakeUserStore()
	u := seedUser(t, store, "dana@example.com", "old-password", int(access.RoleSiteUser))
	svc := services.NewUserService(store, newFakeTOTPStore(), fakeTokens{})

	err := svc.ChangePassword(context.Background(), u, "wrong", "new-password-1")
	assert.ErrorIs(t, err, services.ErrBadCredentials)

	var vErr *services.ValidationError
	err = svc.ChangePassword(context.Background(), u, "old-password", "short")
	assert.ErrorAs(t, err, &vErr)

	require.NoError(t, svc.ChangePassword(context.Background(), u, "old-password", "new-password-1"))
	assert.True(t, auth.VerifyPassword(store.users[u.ID].PasswordHash, "new-password-1"))
}

func TestTOTPSetupAndVerifyFlow(t *testing.T) {
	totpStore := newFakeTOTPStore()
	svc := services.NewTOTPService(totpStore)
	user := &models.User{ID: 3, Email: "dana@example.com"}

	resp, err := svc.GenerateSetup(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Secret)
	assert.True(t, strings.HasPrefix(resp.URL, "otpauth://totp/"))

	// Setup alone does not enable.
	enabled, err := svc.Status(context.Background(), user.ID)
	require.NoError(t, err)
	assert.False(t, enabled)

	err = svc.Verify(context.Background(), user.ID, "000000")
	assert.ErrorIs(t, err, services.ErrTOTPNotEnabled)

	err = svc.VerifyAndEnable(context.Background(), 404, "000000")
	assert.ErrorIs(t, err, services.ErrNoTOTPSecret)

	code, err := totp.GenerateCode(resp.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, svc.VerifyAndEnable(context.Background(), user.ID, code))

	enabled, err = svc.Status(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, enabled)

	code, err = totp.GenerateCode(resp.Secret, time.Now())
	require.NoError(t, err)
	assert.NoError(t, svc.Verify(context.Background(), user.ID, code))
}
