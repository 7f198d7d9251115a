package services

import (
	"context"
	"errors"
	"strings"

	"pam-backend/internal/access"
	"pam-backend/internal/auth"
	"pam-backend/internal/models"
)

// ErrBadCredentials deliberately does not say which part was wrong.
var ErrBadCredentials = errors.New("invalid email or password")

type userStore interface {
	Get(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	UpdateLastLogin(ctx context.Context, id int) error
	UpdatePassword(ctx context.Context, id int, hash string) error
}

type totpStatusStore interface {
	Get(ctx context.Context, userID int) (*models.UserTOTP, error)
}

type tokenIssuer interface {
	GenerateToken(user *models.User) (string, error)
	GenerateTempToken(user *models.User) (string, error)
}

type UserService struct {
	users  userStore
	totp   totpStatusStore
	tokens tokenIssuer
}

func NewUserService(users userStore, totp totpStatusStore, tokens tokenIssuer) *UserService {
	return &UserService{users: users, totp: totp, tokens: tokens}
}

// Login authenticates by email and password. Users with an enabled
// authenticator get a short-lived token and must complete the TOTP step.
func (s *UserService) Login(ctx context.Context, in *models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || in.Password == "" {
		return nil, ErrBadCredentials
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.VerifyPassword(user.PasswordHash, in.Password) {
		return nil, ErrBadCredentials
	}

	enrolled, err := s.totp.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if enrolled != nil && enrolled.Enabled {
		temp, err := s.tokens.GenerateTempToken(user)
		if err != nil {
			return nil, err
		}
		return &models.AuthResponse{TempToken: temp, TwoFactorRequired: true}, nil
	}

	return s.issueFullToken(ctx, user)
}

// CompleteLogin issues the full token once the TOTP step has been verified.
func (s *UserService) CompleteLogin(ctx context.Context, userID int) (*models.AuthResponse, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrBadCredentials
	}
	return s.issueFullToken(ctx, user)
}

func (s *UserService) issueFullToken(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}
	return &models.AuthResponse{
		Token:                 token,
		RequirePasswordUpdate: user.UpdatePass,
		User:                  user,
	}, nil
}

// CreateUser provisions a user with a hashed password.
func (s *UserService) CreateUser(ctx context.Context, actor *models.User, in *models.CreateUserRequest) (*models.User, error) {
	if access.Role(actor.RoleID) != access.RoleAdmin {
		return nil, ErrForbidden
	}
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, validationf("name, email and password are required")
	}
	if in.RoleID == 0 {
		return nil, validationf("a role is required")
	}
	existing, err := s.users.GetByEmail(ctx, strings.ToLower(in.Email))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, validationf("a user with this email already exists")
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		UserCode:     in.UserCode,
		Name:         in.Name,
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		RoleID:       in.RoleID,
		CountryID:    in.CountryID,
		SiteID:       in.SiteID,
		UpdatePass:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword rehashes and stores the user's own password.
func (s *UserService) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if len(next) < 8 {
		return validationf("the new password must be at least 8 characters")
	}
	if !auth.VerifyPassword(user.PasswordHash, current) {
		return ErrBadCredentials
	}
	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, hash)
}
