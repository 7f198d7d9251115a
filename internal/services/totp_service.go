package services

import (
	"context"
	"errors"

	"pam-backend/internal/models"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const totpIssuer = "PAM"

var (
	ErrNoTOTPSecret    = errors.New("2FA setup not initiated")
	ErrInvalidTOTPCode = errors.New("invalid verification code")
	ErrTOTPNotEnabled  = errors.New("2FA is not enabled")
)

type totpStore interface {
	Get(ctx context.Context, userID int) (*models.UserTOTP, error)
	Upsert(ctx context.Context, userID int, secret string) error
	Enable(ctx context.Context, userID int) error
}

type TOTPService struct {
	totp totpStore
}

func NewTOTPService(store totpStore) *TOTPService {
	return &TOTPService{totp: store}
}

// GenerateSetup creates a fresh TOTP secret for the user. Re-running setup
// replaces any previous secret and drops the enabled flag until the user
// confirms again.
func (s *TOTPService) GenerateSetup(ctx context.Context, user *models.User) (*models.TOTPSetupResponse, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	if err := s.totp.Upsert(ctx, user.ID, key.Secret()); err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret: key.Secret(),
		URL:    key.URL(),
	}, nil
}

// VerifyAndEnable confirms the first code from the authenticator and turns
// 2FA on for the user.
func (s *TOTPService) VerifyAndEnable(ctx context.Context, userID int, code string) error {
	enrolled, err := s.totp.Get(ctx, userID)
	if err != nil {
		return err
	}
	if enrolled == nil || enrolled.Secret == "" {
		return ErrNoTOTPSecret
	}
	if !totp.Validate(code, enrolled.Secret) {
		return ErrInvalidTOTPCode
	}
	return s.totp.Enable(ctx, userID)
}

// Verify validates a login-time TOTP code.
func (s *TOTPService) Verify(ctx context.Context, userID int, code string) error {
	enrolled, err := s.totp.Get(ctx, userID)
	if err != nil {
		return err
	}
	if enrolled == nil || !enrolled.Enabled {
		return ErrTOTPNotEnabled
	}
	if !totp.Validate(code, enrolled.Secret) {
		return ErrInvalidTOTPCode
	}
	return nil
}

// Status reports whether the user has 2FA enabled.
func (s *TOTPService) Status(ctx context.Context, userID int) (bool, error) {
	enrolled, err := s.totp.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return enrolled != nil && enrolled.Enabled, nil
}
