package models

import "time"

// UserTOTP holds a user's two-factor secret. Enabled stays false until the
// user confirms a first valid code.
type UserTOTP struct {
	UserID    int       `json:"user_id"`
	Secret    string    `json:"-"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

type TOTPSetupResponse struct {
	Secret string `json:"secret"`
	URL    string `json:"url"` // otpauth:// provisioning URI
}

type TOTPVerifyRequest struct {
	Code string `json:"code"`
}
