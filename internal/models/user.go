package models

import "time"

type User struct {
	ID           int        `json:"id"`
	UserCode     string     `json:"user_code"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose in JSON
	RoleID       int        `json:"role_id"`
	CountryID    int        `json:"country_id"` // Primary country, 0 = unset
	SiteID       int        `json:"site_id"`    // Primary site, 0 = unset
	UpdatePass   bool       `json:"update_pass"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// UserCountry is an additive country grant beyond the user's primary country.
type UserCountry struct {
	ID        int `json:"id"`
	UserID    int `json:"user_id"`
	CountryID int `json:"country_id"`
}

// UserSite is an additive site grant beyond the user's primary site.
type UserSite struct {
	ID     int `json:"id"`
	UserID int `json:"user_id"`
	SiteID int `json:"site_id"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse represents the response after successful authentication.
// When TwoFactorRequired is set only TempToken is populated; the client must
// complete the TOTP step to obtain a full token.
type AuthResponse struct {
	Token                 string `json:"token,omitempty"`
	TempToken             string `json:"temp_token,omitempty"`
	TwoFactorRequired     bool   `json:"two_factor_required,omitempty"`
	RequirePasswordUpdate bool   `json:"require_password_update,omitempty"`
	User                  *User  `json:"user,omitempty"`
}

// CreateUserRequest represents the request body for provisioning a user
type CreateUserRequest struct {
	UserCode  string `json:"user_code"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	RoleID    int    `json:"role_id"`
	CountryID int    `json:"country_id"`
	SiteID    int    `json:"site_id"`
}
