package models

import "time"

// Credential is OAuth2 token material for one session
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
	Scopes       []string  `json:"scopes,omitempty"`
}

// Valid reports whether the access token can be used as-is
func (c *Credential) Valid(now time.Time) bool {
	if c.AccessToken == "" {
		return false
	}
	return c.Expiry.IsZero() || now.Before(c.Expiry)
}

// Usable reports whether the credential is valid or can be refreshed.
// An expired access token without a refresh token is unusable.
func (c *Credential) Usable(now time.Time) bool {
	return c.Valid(now) || c.RefreshToken != ""
}
