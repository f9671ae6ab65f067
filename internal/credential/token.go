package credential

import (
	"strings"

	"golang.org/x/oauth2"

	"github.com/mixelka/inboxlens/pkg/models"
)

// ToToken converts a stored credential into an oauth2 token
func ToToken(cred *models.Credential) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
		Expiry:       cred.Expiry,
	}
}

// FromToken converts an oauth2 token into a credential.
// Granted scopes are read from the token response, falling back to the requested ones.
func FromToken(tok *oauth2.Token, requested []string) *models.Credential {
	scopes := requested
	if raw, ok := tok.Extra("scope").(string); ok && raw != "" {
		scopes = strings.Fields(raw)
	}
	return &models.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry.UTC(),
		Scopes:       scopes,
	}
}
