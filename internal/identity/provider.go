// Package identity adapts external OAuth identity providers to one profile shape.
package identity

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// Scopes requested from every provider.
var Scopes = []string{"openid", "email", "profile"}

// ErrExchangeFailed wraps any failure talking to the provider.
var ErrExchangeFailed = errors.New("identity provider exchange failed")

// Provider is an OAuth authorization-code identity provider.
type Provider interface {
	// Name is stored as Account.Provider.
	Name() string
	// AuthCodeURL builds the authorize redirect for the given state.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the signed-in profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// Profile is what a provider tells us about the person who signed in.
type Profile struct {
	ProviderAccountID string
	Email             string
	EmailVerified     bool
	Name              string
	Image             string
	Token             Token
}

// Token holds the provider credentials persisted on the account link.
type Token struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	TokenType    string
	Scope        string
	Expiry       time.Time
}

func tokenFromOAuth2(tok *oauth2.Token) Token {
	t := Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if idToken, ok := tok.Extra("id_token").(string); ok {
		t.IDToken = idToken
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		t.Scope = scope
	}
	return t
}
