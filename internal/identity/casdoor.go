package identity

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"golang.org/x/oauth2"
)

const ProviderCasdoor = "casdoor"

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
	RedirectURL      string
}

// casdoorClient is the subset of the SDK client the provider calls.
type casdoorClient interface {
	GetOAuthToken(code string, state string) (*oauth2.Token, error)
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
}

// CasdoorProvider signs users in through a Casdoor application.
type CasdoorProvider struct {
	config CasdoorConfig
	client casdoorClient
}

func NewCasdoorProvider(cfg CasdoorConfig) *CasdoorProvider {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.OrganizationName,
		cfg.ApplicationName,
	)
	return &CasdoorProvider{config: cfg, client: client}
}

func (p *CasdoorProvider) Name() string { return ProviderCasdoor }

func (p *CasdoorProvider) AuthCodeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.config.ClientID)
	q.Set("response_type", "code")
	q.Set("redirect_uri", p.config.RedirectURL)
	q.Set("scope", strings.Join(Scopes, " "))
	q.Set("state", state)
	return strings.TrimRight(p.config.Endpoint, "/") + "/login/oauth/authorize?" + q.Encode()
}

func (p *CasdoorProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	tok, err := p.client.GetOAuthToken(code, p.config.ApplicationName)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange: %v", ErrExchangeFailed, err)
	}

	claims, err := p.client.ParseJwtToken(tok.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token: %v", ErrExchangeFailed, err)
	}
	if claims.User.Id == "" || claims.User.Email == "" {
		return nil, fmt.Errorf("%w: token missing user id or email", ErrExchangeFailed)
	}

	name := claims.User.DisplayName
	if name == "" {
		name = strings.TrimSpace(claims.User.FirstName + " " + claims.User.LastName)
	}

	return &Profile{
		ProviderAccountID: claims.User.Id,
		Email:             claims.User.Email,
		EmailVerified:     claims.User.EmailVerified,
		Name:              name,
		Image:             claims.User.Avatar,
		Token:             tokenFromOAuth2(tok),
	}, nil
}
