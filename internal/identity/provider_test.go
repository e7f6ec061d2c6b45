package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newGoogleTestServer(t *testing.T, userInfo map[string]interface{}, userInfoStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"id_token":      "id-1",
			"token_type":    "Bearer",
			"scope":         "openid email profile",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(userInfoStatus)
		_ = json.NewEncoder(w).Encode(userInfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGoogleProvider(srv *httptest.Server) *GoogleProvider {
	return NewGoogleProvider("client-id", "client-secret", "http://localhost/auth/callback", "boffin.lk",
		WithGoogleEndpoints(oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}, srv.URL+"/userinfo"))
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	p := NewGoogleProvider("client-id", "secret", "http://localhost/auth/callback", "boffin.lk")

	u, err := url.Parse(p.AuthCodeURL("state-123"))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "boffin.lk", q.Get("hd"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
}

func TestGoogleProvider_Exchange(t *testing.T) {
	srv := newGoogleTestServer(t, map[string]interface{}{
		"sub":            "g-123",
		"email":          "jane@boffin.lk",
		"email_verified": true,
		"name":           "Jane Doe",
		"picture":        "https://img/jane.png",
	}, http.StatusOK)
	p := newTestGoogleProvider(srv)

	profile, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "g-123", profile.ProviderAccountID)
	assert.Equal(t, "jane@boffin.lk", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "Jane Doe", profile.Name)
	assert.Equal(t, "access-1", profile.Token.AccessToken)
	assert.Equal(t, "refresh-1", profile.Token.RefreshToken)
	assert.Equal(t, "id-1", profile.Token.IDToken)
	assert.Equal(t, "openid email profile", profile.Token.Scope)
	assert.False(t, profile.Token.Expiry.IsZero())
}

func TestGoogleProvider_ExchangeFailures(t *testing.T) {
	t.Run("bad code", func(t *testing.T) {
		srv := newGoogleTestServer(t, nil, http.StatusOK)
		_, err := newTestGoogleProvider(srv).Exchange(context.Background(), "bad-code")
		assert.ErrorIs(t, err, ErrExchangeFailed)
	})

	t.Run("userinfo error", func(t *testing.T) {
		srv := newGoogleTestServer(t, map[string]interface{}{}, http.StatusInternalServerError)
		_, err := newTestGoogleProvider(srv).Exchange(context.Background(), "good-code")
		assert.ErrorIs(t, err, ErrExchangeFailed)
	})

	t.Run("missing email", func(t *testing.T) {
		srv := newGoogleTestServer(t, map[string]interface{}{"sub": "g-1"}, http.StatusOK)
		_, err := newTestGoogleProvider(srv).Exchange(context.Background(), "good-code")
		assert.ErrorIs(t, err, ErrExchangeFailed)
	})
}

type fakeCasdoorClient struct {
	token    *oauth2.Token
	tokenErr error
	claims   *casdoorsdk.Claims
	parseErr error
}

func (f *fakeCasdoorClient) GetOAuthToken(code, state string) (*oauth2.Token, error) {
	return f.token, f.tokenErr
}

func (f *fakeCasdoorClient) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	return f.claims, f.parseErr
}

func TestCasdoorProvider_AuthCodeURL(t *testing.T) {
	p := NewCasdoorProvider(CasdoorConfig{
		Endpoint:    "https://door.example.org/",
		ClientID:    "cid",
		RedirectURL: "http://localhost/auth/callback",
	})

	u, err := url.Parse(p.AuthCodeURL("s1"))
	require.NoError(t, err)
	assert.Equal(t, "/login/oauth/authorize", u.Path)
	assert.Equal(t, "s1", u.Query().Get("state"))
	assert.Equal(t, "openid email profile", u.Query().Get("scope"))
	assert.Equal(t, "http://localhost/auth/callback", u.Query().Get("redirect_uri"))
}

func TestCasdoorProvider_Exchange(t *testing.T) {
	claims := &casdoorsdk.Claims{}
	claims.User.Id = "cd-1"
	claims.User.Email = "ops@boffin.lk"
	claims.User.EmailVerified = true
	claims.User.FirstName = "Ops"
	claims.User.LastName = "Team"

	p := &CasdoorProvider{client: &fakeCasdoorClient{
		token:  &oauth2.Token{AccessToken: "jwt", TokenType: "Bearer"},
		claims: claims,
	}}

	profile, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "cd-1", profile.ProviderAccountID)
	assert.Equal(t, "Ops Team", profile.Name)
	assert.Equal(t, "jwt", profile.Token.AccessToken)

	p.client = &fakeCasdoorClient{tokenErr: errors.New("down")}
	_, err = p.Exchange(context.Background(), "code")
	assert.ErrorIs(t, err, ErrExchangeFailed)
}
