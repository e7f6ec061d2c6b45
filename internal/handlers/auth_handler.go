package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/boffin-lk/institute-service/internal/config"
	"github.com/boffin-lk/institute-service/internal/services"
	"github.com/boffin-lk/institute-service/internal/utils"
)

const (
	stateCookieName   = "oauth_state"
	stateCookieMaxAge = 10 * 60

	loginErrorDomainNotAllowed = "DomainNotAllowed"
	loginErrorSignInFailed     = "SignInFailed"
	loginErrorInvalidState     = "InvalidState"
)

// legacySessionCookies are names earlier front ends stored session state under.
// Sign-out clears them so a stale browser cannot look signed in.
var legacySessionCookies = []string{
	"next-auth.session-token",
	"__Secure-next-auth.session-token",
	"authjs.session-token",
	"__Secure-authjs.session-token",
	"next-auth.csrf-token",
	"__Host-next-auth.csrf-token",
	"next-auth.callback-url",
}

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
	cfg         config.AuthConfig
}

func NewAuthHandler(authService services.AuthService, cfg config.AuthConfig, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
		cfg:         cfg,
	}
}

// SignIn starts the OAuth flow.
// @Router /auth/signin [get]
func (h *AuthHandler) SignIn(c *gin.Context) {
	state := uuid.NewString()
	h.setCookie(c, stateCookieName, state, stateCookieMaxAge, "/auth")

	c.Redirect(http.StatusFound, h.authService.BeginSignIn(state))
}

// Callback completes the OAuth flow and issues the session cookie.
// @Router /auth/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	expected, _ := c.Cookie(stateCookieName)
	h.setCookie(c, stateCookieName, "", -1, "/auth")

	if providerErr := c.Query("error"); providerErr != "" {
		h.LogRequest(c, "Provider returned an error", "error", providerErr)
		h.redirectToLogin(c, loginErrorSignInFailed)
		return
	}

	state := c.Query("state")
	if expected == "" || state == "" || state != expected {
		h.redirectToLogin(c, loginErrorInvalidState)
		return
	}

	code := c.Query("code")
	if code == "" {
		h.redirectToLogin(c, loginErrorSignInFailed)
		return
	}

	result, err := h.authService.CompleteSignIn(c.Request.Context(), code)
	if err != nil {
		if services.IsDomainNotAllowed(err) {
			h.redirectToLogin(c, loginErrorDomainNotAllowed)
			return
		}
		h.LogError(c, err, "Sign-in failed")
		h.redirectToLogin(c, loginErrorSignInFailed)
		return
	}

	h.setCookie(c, h.cfg.SessionCookieName, result.SessionToken, int(h.cfg.SessionMaxAge.Seconds()), "/")
	c.Redirect(http.StatusFound, h.cfg.AfterLoginURL)
}

// SignOut revokes the session and clears every session cookie the browser may hold.
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(c *gin.Context) {
	token, _ := c.Cookie(h.cfg.SessionCookieName)
	if token == "" {
		if header := c.GetHeader("Authorization"); len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			token = strings.TrimSpace(header[7:])
		}
	}

	if err := h.authService.SignOut(c.Request.Context(), token); err != nil {
		// The cookies are cleared regardless.
		h.LogError(c, err, "Failed to revoke session")
	}

	h.setCookie(c, h.cfg.SessionCookieName, "", -1, "/")
	for _, name := range legacySessionCookies {
		h.clearLegacyCookie(c, name)
	}

	c.Redirect(http.StatusSeeOther, h.cfg.LoginURL)
}

// Session returns the identity behind the current session.
// @Router /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	claims, err := GetClaimsFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, claims)
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int, path string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, path, h.cfg.CookieDomain, h.cfg.SecureCookies, true)
}

// clearLegacyCookie expires name. Browsers only accept __Secure- and __Host-
// cookies with the Secure flag, and __Host- ones without a domain.
func (h *AuthHandler) clearLegacyCookie(c *gin.Context, name string) {
	secure := h.cfg.SecureCookies || strings.HasPrefix(name, "__Secure-") || strings.HasPrefix(name, "__Host-")
	domain := h.cfg.CookieDomain
	if strings.HasPrefix(name, "__Host-") {
		domain = ""
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, "", -1, "/", domain, secure, true)
}

func (h *AuthHandler) redirectToLogin(c *gin.Context, code string) {
	target, err := url.Parse(h.cfg.LoginURL)
	if err != nil {
		c.Redirect(http.StatusFound, "/?error="+code)
		return
	}
	q := target.Query()
	q.Set("error", code)
	target.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, target.String())
}
