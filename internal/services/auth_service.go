package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/boffin-lk/institute-service/internal/events"
	"github.com/boffin-lk/institute-service/internal/identity"
	"github.com/boffin-lk/institute-service/internal/models"
	"github.com/boffin-lk/institute-service/internal/repositories"
	"github.com/boffin-lk/institute-service/internal/utils"
)

const accountTypeOAuth = "oauth"

type authService struct {
	repo          repositories.Repository
	db            *gorm.DB
	logger        *slog.Logger
	provider      identity.Provider
	tokens        *SessionTokens
	allowedDomain string
	publisher     events.EventPublisher
	now           func() time.Time
}

func NewAuthService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, provider identity.Provider, tokens *SessionTokens, allowedDomain string, publisher events.EventPublisher) AuthService {
	return &authService{
		repo:          repo,
		db:            db,
		logger:        logger,
		provider:      provider,
		tokens:        tokens,
		allowedDomain: allowedDomain,
		publisher:     publisher,
		now:           time.Now,
	}
}

func (s *authService) BeginSignIn(state string) string {
	return s.provider.AuthCodeURL(state)
}

// CompleteSignIn turns an authorization code into a session. Nothing is written
// unless the email belongs to the allowed domain, and any failure after that
// rolls back the user, account and session writes together.
func (s *authService) CompleteSignIn(ctx context.Context, code string) (*SignInResult, error) {
	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("OAuth exchange failed", "provider", s.provider.Name(), "error", err)
		return nil, fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}

	if !utils.EmailInDomain(profile.Email, s.allowedDomain) {
		s.logger.Warn("Sign-in rejected for domain", "provider", s.provider.Name(), "email", profile.Email)
		return nil, ErrDomainNotAllowed
	}
	if !profile.EmailVerified {
		s.logger.Warn("Sign-in rejected for unverified email", "provider", s.provider.Name(), "email", profile.Email)
		return nil, fmt.Errorf("%w: email not verified", ErrSignInFailed)
	}

	email := utils.NormalizeEmail(profile.Email)
	result := &SignInResult{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, newUser, err := s.findOrProvisionUser(ctx, tx, email, profile)
		if err != nil {
			return err
		}

		linkedNow, err := s.linkAccount(ctx, tx, user, profile)
		if err != nil {
			return err
		}

		sessionID := uuid.NewString()
		token, expiresAt, err := s.tokens.Issue(user, sessionID, s.now())
		if err != nil {
			return err
		}
		if err := s.repo.Session().Create(ctx, tx, &models.Session{
			SessionToken: sessionID,
			UserID:       user.ID,
			Expires:      expiresAt,
		}); err != nil {
			return err
		}

		result.User = user
		result.SessionToken = token
		result.ExpiresAt = expiresAt
		result.NewUser = newUser
		result.LinkedNow = linkedNow
		return nil
	})
	if err != nil {
		s.logger.Error("Sign-in aborted", "provider", s.provider.Name(), "email", email, "error", err)
		if IsAccountConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrSignInFailed, err)
	}

	if result.NewUser {
		events.SafePublish(ctx, s.publisher, s.logger, events.NewEvent(events.UserProvisioned, &result.User.ID, events.UserProvisionedData{
			UserID:   result.User.ID,
			Email:    result.User.Email,
			Role:     string(result.User.Role),
			Provider: s.provider.Name(),
		}))
	}
	if result.LinkedNow {
		events.SafePublish(ctx, s.publisher, s.logger, events.NewEvent(events.AccountLinked, &result.User.ID, events.AccountLinkedData{
			UserID:   result.User.ID,
			Provider: s.provider.Name(),
		}))
	}

	s.logger.Info("User signed in",
		"user_id", result.User.ID,
		"role", result.User.Role,
		"new_user", result.NewUser,
		"linked_now", result.LinkedNow)

	return result, nil
}

// ValidateSession checks the token and that its session row still exists.
func (s *authService) ValidateSession(ctx context.Context, token string) (*SessionClaims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.Session().GetByToken(ctx, nil, claims.SessionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: session revoked", ErrInvalidSession)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session.UserID != claims.UserID || session.IsExpired(s.now()) {
		return nil, fmt.Errorf("%w: session expired", ErrInvalidSession)
	}

	return claims, nil
}

// SignOut deletes the session row behind token. Unknown, malformed and already
// revoked tokens are not an error.
func (s *authService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.tokens.ParseIgnoringExpiry(token)
	if err != nil {
		s.logger.Debug("Sign-out with unusable token", "error", err)
		return nil
	}

	if err := s.repo.Session().DeleteByToken(ctx, nil, claims.SessionID); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}

	s.logger.Info("User signed out", "user_id", claims.UserID)
	return nil
}

func (s *authService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	deleted, err := s.repo.Session().DeleteExpired(ctx, nil, s.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("Expired sessions removed", "count", deleted)
	}
	return deleted, nil
}

// ===== HELPERS =====

func (s *authService) findOrProvisionUser(ctx context.Context, tx *gorm.DB, email string, profile *identity.Profile) (*models.User, bool, error) {
	user, err := s.repo.User().GetByEmail(ctx, tx, email)
	if err == nil {
		return user, false, nil
	}
	if !repositories.IsNotFoundError(err) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	firstName, lastName := utils.SplitDisplayName(profile.Name, email)
	user = &models.User{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleAdmin,
		Image:     optionalString(profile.Image),
	}
	if err := s.repo.User().Create(ctx, tx, user); err != nil {
		return nil, false, fmt.Errorf("failed to provision user: %w", err)
	}
	return user, true, nil
}

// linkAccount makes sure user owns the provider account in profile. A user may
// hold one account per provider, and a provider account belongs to one user.
func (s *authService) linkAccount(ctx context.Context, tx *gorm.DB, user *models.User, profile *identity.Profile) (bool, error) {
	provider := s.provider.Name()

	account, err := s.repo.Account().GetByProviderAccount(ctx, tx, provider, profile.ProviderAccountID)
	switch {
	case err == nil:
		if account.UserID != user.ID {
			return false, fmt.Errorf("%w: %s account linked to user %d", ErrAccountConflict, provider, account.UserID)
		}
		applyProviderToken(account, profile.Token)
		if err := s.repo.Account().UpdateTokens(ctx, tx, account); err != nil {
			return false, err
		}
		return false, nil
	case !repositories.IsNotFoundError(err):
		return false, fmt.Errorf("failed to look up account: %w", err)
	}

	existing, err := s.repo.Account().ListByUserAndProvider(ctx, tx, user.ID, provider)
	if err != nil {
		return false, fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(existing) > 0 {
		return false, fmt.Errorf("%w: user %d already linked to another %s account", ErrAccountConflict, user.ID, provider)
	}

	account = &models.Account{
		UserID:            user.ID,
		Type:              accountTypeOAuth,
		Provider:          provider,
		ProviderAccountID: profile.ProviderAccountID,
	}
	applyProviderToken(account, profile.Token)
	if err := s.repo.Account().Create(ctx, tx, account); err != nil {
		if repositories.IsDuplicateError(err) {
			return false, fmt.Errorf("%w: %v", ErrAccountConflict, err)
		}
		return false, err
	}
	return true, nil
}

func applyProviderToken(account *models.Account, token identity.Token) {
	account.AccessToken = optionalString(token.AccessToken)
	account.RefreshToken = optionalString(token.RefreshToken)
	account.IDToken = optionalString(token.IDToken)
	account.TokenType = optionalString(token.TokenType)
	account.Scope = optionalString(token.Scope)
	account.ExpiresAt = nil
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		account.ExpiresAt = &expiry
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
