// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, bearer token checks,
// logout and external identity verification.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/simkeeper/internal/common"
	"github.com/dmitrijs2005/simkeeper/internal/dbx"
	"github.com/dmitrijs2005/simkeeper/internal/logging"
	"github.com/dmitrijs2005/simkeeper/internal/server/auth"
	"github.com/dmitrijs2005/simkeeper/internal/server/config"
	"github.com/dmitrijs2005/simkeeper/internal/server/models"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/repomanager"
)

// IdentityVerifier checks a username/password pair against a third-party
// identity provider. It returns nil when the provider accepts the
// credentials, common.ErrorUnauthorized when it rejects them, and any other
// error when the provider could not give an answer.
type IdentityVerifier interface {
	Verify(ctx context.Context, username, password string) error
}

// RegisterInput is the payload of a registration request.
type RegisterInput struct {
	Name                 string  `json:"name" validate:"required,max=255"`
	Email                string  `json:"email" validate:"required,email,max=255"`
	Password             string  `json:"password" validate:"required"`
	PasswordConfirmation string  `json:"password_confirmation"`
	TumID                *string `json:"tum_id" validate:"omitempty,max=255"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type verifyInput struct {
	TumID    string `json:"tum_id" validate:"required,max=255"`
	Password string `json:"password" validate:"required"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	User   *models.User
	Claims *auth.Claims
}

// UserService provides account operations:
// - Register / Login: create users and mint bearer tokens
// - Authenticate / Logout: resolve and revoke tokens
// - VerifyExternalIdentity: link a TUM account after provider approval
type UserService struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	verifier          IdentityVerifier
	logger            logging.Logger
	jwtSecret         []byte
	tokenValidity     time.Duration
	bcryptCost        int
	minPasswordLength int
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, verifier IdentityVerifier, logger logging.Logger) *UserService {
	return &UserService{
		db:                db,
		repomanager:       m,
		verifier:          verifier,
		logger:            logger.With("module", "users"),
		jwtSecret:         []byte(cfg.SecretKey),
		tokenValidity:     cfg.TokenValidityDuration,
		bcryptCost:        cfg.BcryptCost,
		minPasswordLength: cfg.MinPasswordLength,
	}
}

// Register validates in, stores a new unverified user and returns it with a
// fresh token. A taken email or tum_id yields a *common.ConflictError.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	violations := checkStruct(in)
	if in.Password != "" && len(in.Password) < s.minPasswordLength {
		violations.Add("password", fmt.Sprintf("The password field must be at least %d characters.", s.minPasswordLength))
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		violations.Add("password", fmt.Sprintf("The password field must not be greater than %d characters.", auth.MaxPasswordBytes))
	}
	if in.Password != "" && in.Password != in.PasswordConfirmation {
		violations.Add("password", "The password field confirmation does not match.")
	}
	if !violations.Empty() {
		return nil, "", &common.ValidationError{Violations: violations}
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{Name: in.Name, Email: in.Email, PasswordHash: hash}
	if in.TumID != nil && *in.TumID != "" {
		user.TumID = in.TumID
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		_, err := repo.GetByEmail(ctx, user.Email)
		switch {
		case err == nil:
			return &common.ConflictError{Field: "email"}
		case !errors.Is(err, common.ErrorNotFound):
			return fmt.Errorf("error searching user: %w", err)
		}

		user, err = repo.Create(ctx, user)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks the password and returns the user with a fresh token. Unknown
// emails and wrong passwords fail identically with ErrorInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	if v := checkStruct(loginInput{Email: email, Password: password}); !v.Empty() {
		return nil, "", &common.ValidationError{Violations: v}
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.BurnPasswordCheck(password, s.bcryptCost)
			return nil, "", common.ErrorInvalidCredentials
		}
		return nil, "", fmt.Errorf("error searching user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, "", common.ErrorInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Authenticate resolves a bearer token to its user. Missing, malformed,
// expired and revoked tokens, as well as tokens of deleted users, all fail
// with ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}

	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil || claims.ID == "" {
		return nil, common.ErrorUnauthorized
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	revoked, err := s.repomanager.RevokedTokens(s.db).Exists(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("error checking token: %w", err)
	}
	if revoked {
		return nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	return &Principal{User: user, Claims: claims}, nil
}

// Logout revokes the principal's token until it would have expired anyway.
// Revocations that have outlived their token are purged on the way.
func (s *UserService) Logout(ctx context.Context, p *Principal) error {
	if p == nil || p.Claims == nil || p.User == nil {
		return common.ErrorUnauthorized
	}

	expiresAt := time.Now().Add(s.tokenValidity)
	if p.Claims.ExpiresAt != nil {
		expiresAt = p.Claims.ExpiresAt.Time
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RevokedTokens(tx)

		if _, err := repo.PurgeExpired(ctx, time.Now()); err != nil {
			return fmt.Errorf("error purging revoked tokens: %w", err)
		}
		if err := repo.Create(ctx, &models.RevokedToken{
			TokenID:   p.Claims.ID,
			UserID:    p.User.ID,
			ExpiresAt: expiresAt,
		}); err != nil {
			return fmt.Errorf("error revoking token: %w", err)
		}
		return nil
	})
}

// VerifyExternalIdentity asks the identity provider to confirm tumID and, on
// success, links it to the user and marks the account verified. Provider
// failures are logged and reported only as common.ErrUpstream.
func (s *UserService) VerifyExternalIdentity(ctx context.Context, userID int64, tumID, password string) (*models.User, error) {
	if v := checkStruct(verifyInput{TumID: tumID, Password: password}); !v.Empty() {
		return nil, &common.ValidationError{Violations: v}
	}

	if err := s.verifier.Verify(ctx, tumID, password); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Info(ctx, "identity provider rejected credentials", "user_id", userID)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "identity provider unavailable", "user_id", userID, "error", err)
		return nil, common.ErrUpstream
	}

	verified := true
	user, err := s.repomanager.Users(s.db).Update(ctx, userID, models.UserPatch{
		TumID:         &tumID,
		IsTumVerified: &verified,
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) issueToken(user *models.User) (string, error) {
	token, _, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}
	return token, nil
}
