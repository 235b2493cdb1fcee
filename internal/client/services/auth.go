// Package services contains application services for the SimKeeper CLI.
// This file defines the account service: register, login, logout, identity
// lookups and persistence of the bearer token between runs.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/simkeeper/internal/client/client"
	"github.com/dmitrijs2005/simkeeper/internal/client/models"
	"github.com/dmitrijs2005/simkeeper/internal/client/repositories/session"
	"github.com/dmitrijs2005/simkeeper/internal/dbx"
)

// AuthService defines account operations for the CLI.
//
// Contract:
//   - Restore: load a saved token for the configured server into the client.
//   - Register / Login: obtain a token and persist it locally.
//   - Logout: revoke the token on the server and forget it locally.
//   - Me / VerifyTum: calls made on behalf of the logged-in user.
//   - Ping: check server liveness.
type AuthService interface {
	Restore(ctx context.Context) (email string, ok bool, err error)
	Register(ctx context.Context, in models.Registration) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*models.User, error)
	VerifyTum(ctx context.Context, tumID, password string) (*models.User, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client    client.Client
	db        *sql.DB
	serverURL string
}

// NewAuthService binds the API client to the local session database.
// Sessions saved for a different serverURL are ignored.
func NewAuthService(c client.Client, db *sql.DB, serverURL string) AuthService {
	return &authService{client: c, db: db, serverURL: serverURL}
}

func (a *authService) repo(db dbx.DBTX) session.Repository {
	return session.NewSQLiteRepository(db)
}

func (a *authService) Restore(ctx context.Context) (string, bool, error) {
	all, err := a.repo(a.db).All(ctx)
	if err != nil {
		return "", false, err
	}

	token := all[session.KeyToken]
	if token == "" || all[session.KeyServerURL] != a.serverURL {
		return "", false, nil
	}

	a.client.SetToken(token)
	return all[session.KeyUserEmail], true, nil
}

func (a *authService) Register(ctx context.Context, in models.Registration) (*models.User, error) {
	s, err := a.client.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := a.save(ctx, s); err != nil {
		return nil, err
	}
	return s.User, nil
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	s, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.save(ctx, s); err != nil {
		return nil, err
	}
	return s.User, nil
}

// Logout always forgets the local session. A server that no longer accepts
// the token is not an error.
func (a *authService) Logout(ctx context.Context) error {
	serverErr := a.client.Logout(ctx)
	if errors.Is(serverErr, client.ErrUnauthorized) {
		serverErr = nil
	}

	if err := a.forget(ctx); err != nil {
		return err
	}
	return serverErr
}

func (a *authService) Me(ctx context.Context) (*models.User, error) {
	u, err := a.client.Me(ctx)
	if errors.Is(err, client.ErrUnauthorized) {
		if ferr := a.forget(ctx); ferr != nil {
			return nil, ferr
		}
	}
	return u, err
}

func (a *authService) VerifyTum(ctx context.Context, tumID, password string) (*models.User, error) {
	return a.client.VerifyTum(ctx, tumID, password)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) save(ctx context.Context, s *models.Session) error {
	if s == nil || s.Token == "" {
		return errors.New("server returned no token")
	}

	email := ""
	if s.User != nil {
		email = s.User.Email
	}

	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := a.repo(tx)
		if err := repo.Set(ctx, session.KeyToken, s.Token); err != nil {
			return err
		}
		if err := repo.Set(ctx, session.KeyUserEmail, email); err != nil {
			return err
		}
		return repo.Set(ctx, session.KeyServerURL, a.serverURL)
	})
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	a.client.SetToken(s.Token)
	return nil
}

func (a *authService) forget(ctx context.Context) error {
	a.client.SetToken("")
	if err := a.repo(a.db).Delete(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
