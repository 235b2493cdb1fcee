package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/simkeeper/internal/client/client"
	"github.com/dmitrijs2005/simkeeper/internal/client/models"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

var errNotLoggedIn = errors.New("not logged in")

// Register prompts for the account details and creates the account. The
// new session is kept, so the user is logged in afterwards.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	confirmation, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}
	tumID, err := getSimpleText(a.reader, "Enter TUM ID (optional)", a.out)
	if err != nil {
		return err
	}

	u, err := a.authService.Register(ctx, models.Registration{
		Name:                 name,
		Email:                email,
		Password:             password,
		PasswordConfirmation: confirmation,
		TumID:                optional(tumID),
	})
	if err != nil {
		return err
	}

	a.userEmail = u.Email
	printlnFn(fmt.Sprintf("Registered and logged in as %s", u.Email))
	return nil
}

// Login prompts for credentials and opens a session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	u, err := a.authService.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.userEmail = u.Email
	a.Mode = ModeOnline
	printlnFn(fmt.Sprintf("Logged in as %s", u.Email))
	return nil
}

// Logout ends the session. The local session is dropped even when the
// server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	err := a.authService.Logout(ctx)
	a.userEmail = ""
	if err != nil {
		return err
	}
	printlnFn("Logged out")
	return nil
}

// Me prints the current account.
func (a *App) Me(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	u, err := a.authService.Me(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			a.userEmail = ""
		}
		return err
	}

	printUser(u)
	return nil
}

// VerifyTum links a TUM account after checking its credentials.
func (a *App) VerifyTum(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	tumID, err := getSimpleText(a.reader, "Enter TUM ID", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter TUM password", a.out)
	if err != nil {
		return err
	}

	u, err := a.authService.VerifyTum(ctx, tumID, password)
	if err != nil {
		return err
	}

	printlnFn("TUM account verified")
	printUser(u)
	return nil
}

func printUser(u *models.User) {
	printlnFn("ID:", u.ID)
	printlnFn("Name:", u.Name)
	printlnFn("Email:", u.Email)
	tum := "-"
	if u.TumID != nil {
		tum = *u.TumID
	}
	printlnFn("TUM ID:", tum)
	printlnFn("TUM verified:", u.IsTumVerified)
	printlnFn("Member since:", u.CreatedAt.Local().Format("2006-01-02 15:04"))
}
