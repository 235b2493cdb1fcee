package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/simkeeper/internal/client/client"
	"github.com/dmitrijs2005/simkeeper/internal/client/config"
	"github.com/dmitrijs2005/simkeeper/internal/client/services"
	"github.com/dmitrijs2005/simkeeper/internal/filex"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// App is the interactive client.
type App struct {
	config      *config.Config
	db          *sql.DB
	authService services.AuthService
	simService  services.SimulationService
	userEmail   string
	Mode        Mode
	reader      *bufio.Reader
	out         io.Writer
}

// NewApp opens the session database and builds the API services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := filex.EnsureParentDir(c.SessionDBPath); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	apiClient := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)

	return &App{
		config:      c,
		db:          db,
		authService: services.NewAuthService(apiClient, db, c.ServerURL),
		simService:  services.NewSimulationService(apiClient, reader),
		reader:      reader,
		out:         os.Stdout,
	}, nil
}

// Run restores a saved session, checks the server and runs the REPL until
// the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.db != nil {
		defer a.db.Close()
	}

	printlnFn(fmt.Sprintf("Welcome to SimKeeper CLI, server %s (type 'help' for commands)", a.config.ServerURL))

	email, ok, err := a.authService.Restore(ctx)
	if err != nil {
		return err
	}
	if ok {
		a.userEmail = email
	}
	a.checkServer(ctx)

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

func (a *App) checkServer(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.authService.Ping(ctx); err != nil {
		a.Mode = ModeOffline
		printlnFn("Server unavailable:", err)
		return
	}
	a.Mode = ModeOnline
}

func (a *App) isLoggedIn() bool {
	return a.userEmail != ""
}

func (a *App) getStatus() string {
	s := ""
	if a.userEmail != "" {
		s = a.userEmail + " "
	}
	if a.Mode != "" {
		s += string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}
