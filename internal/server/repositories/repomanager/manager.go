package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/simkeeper/internal/dbx"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/revokedtokens"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/simulations"
	"github.com/dmitrijs2005/simkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Simulations(db dbx.DBTX) simulations.Repository
	RevokedTokens(db dbx.DBTX) revokedtokens.Repository
}
