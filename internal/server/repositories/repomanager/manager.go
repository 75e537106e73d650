package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sitecrew/internal/dbx"
	"github.com/dmitrijs2005/sitecrew/internal/server/repositories/images"
	"github.com/dmitrijs2005/sitecrew/internal/server/repositories/projects"
	"github.com/dmitrijs2005/sitecrew/internal/server/repositories/timesheets"
	"github.com/dmitrijs2005/sitecrew/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Projects(db dbx.DBTX) projects.Repository
	Timesheets(db dbx.DBTX) timesheets.Repository
	Images(db dbx.DBTX) images.Repository
}
