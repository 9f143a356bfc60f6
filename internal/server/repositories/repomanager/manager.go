// Package repomanager vends repository implementations bound to a DBTX,
// so services can obtain transactional and non-transactional views of the
// same stores through one seam.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/roles"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// RepositoryManager returns repositories bound to the given DBTX (either
// *sql.DB or a transaction handle) and owns schema migrations.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
