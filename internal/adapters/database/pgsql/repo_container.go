package pgsql

import (
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		GroupRepo: newPgxGroupRepository(dbPool),
		UserRepo:  newPgxUserRepository(dbPool),
		AuditRepo: newPgxAuditRepository(dbPool),
		Ledger:    newPgxPayoutLedger(dbPool),
	}
}
