package pgsql

import (
	"context"
	"net/http"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPayoutLedger records payout releases in payout_releases, keyed by
// (group_id, round_number). The table is the outbox the treasury system
// settles from; a repeated release with the same terms is a no-op.
type PgxPayoutLedger struct {
	BaseRepository
}

func newPgxPayoutLedger(pool *pgxpool.Pool) portsrepo.Ledger {
	return &PgxPayoutLedger{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.Ledger = (*PgxPayoutLedger)(nil)

func (r *PgxPayoutLedger) Release(ctx context.Context, release domain.PayoutRelease) error {
	query := `
		INSERT INTO payout_releases (group_id, round_number, recipient_id, amount, currency_code, released_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (group_id, round_number) DO NOTHING;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		release.GroupID,
		release.RoundNumber,
		release.RecipientID,
		release.Amount,
		release.CurrencyCode,
	)
	if err != nil {
		return apperrors.NewAppError(http.StatusBadGateway, "failed to record payout release "+release.IdempotencyKey(), err)
	}
	if cmdTag.RowsAffected() == 1 {
		return nil
	}

	var applied domain.PayoutRelease
	err = r.Pool.QueryRow(ctx, `
		SELECT group_id, round_number, recipient_id, amount, currency_code
		FROM payout_releases
		WHERE group_id = $1 AND round_number = $2;
	`, release.GroupID, release.RoundNumber).Scan(
		&applied.GroupID,
		&applied.RoundNumber,
		&applied.RecipientID,
		&applied.Amount,
		&applied.CurrencyCode,
	)
	if err != nil {
		return apperrors.NewAppError(http.StatusBadGateway, "failed to read payout release "+release.IdempotencyKey(), err)
	}
	if applied != release {
		return apperrors.NewConflictError("release " + release.IdempotencyKey() + " was already applied with different terms")
	}
	return nil
}
