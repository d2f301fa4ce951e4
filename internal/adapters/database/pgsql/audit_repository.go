package pgsql

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRepositoryFacade {
	return &PgxAuditRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.AuditRepositoryFacade = (*PgxAuditRepository)(nil)

func (r *PgxAuditRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to encode audit changes", err)
	}
	query := `
		INSERT INTO audit_log (audit_id, action, actor_id, resource_id, changes, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err = r.Pool.Exec(ctx, query,
		entry.AuditID,
		entry.Action,
		entry.ActorID,
		entry.ResourceID,
		changes,
		entry.RecordedAt,
	)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to record audit entry "+entry.Action, err)
	}
	return nil
}

func (r *PgxAuditRepository) ListAuditEntries(ctx context.Context, resourceID string, limit int) ([]domain.AuditEntry, error) {
	query := `
		SELECT audit_id, action, actor_id, resource_id, changes, recorded_at
		FROM audit_log
		WHERE resource_id = $1
		ORDER BY recorded_at DESC, audit_id DESC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, resourceID, limit)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query audit entries", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var (
			entry   domain.AuditEntry
			changes []byte
		)
		if err := rows.Scan(&entry.AuditID, &entry.Action, &entry.ActorID, &entry.ResourceID, &changes, &entry.RecordedAt); err != nil {
			return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan audit row", err)
		}
		if len(changes) > 0 {
			if err := json.Unmarshal(changes, &entry.Changes); err != nil {
				return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to decode audit changes", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "error iterating audit rows", err)
	}
	return entries, nil
}
