package pgsql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/SscSPs/rosca_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxGroupRepository stores each group aggregate as one JSONB document. The
// scalar columns exist for lookups, filters and the optimistic version check.
type PgxGroupRepository struct {
	BaseRepository
}

// newPgxGroupRepository creates a new repository for group aggregates.
func newPgxGroupRepository(pool *pgxpool.Pool) portsrepo.GroupRepositoryFacade {
	return &PgxGroupRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxGroupRepository implements portsrepo.GroupRepositoryFacade
var _ portsrepo.GroupRepositoryFacade = (*PgxGroupRepository)(nil)

const groupSelectQuery = `SELECT g.document, g.version, g.created_at FROM rosca_groups g `

// getGroups private func to run the select query with filters
func (r *PgxGroupRepository) getGroups(ctx context.Context, filterQuery string, args ...any) ([]domain.Group, error) {
	rows, err := r.Pool.Query(ctx, groupSelectQuery+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to query groups", err)
	}
	defer rows.Close()

	groups := []domain.Group{}
	for rows.Next() {
		var (
			doc       []byte
			version   int64
			createdAt time.Time
		)
		if err := rows.Scan(&doc, &version, &createdAt); err != nil {
			return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to scan group row", err)
		}
		g, err := decodeGroup(doc, version, createdAt)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "error iterating group rows", err)
	}
	return groups, nil
}

func decodeGroup(doc []byte, version int64, createdAt time.Time) (*domain.Group, error) {
	var g domain.Group
	if err := json.Unmarshal(doc, &g); err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to decode group document", err)
	}
	// The columns are authoritative: version for optimistic locking and
	// created_at (microsecond precision) for pagination cursors.
	g.Version = version
	g.CreatedAt = createdAt.UTC()
	return &g, nil
}

func (r *PgxGroupRepository) SaveGroup(ctx context.Context, group domain.Group) error {
	doc, err := json.Marshal(group)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to encode group "+group.GroupID, err)
	}
	query := `
		INSERT INTO rosca_groups (group_id, join_code, status, created_at, last_updated_at, version, document)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = r.Pool.Exec(ctx, query,
		group.GroupID,
		group.JoinCode,
		group.Status,
		group.CreatedAt,
		group.LastUpdatedAt,
		group.Version,
		doc,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return apperrors.NewConflictError("group " + group.GroupID + " or its join code already exists")
		}
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to save group "+group.GroupID, err)
	}
	return nil
}

// UpdateGroup writes group when the stored version is exactly group.Version-1.
func (r *PgxGroupRepository) UpdateGroup(ctx context.Context, group domain.Group) error {
	doc, err := json.Marshal(group)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to encode group "+group.GroupID, err)
	}
	query := `
		UPDATE rosca_groups
		SET status = $1, last_updated_at = $2, version = $3, document = $4
		WHERE group_id = $5 AND version = $6;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		group.Status,
		group.LastUpdatedAt,
		group.Version,
		doc,
		group.GroupID,
		group.Version-1,
	)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to update group "+group.GroupID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		var exists bool
		if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rosca_groups WHERE group_id = $1)`, group.GroupID).Scan(&exists); err != nil {
			return apperrors.NewAppError(http.StatusInternalServerError, "failed to check group "+group.GroupID, err)
		}
		if !exists {
			return apperrors.NewNotFoundError("group " + group.GroupID)
		}
		return apperrors.NewVersionConflictError(group.GroupID, group.Version-1)
	}
	return nil
}

func (r *PgxGroupRepository) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	return r.findOne(ctx, `WHERE g.group_id = $1`, groupID)
}

func (r *PgxGroupRepository) FindGroupByJoinCode(ctx context.Context, joinCode string) (*domain.Group, error) {
	return r.findOne(ctx, `WHERE g.join_code = $1`, joinCode)
}

func (r *PgxGroupRepository) findOne(ctx context.Context, where string, arg string) (*domain.Group, error) {
	var (
		doc       []byte
		version   int64
		createdAt time.Time
	)
	err := r.Pool.QueryRow(ctx, groupSelectQuery+where, arg).Scan(&doc, &version, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("group " + arg)
		}
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to find group", err)
	}
	return decodeGroup(doc, version, createdAt)
}

// ListGroups returns a page ordered by (created_at DESC, group_id DESC).
func (r *PgxGroupRepository) ListGroups(ctx context.Context, filter portsrepo.GroupFilter, limit int, nextToken *string) ([]domain.Group, *string, error) {
	where := `WHERE TRUE`
	args := []any{}
	addArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		where += ` AND g.status = ` + addArg(*filter.Status)
	}
	if filter.MemberID != "" {
		seat, err := json.Marshal([]map[string]string{{"userID": filter.MemberID, "status": string(domain.MemberActive)}})
		if err != nil {
			return nil, nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to encode member filter", err)
		}
		where += ` AND g.document->'members' @> ` + addArg(string(seat)) + `::jsonb`
	}
	if nextToken != nil && *nextToken != "" {
		cursorAt, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid nextToken")
		}
		where += fmt.Sprintf(` AND (g.created_at, g.group_id) < (%s, %s)`, addArg(cursorAt), addArg(cursorID))
	}

	// Fetch one extra row to learn whether another page exists.
	query := where + ` ORDER BY g.created_at DESC, g.group_id DESC LIMIT ` + addArg(limit+1)
	groups, err := r.getGroups(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if len(groups) > limit {
		groups = groups[:limit]
		last := groups[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.GroupID)
		next = &token
	}
	return groups, next, nil
}

func (r *PgxGroupRepository) ListGroupsByStatus(ctx context.Context, status domain.GroupStatus) ([]domain.Group, error) {
	return r.getGroups(ctx, `WHERE g.status = $1 ORDER BY g.created_at`, status)
}
