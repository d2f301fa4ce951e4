package pgsql

import (
	"context"
	"errors"
	"net/http"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxUserRepository is the user directory. Profiles are written by the
// identity system; the engine only reads them for display.
type PgxUserRepository struct {
	BaseRepository
}

func newPgxUserRepository(pool *pgxpool.Pool) portsrepo.UserRepositoryFacade {
	return &PgxUserRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	query := `
        INSERT INTO users (user_id, name, email, created_at, last_updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            name = EXCLUDED.name,
            email = EXCLUDED.email,
            last_updated_at = EXCLUDED.last_updated_at;
    `
	_, err := r.Pool.Exec(ctx, query, user.UserID, user.Name, user.Email)
	if err != nil {
		return apperrors.NewAppError(http.StatusInternalServerError, "failed to save user "+user.UserID, err)
	}
	return nil
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	query := `
        SELECT user_id, name, email
        FROM users
        WHERE user_id = $1 AND deleted_at IS NULL;
    `
	var user domain.User
	err := r.Pool.QueryRow(ctx, query, userID).Scan(
		&user.UserID,
		&user.Name,
		&user.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("user " + userID)
		}
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to find user by ID", err)
	}
	return &user, nil
}
