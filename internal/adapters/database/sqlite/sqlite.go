// Package sqlite provides a single-file storage backend for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/SscSPs/rosca_app/internal/utils/pagination"
)

// Ensure Store implements every repository port
var (
	_ portsrepo.GroupRepositoryFacade = (*Store)(nil)
	_ portsrepo.UserRepositoryFacade  = (*Store)(nil)
	_ portsrepo.AuditRepositoryFacade = (*Store)(nil)
	_ portsrepo.Ledger                = (*Store)(nil)
)

// Store implements the repository ports on one SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a Store at dbPath, creating parent directories and running
// migrations.
func New(dbPath string) (*Store, error) {
	// Create parent directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection queues writers instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Repositories exposes the store through the repository provider.
func (s *Store) Repositories() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		GroupRepo: s,
		UserRepo:  s,
		AuditRepo: s,
		Ledger:    s,
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// --- Groups ---

func (s *Store) SaveGroup(ctx context.Context, group domain.Group) error {
	doc, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("failed to encode group: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rosca_groups (group_id, join_code, status, created_at, last_updated_at, version, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		group.GroupID, group.JoinCode, string(group.Status),
		group.CreatedAt.UnixNano(), group.LastUpdatedAt.UnixNano(), group.Version, string(doc),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("group " + group.GroupID + " or its join code already exists")
		}
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

func (s *Store) UpdateGroup(ctx context.Context, group domain.Group) error {
	doc, err := json.Marshal(group)
	if err != nil {
		return fmt.Errorf("failed to encode group: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE rosca_groups SET status = ?, last_updated_at = ?, version = ?, document = ?
		 WHERE group_id = ? AND version = ?`,
		string(group.Status), group.LastUpdatedAt.UnixNano(), group.Version, string(doc),
		group.GroupID, group.Version-1,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM rosca_groups WHERE group_id = ?`, group.GroupID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check group: %w", err)
	}
	if exists == 0 {
		return apperrors.NewNotFoundError("group " + group.GroupID)
	}
	return apperrors.NewVersionConflictError(group.GroupID, group.Version-1)
}

func (s *Store) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	return s.findGroup(ctx, "group_id = ?", groupID)
}

func (s *Store) FindGroupByJoinCode(ctx context.Context, joinCode string) (*domain.Group, error) {
	return s.findGroup(ctx, "join_code = ?", joinCode)
}

func (s *Store) findGroup(ctx context.Context, where string, arg string) (*domain.Group, error) {
	var (
		doc     string
		version int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT document, version FROM rosca_groups WHERE "+where, arg).Scan(&doc, &version)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("group " + arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query group: %w", err)
	}
	return decodeGroup(doc, version)
}

func decodeGroup(doc string, version int64) (*domain.Group, error) {
	var g domain.Group
	if err := json.Unmarshal([]byte(doc), &g); err != nil {
		return nil, fmt.Errorf("failed to decode group: %w", err)
	}
	g.Version = version
	return &g, nil
}

func (s *Store) queryGroups(ctx context.Context, query string, args ...any) ([]domain.Group, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := []domain.Group{}
	for rows.Next() {
		var (
			doc     string
			version int64
		)
		if err := rows.Scan(&doc, &version); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		g, err := decodeGroup(doc, version)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

func (s *Store) ListGroups(ctx context.Context, filter portsrepo.GroupFilter, limit int, nextToken *string) ([]domain.Group, *string, error) {
	query := "SELECT document, version FROM rosca_groups g WHERE 1 = 1"
	args := []any{}

	if filter.Status != nil {
		query += " AND g.status = ?"
		args = append(args, string(*filter.Status))
	}
	if filter.MemberID != "" {
		query += ` AND EXISTS (
			SELECT 1 FROM json_each(g.document, '$.members') m
			WHERE json_extract(m.value, '$.userID') = ? AND json_extract(m.value, '$.status') = ?)`
		args = append(args, filter.MemberID, string(domain.MemberActive))
	}
	if nextToken != nil && *nextToken != "" {
		cursorAt, cursorID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationFailedError("invalid nextToken")
		}
		query += " AND (g.created_at < ? OR (g.created_at = ? AND g.group_id < ?))"
		args = append(args, cursorAt.UnixNano(), cursorAt.UnixNano(), cursorID)
	}
	query += " ORDER BY g.created_at DESC, g.group_id DESC LIMIT ?"
	args = append(args, limit+1)

	groups, err := s.queryGroups(ctx, query, args...)
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

func (s *Store) ListGroupsByStatus(ctx context.Context, status domain.GroupStatus) ([]domain.Group, error) {
	return s.queryGroups(ctx, "SELECT document, version FROM rosca_groups WHERE status = ? ORDER BY created_at", string(status))
}

// --- Ledger ---

func (s *Store) Release(ctx context.Context, release domain.PayoutRelease) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO payout_releases (group_id, round_number, recipient_id, amount, currency_code, released_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (group_id, round_number) DO NOTHING`,
		release.GroupID, release.RoundNumber, release.RecipientID, release.Amount, release.CurrencyCode, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record payout release: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return nil
	}

	applied := domain.PayoutRelease{GroupID: release.GroupID, RoundNumber: release.RoundNumber}
	err = s.db.QueryRowContext(ctx,
		`SELECT recipient_id, amount, currency_code FROM payout_releases WHERE group_id = ? AND round_number = ?`,
		release.GroupID, release.RoundNumber,
	).Scan(&applied.RecipientID, &applied.Amount, &applied.CurrencyCode)
	if err != nil {
		return fmt.Errorf("failed to read payout release: %w", err)
	}
	if applied != release {
		return apperrors.NewConflictError("release " + release.IdempotencyKey() + " was already applied with different terms")
	}
	return nil
}

// --- Audit ---

func (s *Store) Record(ctx context.Context, entry domain.AuditEntry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("failed to encode audit changes: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_log (audit_id, action, actor_id, resource_id, changes, recorded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.AuditID, entry.Action, entry.ActorID, entry.ResourceID, string(changes), entry.RecordedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (s *Store) ListAuditEntries(ctx context.Context, resourceID string, limit int) ([]domain.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT audit_id, action, actor_id, resource_id, changes, recorded_at
		 FROM audit_log WHERE resource_id = ? ORDER BY recorded_at DESC, rowid DESC LIMIT ?`,
		resourceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var (
			entry      domain.AuditEntry
			changes    sql.NullString
			recordedAt int64
		)
		if err := rows.Scan(&entry.AuditID, &entry.Action, &entry.ActorID, &entry.ResourceID, &changes, &recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if changes.Valid && changes.String != "" && changes.String != "null" {
			if err := json.Unmarshal([]byte(changes.String), &entry.Changes); err != nil {
				return nil, fmt.Errorf("failed to decode audit changes: %w", err)
			}
		}
		entry.RecordedAt = time.Unix(0, recordedAt).UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// --- Users ---

func (s *Store) SaveUser(ctx context.Context, user domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, name, email) VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET name = excluded.name, email = excluded.email`,
		user.UserID, user.Name, user.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	err := s.db.QueryRowContext(ctx, `SELECT user_id, name, email FROM users WHERE user_id = ?`, userID).
		Scan(&user.UserID, &user.Name, &user.Email)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("user " + userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}
