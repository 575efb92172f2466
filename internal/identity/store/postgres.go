package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"agora/internal/identity/models"
	"agora/internal/platform/postgres"
	id "agora/pkg/domain"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
)

// PostgresStore persists members in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func rolesToStrings(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func (s *PostgresStore) Create(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO members (id, handle, email, email_verified, roles, status, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
	`
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(m.ID), m.Handle, m.Email, m.EmailVerified,
		pq.Array(rolesToStrings(m.Roles)), string(m.Status), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return postgres.TranslateWriteError("insert member", err)
	}
	m.Version = 1
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	query := `
		SELECT id, handle, email, email_verified, roles, status, created_at, updated_at, version
		FROM members WHERE id = $1
	`
	var (
		m      models.Member
		rawID  uuid.UUID
		roles  []string
		status string
	)
	err := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(memberID)).Scan(
		&rawID, &m.Handle, &m.Email, &m.EmailVerified, pq.Array(&roles), &status,
		&m.CreatedAt, &m.UpdatedAt, &m.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find member by id: %w", err)
	}
	m.ID = id.MemberID(rawID)
	m.Status = models.MemberStatus(status)
	for _, r := range roles {
		m.Roles = append(m.Roles, models.Role(r))
	}
	return &m, nil
}

func (s *PostgresStore) Update(ctx context.Context, m *models.Member) error {
	query := `
		UPDATE members
		SET handle = $3, email = $4, email_verified = $5, roles = $6, status = $7,
		    updated_at = $8, version = version + 1
		WHERE id = $1 AND version = $2
	`
	conn := txcontext.Conn(ctx, s.db)
	res, err := conn.ExecContext(ctx, query,
		uuid.UUID(m.ID), m.Version, m.Handle, m.Email, m.EmailVerified,
		pq.Array(rolesToStrings(m.Roles)), string(m.Status), m.UpdatedAt,
	)
	if err != nil {
		return postgres.TranslateWriteError("update member", err)
	}
	if err := postgres.CheckVersionedUpdate(ctx, conn, res, "members", uuid.UUID(m.ID)); err != nil {
		return err
	}
	m.Version++
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return n, nil
}
