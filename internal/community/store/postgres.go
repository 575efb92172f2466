package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agora/internal/community/models"
	"agora/internal/platform/postgres"
	id "agora/pkg/domain"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
)

// PostgresCommunities persists communities.
type PostgresCommunities struct {
	db *sql.DB
}

func NewPostgresCommunities(db *sql.DB) *PostgresCommunities {
	return &PostgresCommunities{db: db}
}

func (s *PostgresCommunities) Create(ctx context.Context, c *models.Community) error {
	query := `
		INSERT INTO communities (id, name, name_key, description, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID), c.DisplayName, string(c.NameKey), c.Description, uuid.UUID(c.CreatedBy), c.CreatedAt,
	)
	return postgres.TranslateWriteError("insert community", err)
}

const communityColumns = `id, name, name_key, description, created_by, created_at`

func scanCommunity(row interface{ Scan(...any) error }) (*models.Community, error) {
	var (
		c              models.Community
		rawID, creator uuid.UUID
		key            string
	)
	if err := row.Scan(&rawID, &c.DisplayName, &key, &c.Description, &creator, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	c.ID = id.CommunityID(rawID)
	c.CreatedBy = id.MemberID(creator)
	c.NameKey = models.CommunityNameKey(key)
	return &c, nil
}

func (s *PostgresCommunities) FindByID(ctx context.Context, communityID id.CommunityID) (*models.Community, error) {
	row := txcontext.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+communityColumns+` FROM communities WHERE id = $1`, uuid.UUID(communityID))
	c, err := scanCommunity(row)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("find community by id: %w", err)
	}
	return c, err
}

func (s *PostgresCommunities) FindByNameKey(ctx context.Context, key models.CommunityNameKey) (*models.Community, error) {
	row := txcontext.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+communityColumns+` FROM communities WHERE name_key = $1`, string(key))
	c, err := scanCommunity(row)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("find community by name: %w", err)
	}
	return c, err
}

// PostgresModerators persists moderator grants.
type PostgresModerators struct {
	db *sql.DB
}

func NewPostgresModerators(db *sql.DB) *PostgresModerators {
	return &PostgresModerators{db: db}
}

func (s *PostgresModerators) Grant(ctx context.Context, g *models.ModeratorGrant) error {
	query := `
		INSERT INTO community_moderators (community_id, member_id, granted_by, granted_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(g.CommunityID), uuid.UUID(g.MemberID), uuid.UUID(g.GrantedBy), g.GrantedAt)
	return postgres.TranslateWriteError("insert moderator grant", err)
}

func (s *PostgresModerators) Revoke(ctx context.Context, communityID id.CommunityID, memberID id.MemberID) error {
	res, err := txcontext.Conn(ctx, s.db).ExecContext(ctx,
		`DELETE FROM community_moderators WHERE community_id = $1 AND member_id = $2`,
		uuid.UUID(communityID), uuid.UUID(memberID))
	if err != nil {
		return fmt.Errorf("delete moderator grant: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresModerators) IsModerator(ctx context.Context, communityID id.CommunityID, memberID id.MemberID) (bool, error) {
	var ok bool
	err := txcontext.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM community_moderators WHERE community_id = $1 AND member_id = $2)`,
		uuid.UUID(communityID), uuid.UUID(memberID)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check moderator: %w", err)
	}
	return ok, nil
}

func (s *PostgresModerators) ListByCommunity(ctx context.Context, communityID id.CommunityID) ([]models.ModeratorGrant, error) {
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT community_id, member_id, granted_by, granted_at
		FROM community_moderators WHERE community_id = $1
		ORDER BY granted_at`, uuid.UUID(communityID))
	if err != nil {
		return nil, fmt.Errorf("list moderators: %w", err)
	}
	defer rows.Close()

	var out []models.ModeratorGrant
	for rows.Next() {
		var (
			g                          models.ModeratorGrant
			community, member, granter uuid.UUID
		)
		if err := rows.Scan(&community, &member, &granter, &g.GrantedAt); err != nil {
			return nil, fmt.Errorf("scan moderator: %w", err)
		}
		g.CommunityID = id.CommunityID(community)
		g.MemberID = id.MemberID(member)
		g.GrantedBy = id.MemberID(granter)
		out = append(out, g)
	}
	return out, rows.Err()
}

// PostgresBans persists bans.
type PostgresBans struct {
	db *sql.DB
}

func NewPostgresBans(db *sql.DB) *PostgresBans {
	return &PostgresBans{db: db}
}

const banColumns = `id, community_id, banned_member_id, processor_id, reason, banned_at, expires_at, lifted_at, lifted_by, version`

func scanBan(row interface{ Scan(...any) error }) (*models.Ban, error) {
	var (
		b                                   models.Ban
		rawID, community, member, processor uuid.UUID
		reason                              string
		expiresAt, liftedAt                 sql.NullTime
		liftedBy                            uuid.NullUUID
	)
	if err := row.Scan(&rawID, &community, &member, &processor, &reason, &b.BannedAt,
		&expiresAt, &liftedAt, &liftedBy, &b.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	b.ID = id.BanID(rawID)
	b.CommunityID = id.CommunityID(community)
	b.MemberID = id.MemberID(member)
	b.ProcessorID = id.MemberID(processor)
	b.Reason = models.BanReason(reason)
	if expiresAt.Valid {
		b.ExpiresAt = &expiresAt.Time
	}
	if liftedAt.Valid {
		b.LiftedAt = &liftedAt.Time
	}
	if liftedBy.Valid {
		by := id.MemberID(liftedBy.UUID)
		b.LiftedBy = &by
	}
	return &b, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullMember(m *id.MemberID) uuid.NullUUID {
	if m == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*m), Valid: true}
}

func (s *PostgresBans) Create(ctx context.Context, b *models.Ban) error {
	query := `
		INSERT INTO community_bans (` + banColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
	`
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(b.ID), uuid.UUID(b.CommunityID), uuid.UUID(b.MemberID), uuid.UUID(b.ProcessorID),
		string(b.Reason), b.BannedAt, nullTime(b.ExpiresAt), nullTime(b.LiftedAt), nullMember(b.LiftedBy),
	)
	if err != nil {
		return postgres.TranslateWriteError("insert ban", err)
	}
	b.Version = 1
	return nil
}

func (s *PostgresBans) Update(ctx context.Context, b *models.Ban) error {
	query := `
		UPDATE community_bans
		SET expires_at = $3, lifted_at = $4, lifted_by = $5, version = version + 1
		WHERE id = $1 AND version = $2
	`
	conn := txcontext.Conn(ctx, s.db)
	res, err := conn.ExecContext(ctx, query,
		uuid.UUID(b.ID), b.Version, nullTime(b.ExpiresAt), nullTime(b.LiftedAt), nullMember(b.LiftedBy))
	if err != nil {
		return postgres.TranslateWriteError("update ban", err)
	}
	if err := postgres.CheckVersionedUpdate(ctx, conn, res, "community_bans", uuid.UUID(b.ID)); err != nil {
		return err
	}
	b.Version++
	return nil
}

func (s *PostgresBans) FindByID(ctx context.Context, banID id.BanID) (*models.Ban, error) {
	row := txcontext.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+banColumns+` FROM community_bans WHERE id = $1`, uuid.UUID(banID))
	b, err := scanBan(row)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("find ban by id: %w", err)
	}
	return b, err
}

// FindActive evaluates activity in SQL against the caller's clock so tests with
// a fixed time see the same answer as the in-memory store.
func (s *PostgresBans) FindActive(ctx context.Context, communityID id.CommunityID, memberID id.MemberID, now time.Time) (*models.Ban, error) {
	row := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+banColumns+` FROM community_bans
		WHERE community_id = $1 AND banned_member_id = $2
		  AND lifted_at IS NULL AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY expires_at DESC NULLS FIRST
		LIMIT 1`, uuid.UUID(communityID), uuid.UUID(memberID), now)
	b, err := scanBan(row)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("find active ban: %w", err)
	}
	return b, err
}

func (s *PostgresBans) ListByCommunity(ctx context.Context, communityID id.CommunityID) ([]models.Ban, error) {
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx,
		`SELECT `+banColumns+` FROM community_bans WHERE community_id = $1 ORDER BY banned_at DESC`,
		uuid.UUID(communityID))
	if err != nil {
		return nil, fmt.Errorf("list bans: %w", err)
	}
	defer rows.Close()

	var out []models.Ban
	for rows.Next() {
		b, err := scanBan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ban: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
