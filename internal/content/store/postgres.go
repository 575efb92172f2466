package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"agora/internal/content/models"
	"agora/internal/platform/postgres"
	id "agora/pkg/domain"
	"agora/pkg/platform/sentinel"
	txcontext "agora/pkg/platform/tx"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresPosts persists posts. Media is stored as a JSONB array.
type PostgresPosts struct {
	db *sql.DB
}

func NewPostgresPosts(db *sql.DB) *PostgresPosts {
	return &PostgresPosts{db: db}
}

const postColumns = `id, community_id, author_id, kind, title, content, media, status,
	up_count, down_count, comment_count, published_at, created_at, updated_at, version`

func encodeMedia(media []models.MediaAsset) ([]byte, error) {
	if media == nil {
		media = []models.MediaAsset{}
	}
	return json.Marshal(media)
}

func (s *PostgresPosts) Create(ctx context.Context, p *models.Post) error {
	media, err := encodeMedia(p.Media)
	if err != nil {
		return fmt.Errorf("encode media: %w", err)
	}
	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1)
	`
	_, err = txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(p.ID), uuid.UUID(p.CommunityID), uuid.UUID(p.AuthorID), string(p.Kind),
		string(p.Title), string(p.Content), media, string(p.Status),
		p.UpCount, p.DownCount, p.CommentCount, nullTime(p.PublishedAt), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return postgres.TranslateWriteError("insert post", err)
	}
	p.Version = 1
	return nil
}

// Update writes every mutable column when the version matches.
func (s *PostgresPosts) Update(ctx context.Context, p *models.Post) error {
	media, err := encodeMedia(p.Media)
	if err != nil {
		return fmt.Errorf("encode media: %w", err)
	}
	query := `
		UPDATE posts
		SET title = $3, content = $4, media = $5, status = $6,
		    up_count = $7, down_count = $8, comment_count = $9,
		    published_at = $10, updated_at = $11, version = version + 1
		WHERE id = $1 AND version = $2
	`
	conn := txcontext.Conn(ctx, s.db)
	res, err := conn.ExecContext(ctx, query,
		uuid.UUID(p.ID), p.Version, string(p.Title), string(p.Content), media, string(p.Status),
		p.UpCount, p.DownCount, p.CommentCount, nullTime(p.PublishedAt), p.UpdatedAt,
	)
	if err != nil {
		return postgres.TranslateWriteError("update post", err)
	}
	if err := postgres.CheckVersionedUpdate(ctx, conn, res, "posts", uuid.UUID(p.ID)); err != nil {
		return err
	}
	p.Version++
	return nil
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		p                         models.Post
		rawID, community, author  uuid.UUID
		kind, title, body, status string
		media                     []byte
		publishedAt               sql.NullTime
	)
	if err := row.Scan(&rawID, &community, &author, &kind, &title, &body, &media, &status,
		&p.UpCount, &p.DownCount, &p.CommentCount, &publishedAt, &p.CreatedAt, &p.UpdatedAt, &p.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	p.ID = id.PostID(rawID)
	p.CommunityID = id.CommunityID(community)
	p.AuthorID = id.MemberID(author)
	p.Kind = models.PostKind(kind)
	p.Title = models.Title(title)
	p.Content = models.Content(body)
	p.Status = models.PostStatus(status)
	if err := json.Unmarshal(media, &p.Media); err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}
	if publishedAt.Valid {
		p.PublishedAt = &publishedAt.Time
	}
	return &p, nil
}

func (s *PostgresPosts) FindByID(ctx context.Context, postID id.PostID) (*models.Post, error) {
	row := txcontext.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, uuid.UUID(postID))
	p, err := scanPost(row)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, err
}

// PostgresComments persists comments.
type PostgresComments struct {
	db *sql.DB
}

func NewPostgresComments(db *sql.DB) *PostgresComments {
	return &PostgresComments{db: db}
}

const commentColumns = `id, post_id, parent_id, depth, author_id, body, status, edited,
	up_count, down_count, created_at, updated_at, deleted_at, version`

func nullComment(c *id.CommentID) uuid.NullUUID {
	if c == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*c), Valid: true}
}

func (s *PostgresComments) Create(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (` + commentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1)
	`
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID), uuid.UUID(c.PostID), nullComment(c.ParentID), c.Depth, uuid.UUID(c.AuthorID),
		string(c.Body), string(c.Status), c.Edited, c.UpCount, c.DownCount,
		c.CreatedAt, c.UpdatedAt, nullTime(c.DeletedAt),
	)
	if err != nil {
		return postgres.TranslateWriteError("insert comment", err)
	}
	c.Version = 1
	return nil
}

func (s *PostgresComments) Update(ctx context.Context, c *models.Comment) error {
	query := `
		UPDATE comments
		SET body = $3, status = $4, edited = $5, up_count = $6, down_count = $7,
		    updated_at = $8, deleted_at = $9, version = version + 1
		WHERE id = $1 AND version = $2
	`
	conn := txcontext.Conn(ctx, s.db)
	res, err := conn.ExecContext(ctx, query,
		uuid.UUID(c.ID), c.Version, string(c.Body), string(c.Status), c.Edited,
		c.UpCount, c.DownCount, c.UpdatedAt, nullTime(c.DeletedAt),
	)
	if err != nil {
		return postgres.TranslateWriteError("update comment", err)
	}
	if err := postgres.CheckVersionedUpdate(ctx, conn, res, "comments", uuid.UUID(c.ID)); err != nil {
		return err
	}
	c.Version++
	return nil
}

func scanComment(row rowScanner) (*models.Comment, error) {
	var (
		c                   models.Comment
		rawID, post, author uuid.UUID
		parent              uuid.NullUUID
		body, status        string
		deletedAt           sql.NullTime
	)
	if err := row.Scan(&rawID, &post, &parent, &c.Depth, &author, &body, &status, &c.Edited,
		&c.UpCount, &c.DownCount, &c.CreatedAt, &c.UpdatedAt, &deletedAt, &c.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	c.ID = id.CommentID(rawID)
	c.PostID = id.PostID(post)
	c.AuthorID = id.MemberID(author)
	c.Body = models.CommentBody(body)
	c.Status = models.CommentStatus(status)
	if parent.Valid {
		parentID := id.CommentID(parent.UUID)
		c.ParentID = &parentID
	}
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}

func (s *PostgresComments) FindByID(ctx context.Context, commentID id.CommentID) (*models.Comment, error) {
	row := txcontext.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = $1`, uuid.UUID(commentID))
	c, err := scanComment(row)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return c, err
}

func (s *PostgresComments) FindRoots(ctx context.Context, postID id.PostID, page models.Page) ([]*models.Comment, error) {
	page = page.Normalize()
	return s.list(ctx, "list root comments", `
		SELECT `+commentColumns+` FROM comments
		WHERE post_id = $1 AND parent_id IS NULL
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`, uuid.UUID(postID), page.Limit, page.Offset)
}

func (s *PostgresComments) FindReplies(ctx context.Context, postID id.PostID, parentID id.CommentID, page models.Page) ([]*models.Comment, error) {
	page = page.Normalize()
	return s.list(ctx, "list replies", `
		SELECT `+commentColumns+` FROM comments
		WHERE post_id = $1 AND parent_id = $2
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4`, uuid.UUID(postID), uuid.UUID(parentID), page.Limit, page.Offset)
}

func (s *PostgresComments) list(ctx context.Context, op, query string, args ...any) ([]*models.Comment, error) {
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PostgresVotes is the vote ledger. The (target, voter) primary keys turn a
// racing second insert into a unique violation, surfaced as
// sentinel.ErrConflict.
type PostgresVotes struct {
	db *sql.DB
}

func NewPostgresVotes(db *sql.DB) *PostgresVotes {
	return &PostgresVotes{db: db}
}

func (s *PostgresVotes) FindPostVote(ctx context.Context, postID id.PostID, voterID id.MemberID) (*models.PostVote, error) {
	var (
		v     models.PostVote
		value int
	)
	err := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT value, created_at, updated_at FROM post_votes
		WHERE post_id = $1 AND voter_id = $2`, uuid.UUID(postID), uuid.UUID(voterID),
	).Scan(&value, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find post vote: %w", err)
	}
	v.PostID, v.VoterID, v.Value = postID, voterID, models.VoteValue(value)
	return &v, nil
}

func (s *PostgresVotes) InsertPostVote(ctx context.Context, v *models.PostVote) error {
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO post_votes (post_id, voter_id, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(v.PostID), uuid.UUID(v.VoterID), v.Value.Int(), v.CreatedAt, v.UpdatedAt)
	return postgres.TranslateWriteError("insert post vote", err)
}

func (s *PostgresVotes) UpdatePostVote(ctx context.Context, v *models.PostVote) error {
	return s.exec(ctx, "update post vote", `
		UPDATE post_votes SET value = $3, updated_at = $4
		WHERE post_id = $1 AND voter_id = $2`,
		uuid.UUID(v.PostID), uuid.UUID(v.VoterID), v.Value.Int(), v.UpdatedAt)
}

func (s *PostgresVotes) DeletePostVote(ctx context.Context, postID id.PostID, voterID id.MemberID) error {
	return s.exec(ctx, "delete post vote",
		`DELETE FROM post_votes WHERE post_id = $1 AND voter_id = $2`,
		uuid.UUID(postID), uuid.UUID(voterID))
}

// FindPostVotes loads the voter's rows for a batch of posts in one query.
func (s *PostgresVotes) FindPostVotes(ctx context.Context, voterID id.MemberID, postIDs []id.PostID) (map[id.PostID]models.VoteValue, error) {
	out := make(map[id.PostID]models.VoteValue, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	ids := make([]string, len(postIDs))
	for i, postID := range postIDs {
		ids[i] = postID.String()
	}
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT post_id, value FROM post_votes
		WHERE voter_id = $1 AND post_id = ANY($2::uuid[])`,
		uuid.UUID(voterID), pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find post votes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			postID uuid.UUID
			value  int
		)
		if err := rows.Scan(&postID, &value); err != nil {
			return nil, fmt.Errorf("scan post vote: %w", err)
		}
		out[id.PostID(postID)] = models.VoteValue(value)
	}
	return out, rows.Err()
}

func (s *PostgresVotes) SumPostVotes(ctx context.Context, postID id.PostID) (models.VoteCounters, error) {
	return s.sum(ctx, `
		SELECT COUNT(*) FILTER (WHERE value = 1), COUNT(*) FILTER (WHERE value = -1)
		FROM post_votes WHERE post_id = $1`, uuid.UUID(postID))
}

func (s *PostgresVotes) FindCommentVote(ctx context.Context, commentID id.CommentID, voterID id.MemberID) (*models.CommentVote, error) {
	var (
		v     models.CommentVote
		value int
	)
	err := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT value, created_at, updated_at FROM comment_votes
		WHERE comment_id = $1 AND voter_id = $2`, uuid.UUID(commentID), uuid.UUID(voterID),
	).Scan(&value, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find comment vote: %w", err)
	}
	v.CommentID, v.VoterID, v.Value = commentID, voterID, models.VoteValue(value)
	return &v, nil
}

func (s *PostgresVotes) InsertCommentVote(ctx context.Context, v *models.CommentVote) error {
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO comment_votes (comment_id, voter_id, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.UUID(v.CommentID), uuid.UUID(v.VoterID), v.Value.Int(), v.CreatedAt, v.UpdatedAt)
	return postgres.TranslateWriteError("insert comment vote", err)
}

func (s *PostgresVotes) UpdateCommentVote(ctx context.Context, v *models.CommentVote) error {
	return s.exec(ctx, "update comment vote", `
		UPDATE comment_votes SET value = $3, updated_at = $4
		WHERE comment_id = $1 AND voter_id = $2`,
		uuid.UUID(v.CommentID), uuid.UUID(v.VoterID), v.Value.Int(), v.UpdatedAt)
}

func (s *PostgresVotes) DeleteCommentVote(ctx context.Context, commentID id.CommentID, voterID id.MemberID) error {
	return s.exec(ctx, "delete comment vote",
		`DELETE FROM comment_votes WHERE comment_id = $1 AND voter_id = $2`,
		uuid.UUID(commentID), uuid.UUID(voterID))
}

func (s *PostgresVotes) FindCommentVotes(ctx context.Context, voterID id.MemberID, commentIDs []id.CommentID) (map[id.CommentID]models.VoteValue, error) {
	out := make(map[id.CommentID]models.VoteValue, len(commentIDs))
	if len(commentIDs) == 0 {
		return out, nil
	}
	ids := make([]string, len(commentIDs))
	for i, commentID := range commentIDs {
		ids[i] = commentID.String()
	}
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT comment_id, value FROM comment_votes
		WHERE voter_id = $1 AND comment_id = ANY($2::uuid[])`,
		uuid.UUID(voterID), pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find comment votes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			commentID uuid.UUID
			value     int
		)
		if err := rows.Scan(&commentID, &value); err != nil {
			return nil, fmt.Errorf("scan comment vote: %w", err)
		}
		out[id.CommentID(commentID)] = models.VoteValue(value)
	}
	return out, rows.Err()
}

func (s *PostgresVotes) SumCommentVotes(ctx context.Context, commentID id.CommentID) (models.VoteCounters, error) {
	return s.sum(ctx, `
		SELECT COUNT(*) FILTER (WHERE value = 1), COUNT(*) FILTER (WHERE value = -1)
		FROM comment_votes WHERE comment_id = $1`, uuid.UUID(commentID))
}

// exec runs a single-row UPDATE or DELETE and reports sentinel.ErrNotFound
// when no row matched.
func (s *PostgresVotes) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
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

func (s *PostgresVotes) sum(ctx context.Context, query string, arg any) (models.VoteCounters, error) {
	var c models.VoteCounters
	if err := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, query, arg).Scan(&c.UpCount, &c.DownCount); err != nil {
		return models.VoteCounters{}, fmt.Errorf("sum votes: %w", err)
	}
	return c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
