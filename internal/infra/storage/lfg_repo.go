package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	pq "github.com/lib/pq"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrPostFull        = errors.New("post full")
	ErrDuplicateMember = errors.New("duplicate member")
	ErrNoMembership    = errors.New("no membership")
)

type LFGRepo struct{ db *sql.DB }

func NewLFGRepo(db *sql.DB) *LFGRepo { return &LFGRepo{db: db} }

const postColumns = `
id, guild_id, owner_id, game, game_type, player_count_needed, current_players,
voice_channel_id, announcement_message_id, description, expires_at, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (LFGPost, error) {
	var p LFGPost
	err := row.Scan(
		&p.ID, &p.GuildID, &p.OwnerID, &p.Game, &p.GameType,
		&p.PlayerCountNeeded, &p.CurrentPlayers, &p.VoiceChannelID,
		&p.AnnouncementMessageID, &p.Description, &p.ExpiresAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// CreatePost inserts the post with the owner already holding one slot and
// returns the row as written (id and audit timestamps come from the DB).
func (r *LFGRepo) CreatePost(ctx context.Context, p LFGPost) (LFGPost, error) {
	row := r.db.QueryRowContext(ctx, `
INSERT INTO lfg_posts
  (guild_id, owner_id, game, game_type, player_count_needed, current_players,
   voice_channel_id, description, expires_at)
VALUES ($1,$2,$3,$4,$5,1,$6,$7,$8)
RETURNING `+postColumns,
		p.GuildID, p.OwnerID, p.Game, p.GameType, p.PlayerCountNeeded,
		p.VoiceChannelID, p.Description, p.ExpiresAt,
	)
	return scanPost(row)
}

func (r *LFGRepo) GetPost(ctx context.Context, id int64) (LFGPost, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+postColumns+`
  FROM lfg_posts
 WHERE id = $1
`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return LFGPost{}, ErrNotFound
	}
	return p, err
}

func (r *LFGRepo) queryPosts(ctx context.Context, query string, args ...any) ([]LFGPost, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LFGPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListActive returns the guild's posts that have not yet expired.
func (r *LFGRepo) ListActive(ctx context.Context, guildID string, now time.Time) ([]LFGPost, error) {
	return r.queryPosts(ctx, `
SELECT `+postColumns+`
  FROM lfg_posts
 WHERE guild_id = $1 AND expires_at > $2
 ORDER BY created_at DESC
`, guildID, now)
}

// ListAll includes expired posts still awaiting teardown, for admin tooling.
func (r *LFGRepo) ListAll(ctx context.Context, guildID string) ([]LFGPost, error) {
	return r.queryPosts(ctx, `
SELECT `+postColumns+`
  FROM lfg_posts
 WHERE guild_id = $1
 ORDER BY created_at DESC
`, guildID)
}

// ListExpired scans every guild; this feeds the sweeper and relies on the
// expires_at index.
func (r *LFGRepo) ListExpired(ctx context.Context, now time.Time) ([]LFGPost, error) {
	return r.queryPosts(ctx, `
SELECT `+postColumns+`
  FROM lfg_posts
 WHERE expires_at <= $1
 ORDER BY expires_at ASC
`, now)
}

func (r *LFGRepo) GetPostsByIDs(ctx context.Context, ids []int64) ([]LFGPost, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.queryPosts(ctx, `
SELECT `+postColumns+`
  FROM lfg_posts
 WHERE id = ANY($1)
`, pq.Array(ids))
}

func (r *LFGRepo) SetAnnouncementMessage(ctx context.Context, postID int64, messageID string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE lfg_posts
   SET announcement_message_id = $2, updated_at = now()
 WHERE id = $1
`, postID, messageID)
	return err
}

// DeletePostCascade removes the post and, via FK cascade, its member rows.
// Deleting a post that is already gone is a no-op success so the owner-delete
// path and the sweeper can race each other safely.
func (r *LFGRepo) DeletePostCascade(ctx context.Context, postID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lfg_posts WHERE id = $1`, postID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// JoinMember inserts the membership row and bumps current_players in one
// transaction; the post row is locked first so concurrent joins on the same
// post serialize and the counter cannot drift from the member rows.
func (r *LFGRepo) JoinMember(ctx context.Context, postID int64, userID, username string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var ownerID string
	var needed, current int
	err = tx.QueryRowContext(ctx, `
SELECT owner_id, player_count_needed, current_players
  FROM lfg_posts
 WHERE id = $1
   FOR UPDATE
`, postID).Scan(&ownerID, &needed, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	// The owner occupies a slot from creation without a member row.
	if userID == ownerID {
		return ErrDuplicateMember
	}
	if current >= needed {
		return ErrPostFull
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO lfg_members (post_id, user_id, username)
VALUES ($1,$2,$3)
ON CONFLICT (post_id, user_id) DO NOTHING
`, postID, userID, username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicateMember
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE lfg_posts
   SET current_players = current_players + 1, updated_at = now()
 WHERE id = $1
`, postID); err != nil {
		return err
	}
	return tx.Commit()
}

// LeaveMember removes the membership row and decrements current_players in the
// same transaction, floored at zero.
func (r *LFGRepo) LeaveMember(ctx context.Context, postID int64, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
DELETE FROM lfg_members
 WHERE post_id = $1 AND user_id = $2
`, postID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoMembership
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE lfg_posts
   SET current_players = GREATEST(current_players - 1, 0), updated_at = now()
 WHERE id = $1
`, postID); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *LFGRepo) ListMembers(ctx context.Context, postID int64) ([]LFGMember, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT post_id, user_id, username, joined_at
  FROM lfg_members
 WHERE post_id = $1
 ORDER BY joined_at ASC
`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LFGMember
	for rows.Next() {
		var m LFGMember
		if err := rows.Scan(&m.PostID, &m.UserID, &m.Username, &m.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
