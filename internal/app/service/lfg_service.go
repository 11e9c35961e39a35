package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/groupup-gg/lfg-bot/internal/domain"
	"github.com/groupup-gg/lfg-bot/internal/infra/storage"
)

// LFGConfig bounds the values Create accepts.
type LFGConfig struct {
	DefaultDuration   time.Duration
	MinDuration       time.Duration
	MaxDuration       time.Duration
	DescriptionMaxLen int
}

// LFGService is the lifecycle engine: every user-triggered transition on a
// post (create, delete, join, leave) goes through here. Time-based expiry is
// the sweeper's job, never this service's.
type LFGService struct {
	repo     PostRepo
	rooms    RoomService
	ann      AnnouncementService
	catalog  *domain.Catalog
	cooldown *Cooldown
	cfg      LFGConfig
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewLFGService(
	repo PostRepo,
	rooms RoomService,
	ann AnnouncementService,
	catalog *domain.Catalog,
	cooldown *Cooldown,
	cfg LFGConfig,
	log *zap.SugaredLogger,
) *LFGService {
	return &LFGService{
		repo:     repo,
		rooms:    rooms,
		ann:      ann,
		catalog:  catalog,
		cooldown: cooldown,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type CreateParams struct {
	GuildID         string
	OwnerID         string
	OwnerName       string
	Game            string
	GameType        string
	PlayerCount     int
	DurationMinutes int // 0 = configured default
	Description     string
}

// Create validates the request, provisions the voice room, and persists the
// post. The room is created first so a post row never exists without one; if
// the insert fails the room is released again, so no failure path leaks a
// room either. The cooldown is stamped only after everything succeeded.
func (s *LFGService) Create(ctx context.Context, p CreateParams) (storage.LFGPost, error) {
	game, ok := s.catalog.Lookup(p.Game)
	if !ok {
		return storage.LFGPost{}, ErrInvalidGame
	}
	if !game.ValidType(p.GameType) {
		return storage.LFGPost{}, ErrInvalidGameType
	}
	if !game.ValidPlayerCount(p.PlayerCount) {
		return storage.LFGPost{}, ErrInvalidPlayerCount
	}

	duration := time.Duration(p.DurationMinutes) * time.Minute
	if duration == 0 {
		duration = s.cfg.DefaultDuration
	}
	if duration < s.cfg.MinDuration || duration > s.cfg.MaxDuration {
		return storage.LFGPost{}, ErrInvalidDuration
	}

	// The command layer already bounds the option; clamp anyway. The bound is
	// in characters, so cut on a rune boundary, never mid-sequence.
	desc := p.Description
	if s.cfg.DescriptionMaxLen > 0 && utf8.RuneCountInString(desc) > s.cfg.DescriptionMaxLen {
		desc = string([]rune(desc)[:s.cfg.DescriptionMaxLen])
	}

	if allowed, retry := s.cooldown.Check(p.GuildID, p.OwnerID); !allowed {
		return storage.LFGPost{}, &CooldownError{RetryAfter: retry}
	}

	roomName := fmt.Sprintf("%s %s · %s", game.Emoji, game.Name, p.OwnerName)
	roomID, err := s.rooms.Provision(ctx, p.GuildID, roomName, p.PlayerCount)
	if err != nil {
		return storage.LFGPost{}, fmt.Errorf("%w: %v", ErrRoomProvisioning, err)
	}

	post := storage.LFGPost{
		GuildID:           p.GuildID,
		OwnerID:           p.OwnerID,
		Game:              game.Key,
		GameType:          p.GameType,
		PlayerCountNeeded: p.PlayerCount,
		VoiceChannelID:    roomID,
		ExpiresAt:         s.now().Add(duration),
	}
	if desc != "" {
		post.Description = &desc
	}

	created, err := s.repo.CreatePost(ctx, post)
	if err != nil {
		// Roll the room back so the failed attempt leaves nothing behind.
		if relErr := s.rooms.Release(ctx, p.GuildID, roomID); relErr != nil {
			s.log.Warnw("release after failed insert", "room", roomID, "err", relErr)
		}
		return storage.LFGPost{}, storageErr("create post", err)
	}

	// Announcement is best-effort; the post stands without it.
	if msgID, err := s.ann.Publish(ctx, created); err != nil {
		s.log.Warnw("announce post", "post", created.ID, "err", err)
	} else if msgID != "" {
		if err := s.repo.SetAnnouncementMessage(ctx, created.ID, msgID); err != nil {
			s.log.Warnw("save announcement id", "post", created.ID, "err", err)
		} else {
			created.AnnouncementMessageID = &msgID
		}
	}

	s.cooldown.Stamp(p.GuildID, p.OwnerID)
	s.log.Infow("lfg post created",
		"post", created.ID, "guild", created.GuildID, "owner", created.OwnerID,
		"game", created.Game, "players", created.PlayerCountNeeded, "room", roomID)
	return created, nil
}

// Delete is the owner-initiated teardown path. Room release and announcement
// removal are best-effort; the row delete is what decides success.
func (s *LFGService) Delete(ctx context.Context, postID int64, requesterID string) error {
	post, err := s.repo.GetPost(ctx, postID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return storageErr("get post", err)
	}
	if post.OwnerID != requesterID {
		return ErrNotOwner
	}

	if err := s.rooms.Release(ctx, post.GuildID, post.VoiceChannelID); err != nil {
		s.log.Warnw("release room", "post", postID, "room", post.VoiceChannelID, "err", err)
	}
	if post.AnnouncementMessageID != nil {
		if err := s.ann.Remove(ctx, *post.AnnouncementMessageID); err != nil {
			s.log.Warnw("remove announcement", "post", postID, "err", err)
		}
	}

	if _, err := s.repo.DeletePostCascade(ctx, postID); err != nil {
		return storageErr("delete post", err)
	}
	s.log.Infow("lfg post deleted by owner", "post", postID, "owner", requesterID)
	return nil
}

// Join inserts the membership and bumps the counter as one unit; the repo
// transaction guarantees they cannot diverge.
func (s *LFGService) Join(ctx context.Context, postID int64, userID, username string) error {
	err := s.repo.JoinMember(ctx, postID, userID, username)
	switch {
	case err == nil:
		s.log.Infow("member joined", "post", postID, "user", userID)
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrPostFull):
		return ErrPostFull
	case errors.Is(err, storage.ErrDuplicateMember):
		return ErrAlreadyJoined
	default:
		return storageErr("join", err)
	}
}

func (s *LFGService) Leave(ctx context.Context, postID int64, userID string) error {
	err := s.repo.LeaveMember(ctx, postID, userID)
	switch {
	case err == nil:
		s.log.Infow("member left", "post", postID, "user", userID)
		return nil
	case errors.Is(err, storage.ErrNoMembership):
		return ErrNotMember
	default:
		return storageErr("leave", err)
	}
}

func (s *LFGService) GetPost(ctx context.Context, postID int64) (storage.LFGPost, error) {
	post, err := s.repo.GetPost(ctx, postID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.LFGPost{}, ErrNotFound
	}
	if err != nil {
		return storage.LFGPost{}, storageErr("get post", err)
	}
	return post, nil
}

// ListActive returns the guild's unexpired posts. Read failures come back as
// an empty list: every caller treats "nothing found" as a valid state.
func (s *LFGService) ListActive(ctx context.Context, guildID string) []storage.LFGPost {
	posts, err := s.repo.ListActive(ctx, guildID, s.now())
	if err != nil {
		s.log.Warnw("list active", "guild", guildID, "err", err)
		return nil
	}
	return posts
}

// ListActiveForGame narrows ListActive to a single game key. An empty key
// means no filter.
func (s *LFGService) ListActiveForGame(ctx context.Context, guildID, gameKey string) []storage.LFGPost {
	posts := s.ListActive(ctx, guildID)
	if gameKey == "" {
		return posts
	}
	var out []storage.LFGPost
	for _, p := range posts {
		if p.Game == gameKey {
			out = append(out, p)
		}
	}
	return out
}

// ListAll includes expired posts awaiting teardown; guild cleanup runs off it.
func (s *LFGService) ListAll(ctx context.Context, guildID string) []storage.LFGPost {
	posts, err := s.repo.ListAll(ctx, guildID)
	if err != nil {
		s.log.Warnw("list all", "guild", guildID, "err", err)
		return nil
	}
	return posts
}

// CleanupReport tallies what a guild-wide cleanup removed.
type CleanupReport struct {
	PostsDeleted         int
	RoomsReleased        int
	AnnouncementsRemoved int
	Errors               int
}

// CleanupGuild tears down every post in the guild, active or expired. It is
// the moderator escape hatch: room and announcement failures are counted and
// skipped so one broken channel cannot stall the rest of the purge.
func (s *LFGService) CleanupGuild(ctx context.Context, guildID string) (CleanupReport, error) {
	posts, err := s.repo.ListAll(ctx, guildID)
	if err != nil {
		return CleanupReport{}, storageErr("list posts", err)
	}

	var rep CleanupReport
	for _, post := range posts {
		if err := s.rooms.Release(ctx, post.GuildID, post.VoiceChannelID); err != nil {
			s.log.Warnw("cleanup: release room", "post", post.ID, "room", post.VoiceChannelID, "err", err)
			rep.Errors++
		} else {
			rep.RoomsReleased++
		}
		if post.AnnouncementMessageID != nil {
			if err := s.ann.Remove(ctx, *post.AnnouncementMessageID); err != nil {
				s.log.Warnw("cleanup: remove announcement", "post", post.ID, "err", err)
				rep.Errors++
			} else {
				rep.AnnouncementsRemoved++
			}
		}
		deleted, err := s.repo.DeletePostCascade(ctx, post.ID)
		if err != nil {
			s.log.Warnw("cleanup: delete post", "post", post.ID, "err", err)
			rep.Errors++
			continue
		}
		if deleted {
			rep.PostsDeleted++
		}
	}

	s.log.Infow("guild cleanup finished", "guild", guildID,
		"posts", rep.PostsDeleted, "rooms", rep.RoomsReleased,
		"announcements", rep.AnnouncementsRemoved, "errors", rep.Errors)
	return rep, nil
}

// ListMembers returns the joined members. The owner holds a slot but has no
// membership row, so they are deliberately not part of this list.
func (s *LFGService) ListMembers(ctx context.Context, postID int64) []storage.LFGMember {
	members, err := s.repo.ListMembers(ctx, postID)
	if err != nil {
		s.log.Warnw("list members", "post", postID, "err", err)
		return nil
	}
	return members
}
