package service

import (
	"context"
	"time"

	"github.com/groupup-gg/lfg-bot/internal/infra/storage"
)

// Implemented by internal/infra/storage.LFGRepo
type PostRepo interface {
	CreatePost(ctx context.Context, p storage.LFGPost) (storage.LFGPost, error)
	GetPost(ctx context.Context, id int64) (storage.LFGPost, error)
	ListActive(ctx context.Context, guildID string, now time.Time) ([]storage.LFGPost, error)
	ListAll(ctx context.Context, guildID string) ([]storage.LFGPost, error)
	ListExpired(ctx context.Context, now time.Time) ([]storage.LFGPost, error)
	GetPostsByIDs(ctx context.Context, ids []int64) ([]storage.LFGPost, error)
	SetAnnouncementMessage(ctx context.Context, postID int64, messageID string) error
	DeletePostCascade(ctx context.Context, postID int64) (bool, error)
	JoinMember(ctx context.Context, postID int64, userID, username string) error
	LeaveMember(ctx context.Context, postID int64, userID string) error
	ListMembers(ctx context.Context, postID int64) ([]storage.LFGMember, error)
}

// RoomStatus is what a live occupancy check can conclude about a bound room.
type RoomStatus int

const (
	RoomEmpty RoomStatus = iota
	RoomOccupied
	RoomGone // room no longer exists; teardown may finalize immediately
)

// Implemented by internal/adapters/discord.RoomManager
type RoomService interface {
	// Provision creates one voice room sized to capacity and returns its id.
	Provision(ctx context.Context, guildID, name string, capacity int) (string, error)
	// Release deletes the room. Releasing an already-gone room is not an error.
	Release(ctx context.Context, guildID, roomID string) error
	// Status reports live occupancy. Errors (including timeouts) mean the
	// answer is unknown; callers must not treat them as empty.
	Status(ctx context.Context, guildID, roomID string) (RoomStatus, error)
	// GuildAvailable reports whether the guild is resolvable at all.
	GuildAvailable(guildID string) bool
}

// Implemented by internal/adapters/discord.Announcer. Both operations are
// best-effort from the engine's point of view.
type AnnouncementService interface {
	Publish(ctx context.Context, post storage.LFGPost) (messageID string, err error)
	Remove(ctx context.Context, messageID string) error
}
