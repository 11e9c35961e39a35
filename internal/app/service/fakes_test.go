package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/groupup-gg/lfg-bot/internal/infra/storage"
)

// In-memory stand-ins mirroring the repo/room/announcer contracts, so the
// engine and sweeper can be driven without a database or a live session.

type fakeRepo struct {
	mu        sync.Mutex
	nextID    int64
	posts     map[int64]storage.LFGPost
	members   map[int64][]storage.LFGMember
	failWrite error // returned by CreatePost when set
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		posts:   map[int64]storage.LFGPost{},
		members: map[int64][]storage.LFGMember{},
	}
}

func (r *fakeRepo) CreatePost(_ context.Context, p storage.LFGPost) (storage.LFGPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return storage.LFGPost{}, r.failWrite
	}
	r.nextID++
	p.ID = r.nextID
	p.CurrentPlayers = 1
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	r.posts[p.ID] = p
	return p, nil
}

func (r *fakeRepo) GetPost(_ context.Context, id int64) (storage.LFGPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return storage.LFGPost{}, storage.ErrNotFound
	}
	return p, nil
}

func (r *fakeRepo) ListActive(_ context.Context, guildID string, now time.Time) ([]storage.LFGPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []storage.LFGPost
	for _, p := range r.posts {
		if p.GuildID == guildID && p.ExpiresAt.After(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAll(_ context.Context, guildID string) ([]storage.LFGPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []storage.LFGPost
	for _, p := range r.posts {
		if p.GuildID == guildID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListExpired(_ context.Context, now time.Time) ([]storage.LFGPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []storage.LFGPost
	for _, p := range r.posts {
		if p.Expired(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetPostsByIDs(_ context.Context, ids []int64) ([]storage.LFGPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []storage.LFGPost
	for _, id := range ids {
		if p, ok := r.posts[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeRepo) SetAnnouncementMessage(_ context.Context, postID int64, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return storage.ErrNotFound
	}
	p.AnnouncementMessageID = &messageID
	r.posts[postID] = p
	return nil
}

func (r *fakeRepo) DeletePostCascade(_ context.Context, postID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, existed := r.posts[postID]
	delete(r.posts, postID)
	delete(r.members, postID)
	return existed, nil
}

func (r *fakeRepo) JoinMember(_ context.Context, postID int64, userID, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[postID]
	if !ok {
		return storage.ErrNotFound
	}
	if p.OwnerID == userID {
		return storage.ErrDuplicateMember
	}
	if p.CurrentPlayers >= p.PlayerCountNeeded {
		return storage.ErrPostFull
	}
	for _, m := range r.members[postID] {
		if m.UserID == userID {
			return storage.ErrDuplicateMember
		}
	}
	r.members[postID] = append(r.members[postID], storage.LFGMember{
		PostID: postID, UserID: userID, Username: username, JoinedAt: time.Now(),
	})
	p.CurrentPlayers++
	r.posts[postID] = p
	return nil
}

func (r *fakeRepo) LeaveMember(_ context.Context, postID int64, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members := r.members[postID]
	for i, m := range members {
		if m.UserID == userID {
			r.members[postID] = append(members[:i:i], members[i+1:]...)
			if p, ok := r.posts[postID]; ok && p.CurrentPlayers > 0 {
				p.CurrentPlayers--
				r.posts[postID] = p
			}
			return nil
		}
	}
	return storage.ErrNoMembership
}

func (r *fakeRepo) ListMembers(_ context.Context, postID int64) ([]storage.LFGMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]storage.LFGMember(nil), r.members[postID]...), nil
}

func (r *fakeRepo) postCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posts)
}

func (r *fakeRepo) memberCount(postID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members[postID])
}

type fakeRooms struct {
	mu           sync.Mutex
	nextRoom     int
	occupied     map[string]bool // roomID -> someone in it
	downGuilds   map[string]bool
	provisionErr error
	statusErr    error
	released     []string
}

func newFakeRooms() *fakeRooms {
	return &fakeRooms{
		occupied:   map[string]bool{},
		downGuilds: map[string]bool{},
	}
}

func (f *fakeRooms) Provision(_ context.Context, guildID, name string, capacity int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.provisionErr != nil {
		return "", f.provisionErr
	}
	f.nextRoom++
	id := fmt.Sprintf("room-%d", f.nextRoom)
	f.occupied[id] = false
	return id, nil
}

func (f *fakeRooms) Release(_ context.Context, guildID, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.occupied, roomID)
	f.released = append(f.released, roomID)
	return nil
}

func (f *fakeRooms) Status(_ context.Context, guildID, roomID string) (RoomStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.statusErr != nil {
		return RoomGone, f.statusErr
	}
	occ, ok := f.occupied[roomID]
	if !ok {
		return RoomGone, nil
	}
	if occ {
		return RoomOccupied, nil
	}
	return RoomEmpty, nil
}

func (f *fakeRooms) GuildAvailable(guildID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.downGuilds[guildID]
}

func (f *fakeRooms) setOccupied(roomID string, v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.occupied[roomID] = v
}

func (f *fakeRooms) dropRoom(roomID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.occupied, roomID)
}

func (f *fakeRooms) roomCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.occupied)
}

type fakeAnnouncer struct {
	mu         sync.Mutex
	nextMsg    int
	removed    []string
	publishErr error
}

func (f *fakeAnnouncer) Publish(_ context.Context, post storage.LFGPost) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.nextMsg++
	return fmt.Sprintf("msg-%d", f.nextMsg), nil
}

func (f *fakeAnnouncer) Remove(_ context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, messageID)
	return nil
}
