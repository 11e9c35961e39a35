package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/groupup-gg/lfg-bot/internal/infra/storage"
)

type sweepEnv struct {
	repo    *fakeRepo
	rooms   *fakeRooms
	ann     *fakeAnnouncer
	sweeper *Sweeper
	clock   time.Time
}

func newSweepEnv(t *testing.T) *sweepEnv {
	t.Helper()
	env := &sweepEnv{
		repo:  newFakeRepo(),
		rooms: newFakeRooms(),
		ann:   &fakeAnnouncer{},
		clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	logger, _ := zap.NewDevelopment()
	env.sweeper = NewSweeper(env.repo, env.rooms, env.ann, 300*time.Second, 5*time.Second, logger.Sugar())
	env.sweeper.now = func() time.Time { return env.clock }
	return env
}

// seedExpired plants a post whose expiry is already in the past, with a live
// room and a member, the way the sweeper would find it in production.
func (e *sweepEnv) seedExpired(t *testing.T, occupied bool) storage.LFGPost {
	t.Helper()
	roomID, err := e.rooms.Provision(context.Background(), "guild-1", "room", 5)
	if err != nil {
		t.Fatal(err)
	}
	e.rooms.setOccupied(roomID, occupied)

	msgID := "msg-1"
	post, err := e.repo.CreatePost(context.Background(), storage.LFGPost{
		GuildID:           "guild-1",
		OwnerID:           "A",
		Game:              "valorant",
		GameType:          "Unrated",
		PlayerCountNeeded: 5,
		VoiceChannelID:    roomID,
		ExpiresAt:         e.clock.Add(-time.Second),
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.repo.SetAnnouncementMessage(context.Background(), post.ID, msgID); err != nil {
		t.Fatal(err)
	}
	if err := e.repo.JoinMember(context.Background(), post.ID, "B", "bob"); err != nil {
		t.Fatal(err)
	}
	post, _ = e.repo.GetPost(context.Background(), post.ID)
	return post
}

func TestSweepWaitsForOccupiedRoom(t *testing.T) {
	env := newSweepEnv(t)
	post := env.seedExpired(t, true)
	ctx := context.Background()

	env.sweeper.Tick(ctx)

	if _, err := env.repo.GetPost(ctx, post.ID); err != nil {
		t.Fatal("expired post must survive while its room is occupied")
	}
	if env.sweeper.PendingCount() != 1 {
		t.Errorf("pendingCount = %d, want 1", env.sweeper.PendingCount())
	}

	// A later tick finds the room empty and finishes the job.
	env.rooms.setOccupied(post.VoiceChannelID, false)
	env.sweeper.Tick(ctx)

	if _, err := env.repo.GetPost(ctx, post.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Error("post should be deleted once the room empties")
	}
	if env.repo.memberCount(post.ID) != 0 {
		t.Error("membership rows must be gone")
	}
	if len(env.rooms.released) != 1 {
		t.Errorf("room should be released exactly once, got %d", len(env.rooms.released))
	}
	if len(env.ann.removed) != 1 {
		t.Errorf("announcement should be removed, got %d", len(env.ann.removed))
	}
	if env.sweeper.PendingCount() != 0 {
		t.Errorf("pendingCount = %d, want 0", env.sweeper.PendingCount())
	}
}

func TestSweepEmptyRoomSingleTick(t *testing.T) {
	env := newSweepEnv(t)
	post := env.seedExpired(t, false)
	ctx := context.Background()

	env.sweeper.Tick(ctx)

	if _, err := env.repo.GetPost(ctx, post.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Error("empty room: teardown should complete in one tick")
	}
}

func TestSweepRoomGoneFinalizesImmediately(t *testing.T) {
	env := newSweepEnv(t)
	post := env.seedExpired(t, false)
	env.rooms.dropRoom(post.VoiceChannelID)
	ctx := context.Background()

	env.sweeper.Tick(ctx)

	if _, err := env.repo.GetPost(ctx, post.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Error("missing room means teardown finalizes immediately")
	}
	if len(env.rooms.released) != 0 {
		t.Error("no release call expected for an already-gone room")
	}
}

func TestSweepIgnoresUnexpiredPosts(t *testing.T) {
	env := newSweepEnv(t)
	ctx := context.Background()
	roomID, _ := env.rooms.Provision(ctx, "guild-1", "room", 5)
	post, _ := env.repo.CreatePost(ctx, storage.LFGPost{
		GuildID: "guild-1", OwnerID: "A", Game: "valorant", GameType: "Unrated",
		PlayerCountNeeded: 5, VoiceChannelID: roomID,
		ExpiresAt: env.clock.Add(time.Hour),
	})

	env.sweeper.Tick(ctx)

	if _, err := env.repo.GetPost(ctx, post.ID); err != nil {
		t.Error("active post must never be touched")
	}
	if env.sweeper.PendingCount() != 0 {
		t.Error("active post must not be marked pending")
	}
}

func TestSweepGuildUnavailableDropsEntry(t *testing.T) {
	env := newSweepEnv(t)
	post := env.seedExpired(t, false)
	env.rooms.downGuilds["guild-1"] = true
	ctx := context.Background()

	env.sweeper.Tick(ctx)

	if env.sweeper.PendingCount() != 0 {
		t.Error("unresolvable guild: entry must be dropped")
	}
	if _, err := env.repo.GetPost(ctx, post.ID); err != nil {
		t.Fatal("post must not be deleted while the guild is unresolvable")
	}

	// Guild comes back: next tick rediscovers and finishes.
	env.rooms.downGuilds["guild-1"] = false
	env.sweeper.Tick(ctx)
	if _, err := env.repo.GetPost(ctx, post.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Error("sweep should self-heal once the guild resolves")
	}
}

func TestSweepStatusErrorDropsEntryAndSelfHeals(t *testing.T) {
	env := newSweepEnv(t)
	post := env.seedExpired(t, false)
	env.rooms.statusErr = errors.New("lookup timeout")
	ctx := context.Background()

	env.sweeper.Tick(ctx)

	if env.sweeper.PendingCount() != 0 {
		t.Error("status error: entry must be dropped, not retried forever")
	}
	if _, err := env.repo.GetPost(ctx, post.ID); err != nil {
		t.Fatal("unknown occupancy must never delete the post")
	}

	env.rooms.statusErr = nil
	env.sweeper.Tick(ctx)
	if _, err := env.repo.GetPost(ctx, post.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Error("next scan should rediscover and tear down")
	}
}

func TestSweepToleratesOwnerDeleteRace(t *testing.T) {
	env := newSweepEnv(t)
	post := env.seedExpired(t, true)
	ctx := context.Background()

	env.sweeper.Tick(ctx) // marks pending, room occupied

	// Owner deletes the post between ticks.
	if _, err := env.repo.DeletePostCascade(ctx, post.ID); err != nil {
		t.Fatal(err)
	}
	env.rooms.setOccupied(post.VoiceChannelID, false)

	env.sweeper.Tick(ctx) // must not blow up on the vanished post

	if env.sweeper.PendingCount() != 0 {
		t.Error("entry for a vanished post must be dropped")
	}
}
