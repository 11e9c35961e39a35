package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/groupup-gg/lfg-bot/internal/infra/storage"
)

// PendingTeardown tracks an expired post whose room has not yet been observed
// empty. The set lives only in the sweeper; losing it on restart is fine
// because the next expiry scan rebuilds it.
type PendingTeardown struct {
	PostID   int64
	RoomID   string
	GuildID  string
	MarkedAt time.Time
}

// Sweeper is the background reconciliation loop. Each tick it discovers
// expired posts, watches their rooms, and finalizes teardown once a room is
// empty or gone. It is the only path that deletes a post because of time.
type Sweeper struct {
	repo         PostRepo
	rooms        RoomService
	ann          AnnouncementService
	log          *zap.SugaredLogger
	interval     time.Duration
	checkTimeout time.Duration
	now          func() time.Time

	mu      sync.Mutex
	pending map[int64]PendingTeardown
	cron    *cron.Cron
}

func NewSweeper(
	repo PostRepo,
	rooms RoomService,
	ann AnnouncementService,
	interval, checkTimeout time.Duration,
	log *zap.SugaredLogger,
) *Sweeper {
	if interval <= 0 {
		interval = 300 * time.Second
	}
	if checkTimeout <= 0 {
		checkTimeout = 5 * time.Second
	}
	return &Sweeper{
		repo:         repo,
		rooms:        rooms,
		ann:          ann,
		log:          log,
		interval:     interval,
		checkTimeout: checkTimeout,
		now:          time.Now,
		pending:      map[int64]PendingTeardown{},
	}
}

// Start schedules Tick on the configured interval. Tests skip Start and drive
// Tick directly.
func (s *Sweeper) Start() error {
	c := cron.New()
	spec := fmt.Sprintf("@every %ds", int(s.interval.Seconds()))
	if _, err := c.AddFunc(spec, func() { s.Tick(context.Background()) }); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.log.Infow("sweeper started", "interval", s.interval)
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		s.log.Infow("sweeper stopped")
	}
}

// Tick runs one reconciliation pass. Expiry detection and deletion are
// deliberately decoupled: an expired post stays in storage until its room is
// observed empty, so nobody gets their channel deleted out from under them.
func (s *Sweeper) Tick(ctx context.Context) {
	now := s.now()

	expired, err := s.repo.ListExpired(ctx, now)
	if err != nil {
		s.log.Warnw("expiry scan", "err", err)
	}

	s.mu.Lock()
	for _, p := range expired {
		if _, ok := s.pending[p.ID]; !ok {
			s.pending[p.ID] = PendingTeardown{
				PostID:   p.ID,
				RoomID:   p.VoiceChannelID,
				GuildID:  p.GuildID,
				MarkedAt: now,
			}
		}
	}
	entries := make([]PendingTeardown, 0, len(s.pending))
	ids := make([]int64, 0, len(s.pending))
	for _, e := range s.pending {
		entries = append(entries, e)
		ids = append(ids, e.PostID)
	}
	s.mu.Unlock()

	// One bulk fetch for announcement ids; entries whose post is already gone
	// simply finalize without one.
	posts := map[int64]storage.LFGPost{}
	if fetched, err := s.repo.GetPostsByIDs(ctx, ids); err != nil {
		s.log.Warnw("fetch pending posts", "err", err)
	} else {
		for _, p := range fetched {
			posts[p.ID] = p
		}
	}

	for _, e := range entries {
		if !s.rooms.GuildAvailable(e.GuildID) {
			// Cannot act safely without the guild; an anomaly, not an error.
			s.log.Warnw("guild unavailable, dropping entry", "post", e.PostID, "guild", e.GuildID)
			s.drop(e.PostID)
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, s.checkTimeout)
		status, err := s.rooms.Status(cctx, e.GuildID, e.RoomID)
		cancel()
		if err != nil {
			// Unknown occupancy. Drop rather than retry a poisoned entry; the
			// post is still in storage, so the next scan rediscovers it.
			s.log.Warnw("room status check", "post", e.PostID, "room", e.RoomID, "err", err)
			s.drop(e.PostID)
			continue
		}

		switch status {
		case RoomOccupied:
			// Somebody is still in there. Re-check next tick, however long
			// that takes.
		case RoomGone:
			s.finalize(ctx, e, posts[e.PostID], "room gone")
		case RoomEmpty:
			if err := s.rooms.Release(ctx, e.GuildID, e.RoomID); err != nil {
				s.log.Warnw("release room", "post", e.PostID, "room", e.RoomID, "err", err)
				s.drop(e.PostID)
				continue
			}
			s.finalize(ctx, e, posts[e.PostID], "room emptied")
		}
	}
}

func (s *Sweeper) finalize(ctx context.Context, e PendingTeardown, post storage.LFGPost, reason string) {
	if post.AnnouncementMessageID != nil {
		if err := s.ann.Remove(ctx, *post.AnnouncementMessageID); err != nil {
			s.log.Warnw("remove announcement", "post", e.PostID, "err", err)
		}
	}
	if _, err := s.repo.DeletePostCascade(ctx, e.PostID); err != nil {
		// Post survives in storage and will be rediscovered next tick.
		s.log.Warnw("delete expired post", "post", e.PostID, "err", err)
		s.drop(e.PostID)
		return
	}
	s.drop(e.PostID)
	s.log.Infow("expired lfg post torn down", "post", e.PostID, "guild", e.GuildID, "reason", reason)
}

func (s *Sweeper) drop(postID int64) {
	s.mu.Lock()
	delete(s.pending, postID)
	s.mu.Unlock()
}

// PendingCount reports how many expired posts still wait for their room to
// empty.
func (s *Sweeper) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
