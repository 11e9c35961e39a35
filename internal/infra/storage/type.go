package storage

import "time"

type LFGPost struct {
	ID                    int64
	GuildID               string
	OwnerID               string
	Game                  string
	GameType              string
	PlayerCountNeeded     int
	CurrentPlayers        int
	VoiceChannelID        string
	AnnouncementMessageID *string
	Description           *string
	ExpiresAt             time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Expired reports whether the post is past its lifetime. An expired post may
// still exist in storage until the sweeper finishes teardown.
func (p LFGPost) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

type LFGMember struct {
	PostID   int64
	UserID   string
	Username string
	JoinedAt time.Time
}
