package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/groupup-gg/lfg-bot/internal/app/service"
)

func (r *Router) handleSlashCommand(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	cmd := ic.ApplicationCommandData()
	if cmd.Name != "lfg" || ic.Member == nil {
		return
	}
	sub, ok := subcmdName(ic)
	if !ok {
		return
	}
	r.log.Infow("slash", "cmd", cmd.Name, "sub", sub, "by", ic.Member.User.ID, "guild", ic.GuildID)

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorw("panic in slash command", "sub", sub, "panic", rec)
			ReplyEphemeral(s, ic, "⚠️ Something went wrong processing that command.")
		}
	}()

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	switch sub {
	case "create":
		r.handleCreate(ctx, s, ic)
	case "delete":
		postID, _ := optInt(ic, "postid")
		if err := r.lfg.Delete(ctx, int64(postID), ic.Member.User.ID); err != nil {
			ReplyEphemeral(s, ic, errorReply(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ LFG post `#%d` deleted.", postID))
	case "join":
		postID, _ := optInt(ic, "postid")
		if err := r.lfg.Join(ctx, int64(postID), ic.Member.User.ID, displayName(ic.Member)); err != nil {
			ReplyEphemeral(s, ic, errorReply(err))
			return
		}
		post, err := r.lfg.GetPost(ctx, int64(postID))
		if err != nil {
			ReplyEphemeral(s, ic, fmt.Sprintf("✅ Joined post `#%d`.", postID))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Joined post `#%d` (%d/%d). Hop into <#%s>!",
			postID, post.CurrentPlayers, post.PlayerCountNeeded, post.VoiceChannelID))
	case "leave":
		postID, _ := optInt(ic, "postid")
		if err := r.lfg.Leave(ctx, int64(postID), ic.Member.User.ID); err != nil {
			ReplyEphemeral(s, ic, errorReply(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ You left post `#%d`.", postID))
	case "list":
		r.handleList(ctx, s, ic)
	case "cleanup":
		r.handleCleanup(ctx, s, ic)
	case "members":
		postID, _ := optInt(ic, "postid")
		summary, err := r.membersSummary(ctx, int64(postID))
		if err != nil {
			ReplyEphemeral(s, ic, errorReply(err))
			return
		}
		ReplyEphemeral(s, ic, summary)
	}
}

func (r *Router) handleCreate(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate) {
	game, _ := optStr(ic, "game")
	gameType, _ := optStr(ic, "gametype")
	playerCount, _ := optInt(ic, "playercount")
	duration, _ := optInt(ic, "duration")
	description, _ := optStr(ic, "description")

	post, err := r.lfg.Create(ctx, service.CreateParams{
		GuildID:         ic.GuildID,
		OwnerID:         ic.Member.User.ID,
		OwnerName:       displayName(ic.Member),
		Game:            game,
		GameType:        gameType,
		PlayerCount:     playerCount,
		DurationMinutes: duration,
		Description:     description,
	})
	if err != nil {
		ReplyEphemeral(s, ic, errorReply(err))
		return
	}

	gameName := post.Game
	if g, ok := r.catalog.Lookup(post.Game); ok {
		gameName = g.Name
	}
	ReplyEphemeral(s, ic, fmt.Sprintf(
		"✅ LFG post `#%d` created!\n**Game:** %s\n**Type:** %s\n**Players needed:** %d\n**Voice:** <#%s>\n**Expires:** <t:%d:R>",
		post.ID, gameName, post.GameType, post.PlayerCountNeeded, post.VoiceChannelID, post.ExpiresAt.Unix()))
}

func (r *Router) handleList(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate) {
	var gameKey, gameName string
	if raw, ok := optStr(ic, "game"); ok && raw != "" {
		g, ok := r.catalog.Lookup(raw)
		if !ok {
			ReplyEphemeral(s, ic, errorReply(service.ErrInvalidGame))
			return
		}
		gameKey, gameName = g.Key, g.Name
	}

	posts := r.lfg.ListActiveForGame(ctx, ic.GuildID, gameKey)
	if len(posts) == 0 {
		if gameKey != "" {
			ReplyEphemeral(s, ic, fmt.Sprintf("ℹ️ No active LFG posts for **%s** right now.", gameName))
			return
		}
		ReplyEphemeral(s, ic, "ℹ️ No active LFG posts right now. Start one with `/lfg create`!")
		return
	}

	var b strings.Builder
	b.WriteString("📋 **Active LFG posts**\n")
	for _, p := range posts {
		name := p.Game
		emoji := "🎮"
		if g, ok := r.catalog.Lookup(p.Game); ok {
			name, emoji = g.Name, g.Emoji
		}
		fmt.Fprintf(&b, "%s `#%d` **%s** (%s) — %d/%d players, expires <t:%d:R>\n",
			emoji, p.ID, name, p.GameType, p.CurrentPlayers, p.PlayerCountNeeded, p.ExpiresAt.Unix())
	}
	ReplyEphemeral(s, ic, b.String())
}

// membersSummary renders the roster for both the slash command and the
// announcement button.
func (r *Router) membersSummary(ctx context.Context, postID int64) (string, error) {
	post, err := r.lfg.GetPost(ctx, postID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👥 **Post `#%d`** — %d/%d players\n", post.ID, post.CurrentPlayers, post.PlayerCountNeeded)
	fmt.Fprintf(&b, "1) <@%s> (owner)\n", post.OwnerID)
	for i, m := range r.lfg.ListMembers(ctx, post.ID) {
		fmt.Fprintf(&b, "%d) <@%s> — %s\n", i+2, m.UserID, m.Username)
	}
	return b.String(), nil
}

// handleCleanup is the moderator purge: every post in the guild is torn down,
// gated on Manage Channels.
func (r *Router) handleCleanup(ctx context.Context, s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.Member.Permissions&discordgo.PermissionManageChannels == 0 {
		ReplyEphemeral(s, ic, "❌ You need the **Manage Channels** permission to run cleanup.")
		return
	}

	rep, err := r.lfg.CleanupGuild(ctx, ic.GuildID)
	if err != nil {
		ReplyEphemeral(s, ic, errorReply(err))
		return
	}

	var b strings.Builder
	b.WriteString("🧹 **LFG cleanup complete**\n")
	fmt.Fprintf(&b, "Deleted %d post(s), released %d voice room(s), removed %d announcement(s).",
		rep.PostsDeleted, rep.RoomsReleased, rep.AnnouncementsRemoved)
	if rep.Errors > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d step(s) failed, check the bot logs.", rep.Errors)
	}
	ReplyEphemeral(s, ic, b.String())
}

// errorReply maps every error kind to its own message; none of them should
// read like a silent no-op.
func errorReply(err error) string {
	var cd *service.CooldownError
	if errors.As(err, &cd) {
		return fmt.Sprintf("⏳ You're on cooldown! You can create another LFG post <t:%d:R>.",
			time.Now().Add(cd.RetryAfter).Unix())
	}
	switch {
	case errors.Is(err, service.ErrInvalidGame):
		return "❌ Unknown game. Pick one from the autocomplete list."
	case errors.Is(err, service.ErrInvalidGameType):
		return "❌ That game type isn't valid for the selected game."
	case errors.Is(err, service.ErrInvalidPlayerCount):
		return "❌ Player count is out of range for that game."
	case errors.Is(err, service.ErrInvalidDuration):
		return "❌ Duration is out of range."
	case errors.Is(err, service.ErrRoomProvisioning):
		return "❌ Couldn't create the voice room, the post was not created. Try again."
	case errors.Is(err, service.ErrNotFound):
		return "❌ LFG post not found."
	case errors.Is(err, service.ErrNotOwner):
		return "❌ You can only delete your own LFG posts."
	case errors.Is(err, service.ErrPostFull):
		return "❌ That post is already full."
	case errors.Is(err, service.ErrAlreadyJoined):
		return "❌ You're already in that post."
	case errors.Is(err, service.ErrNotMember):
		return "❌ You haven't joined that post."
	default:
		return "⚠️ Something went wrong, please try again."
	}
}
