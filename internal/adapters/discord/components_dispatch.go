package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// parseLFGComponent splits a button custom ID like "lfg_join_42" into its
// action and post ID.
func parseLFGComponent(customID string) (string, int64, bool) {
	parts := strings.Split(customID, "_")
	if len(parts) != 3 || parts[0] != "lfg" {
		return "", 0, false
	}
	postID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return parts[1], postID, true
}

// handleMessageComponent serves the announcement buttons. They drive the same
// lifecycle transitions as the slash subcommands, so replies match.
func (r *Router) handleMessageComponent(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	if ic.Member == nil {
		return
	}
	action, postID, ok := parseLFGComponent(ic.MessageComponentData().CustomID)
	if !ok {
		return
	}
	r.log.Infow("component", "action", action, "post", postID, "by", ic.Member.User.ID, "guild", ic.GuildID)

	defer func() {
		if rec := recover(); rec != nil {
			r.log.Errorw("panic in component handler", "action", action, "panic", rec)
			ReplyEphemeral(s, ic, "⚠️ Something went wrong processing that click.")
		}
	}()

	_ = DeferEphemeral(s, ic)
	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	switch action {
	case "join":
		if err := r.lfg.Join(ctx, postID, ic.Member.User.ID, displayName(ic.Member)); err != nil {
			ReplyEphemeral(s, ic, errorReply(err))
			return
		}
		post, err := r.lfg.GetPost(ctx, postID)
		if err != nil {
			ReplyEphemeral(s, ic, fmt.Sprintf("✅ Joined post `#%d`.", postID))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ Joined post `#%d` (%d/%d). Hop into <#%s>!",
			postID, post.CurrentPlayers, post.PlayerCountNeeded, post.VoiceChannelID))
	case "leave":
		if err := r.lfg.Leave(ctx, postID, ic.Member.User.ID); err != nil {
			ReplyEphemeral(s, ic, errorReply(err))
			return
		}
		ReplyEphemeral(s, ic, fmt.Sprintf("✅ You left post `#%d`.", postID))
	case "members":
		summary, err := r.membersSummary(ctx, postID)
		if err != nil {
			ReplyEphemeral(s, ic, errorReply(err))
			return
		}
		ReplyEphemeral(s, ic, summary)
	}
}
