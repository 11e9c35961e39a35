package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/groupup-gg/lfg-bot/internal/domain"
	"github.com/groupup-gg/lfg-bot/internal/infra/storage"
)

// Announcer posts the public summary of an LFG post to the configured channel.
// Callers treat everything here as best-effort; with no channel configured it
// degrades to a no-op.
type Announcer struct {
	s         *discordgo.Session
	channelID string
	catalog   *domain.Catalog
	log       *zap.SugaredLogger
}

func NewAnnouncer(s *discordgo.Session, channelID string, catalog *domain.Catalog, log *zap.SugaredLogger) *Announcer {
	return &Announcer{s: s, channelID: channelID, catalog: catalog, log: log}
}

func (a *Announcer) Publish(ctx context.Context, post storage.LFGPost) (string, error) {
	if a.channelID == "" {
		return "", nil
	}
	msg, err := a.s.ChannelMessageSendComplex(a.channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{a.embed(post)},
		Components: a.buttons(post),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// buttons are the one-click alternative to /lfg join, leave and members. The
// custom IDs round-trip through parseLFGComponent.
func (a *Announcer) buttons(post storage.LFGPost) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Join",
					Style:    discordgo.SuccessButton,
					CustomID: fmt.Sprintf("lfg_join_%d", post.ID),
				},
				discordgo.Button{
					Label:    "Leave",
					Style:    discordgo.DangerButton,
					CustomID: fmt.Sprintf("lfg_leave_%d", post.ID),
				},
				discordgo.Button{
					Label:    "Members",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("lfg_members_%d", post.ID),
				},
			},
		},
	}
}

func (a *Announcer) Remove(ctx context.Context, messageID string) error {
	if a.channelID == "" || messageID == "" {
		return nil
	}
	err := a.s.ChannelMessageDelete(a.channelID, messageID, discordgo.WithContext(ctx))
	if err == nil || isUnknownMessage(err) {
		return nil
	}
	return err
}

func (a *Announcer) embed(post storage.LFGPost) *discordgo.MessageEmbed {
	gameName := post.Game
	title := "LFG"
	if g, ok := a.catalog.Lookup(post.Game); ok {
		gameName = g.Name
		title = fmt.Sprintf("%s %s — looking for group", g.Emoji, g.Name)
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Game", Value: gameName, Inline: true},
		{Name: "Type", Value: post.GameType, Inline: true},
		{Name: "Players", Value: fmt.Sprintf("%d/%d", post.CurrentPlayers, post.PlayerCountNeeded), Inline: true},
		{Name: "Voice", Value: fmt.Sprintf("<#%s>", post.VoiceChannelID), Inline: true},
		{Name: "Expires", Value: fmt.Sprintf("<t:%d:R>", post.ExpiresAt.Unix()), Inline: true},
	}
	if post.Description != nil && *post.Description != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Details", Value: *post.Description})
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: fmt.Sprintf("Post `#%d` by <@%s>", post.ID, post.OwnerID),
		Fields:      fields,
	}
}
