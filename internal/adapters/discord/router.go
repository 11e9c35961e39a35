package discord

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/groupup-gg/lfg-bot/internal/app/service"
	"github.com/groupup-gg/lfg-bot/internal/domain"
)

type Router struct {
	s       *discordgo.Session
	guildID string // empty registers the commands globally
	lfg     *service.LFGService
	catalog *domain.Catalog
	log     *zap.SugaredLogger
}

func NewRouter(
	s *discordgo.Session,
	guildID string,
	lfg *service.LFGService,
	catalog *domain.Catalog,
	log *zap.SugaredLogger,
) *Router {
	return &Router{s: s, guildID: guildID, lfg: lfg, catalog: catalog, log: log}
}

func (r *Router) Register() error {
	appID := r.s.State.User.ID
	for _, cmd := range Commands {
		if _, err := r.s.ApplicationCommandCreate(appID, r.guildID, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(func(s *discordgo.Session, ic *discordgo.InteractionCreate) {
		switch ic.Type {
		case discordgo.InteractionApplicationCommand:
			r.handleSlashCommand(s, ic)
		case discordgo.InteractionApplicationCommandAutocomplete:
			r.handleAutocomplete(s, ic)
		case discordgo.InteractionMessageComponent:
			r.handleMessageComponent(s, ic)
		}
	})
}
