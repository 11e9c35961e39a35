package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	lfgdiscord "github.com/groupup-gg/lfg-bot/internal/adapters/discord"
	"github.com/groupup-gg/lfg-bot/internal/app/service"
	"github.com/groupup-gg/lfg-bot/internal/domain"
	"github.com/groupup-gg/lfg-bot/internal/infra/config"
	"github.com/groupup-gg/lfg-bot/internal/infra/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	logger, _ := zap.NewProduction()
	if os.Getenv("LOG_DEV") != "" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	log := logger.Sugar()

	cfg := config.Load(log)

	// DB
	db, err := storage.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("open db", "err", err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatalw("migrate", "err", err)
	}
	log.Infow("db ready and migrated")

	repo := storage.NewLFGRepo(db)
	catalog := domain.DefaultCatalog()

	// Discord session
	auth := cfg.DiscordToken
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(auth)), "bot ") {
		auth = "Bot " + strings.TrimSpace(auth)
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatalw("discord session", "err", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
	if err := s.Open(); err != nil {
		log.Fatalw("discord open", "err", err)
	}
	defer s.Close()
	log.Infow("connected", "user", s.State.User.Username, "id", s.State.User.ID)

	// Collaborators + services
	rooms := lfgdiscord.NewRoomManager(s, cfg.VoiceCategoryID, log)
	announcer := lfgdiscord.NewAnnouncer(s, cfg.LFGChannelID, catalog, log)
	cooldown := service.NewCooldown(cfg.CreateCooldown, service.CooldownScope(cfg.CooldownScope))

	lfgSvc := service.NewLFGService(repo, rooms, announcer, catalog, cooldown, service.LFGConfig{
		DefaultDuration:   cfg.DefaultDuration,
		MinDuration:       cfg.MinDuration,
		MaxDuration:       cfg.MaxDuration,
		DescriptionMaxLen: cfg.DescriptionMaxLen,
	}, log)

	// Router
	r := lfgdiscord.NewRouter(s, cfg.DiscordGuild, lfgSvc, catalog, log)
	if err := r.Register(); err != nil {
		log.Fatalw("register commands", "err", err)
	}
	r.Handlers()
	log.Infow("commands registered", "guild", cfg.DiscordGuild)

	// Background reconciliation
	sweeper := service.NewSweeper(repo, rooms, announcer, cfg.SweepInterval, cfg.RoomCheckTimeout, log)
	if err := sweeper.Start(); err != nil {
		log.Fatalw("start sweeper", "err", err)
	}
	defer sweeper.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop
	log.Infow("shutting down")
}
