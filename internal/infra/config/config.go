package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	DatabaseURL  string
	DiscordToken string
	DiscordGuild string // optional; empty registers commands globally

	LFGChannelID    string // public announcement channel, optional
	VoiceCategoryID string // parent category for LFG voice rooms, optional

	SweepInterval    time.Duration
	RoomCheckTimeout time.Duration

	CreateCooldown time.Duration
	CooldownScope  string // "user" (global per user) or "guild-user"

	DefaultDuration   time.Duration
	MinDuration       time.Duration
	MaxDuration       time.Duration
	DescriptionMaxLen int
}

// Load reads .env, an optional config.yaml, and the environment; env vars win.
// Missing required keys are fatal at startup, everything else has a default.
func Load(log *zap.SugaredLogger) Config {
	if err := godotenv.Load(); err != nil {
		log.Debugw("no .env file, relying on environment")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("sweep_interval_seconds", 300)
	v.SetDefault("room_check_timeout_seconds", 5)
	v.SetDefault("create_cooldown_minutes", 5)
	v.SetDefault("cooldown_scope", "user")
	v.SetDefault("default_duration_minutes", 60)
	v.SetDefault("min_duration_minutes", 5)
	v.SetDefault("max_duration_minutes", 1440)
	v.SetDefault("description_max_len", 200)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalw("parse config.yaml", "err", err)
		}
	}

	required := func(key string) string {
		val := v.GetString(key)
		if val == "" {
			log.Fatalf("missing required config %s", strings.ToUpper(key))
		}
		return val
	}

	return Config{
		DatabaseURL:  required("database_url"),
		DiscordToken: required("discord_bot_token"),
		DiscordGuild: v.GetString("discord_guild_id"),

		LFGChannelID:    v.GetString("lfg_channel_id"),
		VoiceCategoryID: v.GetString("voice_category_id"),

		SweepInterval:    time.Duration(v.GetInt("sweep_interval_seconds")) * time.Second,
		RoomCheckTimeout: time.Duration(v.GetInt("room_check_timeout_seconds")) * time.Second,

		CreateCooldown: time.Duration(v.GetInt("create_cooldown_minutes")) * time.Minute,
		CooldownScope:  v.GetString("cooldown_scope"),

		DefaultDuration:   time.Duration(v.GetInt("default_duration_minutes")) * time.Minute,
		MinDuration:       time.Duration(v.GetInt("min_duration_minutes")) * time.Minute,
		MaxDuration:       time.Duration(v.GetInt("max_duration_minutes")) * time.Minute,
		DescriptionMaxLen: v.GetInt("description_max_len"),
	}
}
