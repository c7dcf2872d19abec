package config

import (
	"strings"
	"time"

	"github.com/Strum355/log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func InitConfig() {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, proceeding with defaults.")
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	initDefaults()
	viper.AutomaticEnv()
}

// Settings is a typed snapshot of the configuration used to wire the bot together
type Settings struct {
	Token    string
	AppID    string
	GuildID  string
	Prefix   string
	Theme    int
	RedisURL string
	DSN      string
	FFmpeg   string

	CacheTTL        time.Duration
	VoiceTimeout    time.Duration
	IdleTimeout     time.Duration
	ResolverTimeout time.Duration

	TextRate  float64
	TextBurst int
}

// Load reads the current configuration. InitConfig must have been called first.
func Load() Settings {
	return Settings{
		Token:    viper.GetString("discord.token"),
		AppID:    viper.GetString("discord.app.id"),
		GuildID:  viper.GetString("discord.guild.id"),
		Prefix:   viper.GetString("prefix"),
		Theme:    viper.GetInt("theme"),
		RedisURL: viper.GetString("redis.address"),
		DSN:      viper.GetString("database.dsn"),
		FFmpeg:   viper.GetString("ffmpeg.path"),

		CacheTTL:        seconds("cache.youtube"),
		VoiceTimeout:    seconds("voice.timeout"),
		IdleTimeout:     seconds("voice.idle"),
		ResolverTimeout: seconds("resolver.timeout"),

		TextRate:  viper.GetFloat64("text.rate"),
		TextBurst: viper.GetInt("text.burst"),
	}
}

func seconds(key string) time.Duration {
	return time.Duration(viper.GetInt(key)) * time.Second
}
