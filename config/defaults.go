package config

import (
	"os"

	"github.com/spf13/viper"
)

func initDefaults() {
	viper.SetDefault("discord.token", os.Getenv("discord_token"))
	viper.SetDefault("discord.app.id", os.Getenv("discord_app_id"))
	viper.SetDefault("discord.guild.id", "")
	viper.SetDefault("prefix", "^")
	viper.SetDefault("theme", 0xe0457b)

	viper.SetDefault("redis.address", os.Getenv("redis_address"))
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("cache.youtube", 3600)

	viper.SetDefault("voice.timeout", 10)
	viper.SetDefault("voice.idle", 300)
	viper.SetDefault("resolver.timeout", 20)

	viper.SetDefault("text.rate", 1)
	viper.SetDefault("text.burst", 5)

	viper.SetDefault("ffmpeg.path", "ffmpeg")
}
