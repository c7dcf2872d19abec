package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"Volfbot/commands"
	"Volfbot/config"
	"Volfbot/db_client"
	"Volfbot/handlers"
	"Volfbot/music"
	"Volfbot/redis_client"
	"Volfbot/server"
	"Volfbot/voice"
	"Volfbot/yt"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var production bool

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volfbot",
		Short: "Discord bot that plays YouTube audio in voice channels",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Sets logger to json in production
			if production {
				log.InitJSONLogger(&log.Config{Output: os.Stdout})
			} else {
				log.InitSimpleLogger(&log.Config{Output: os.Stdout})
			}

			// Sets up Configurations for Viper
			config.InitConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(config.Load())
		},
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&production, "production", "p", false, "enables production with json logging")

	cmd.AddCommand(resolveCmd())
	return cmd
}

// resolveCmd looks a link up the same way /metadata does, without touching Discord
func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <link>",
		Short: "Print the title, length and stream of a YouTube link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx := cmd.Context()

			rdb, err := redis_client.New(ctx, cfg.RedisURL)
			if err != nil {
				log.WithError(err).Error("Redis unavailable, resolving without a cache")
			}

			res, err := yt.NewYouTubeManager(rdb, cfg.CacheTTL, cfg.ResolverTimeout).Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", res.Title, res.Duration, res.StreamURL)
			return nil
		},
	}
}

func run(cfg config.Settings) error {
	ctx := context.Background()

	// Creates Discord Bot Session
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.WithError(err).Error("Failed to create Discord session")
		return err
	}

	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info("Bot has registered handlers")
	})

	rdb, err := redis_client.New(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Error("Redis unavailable, resolving without a cache")
	}

	deps := server.Deps{
		Transport:      voice.NewDiscordTransport(s),
		Resolver:       yt.NewYouTubeManager(rdb, cfg.CacheTTL, cfg.ResolverTimeout),
		Source:         music.NewFFmpeg(cfg.FFmpeg),
		Text:           s,
		ConnectTimeout: cfg.VoiceTimeout,
		ResolveTimeout: cfg.ResolverTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		TextRate:       rate.Limit(cfg.TextRate),
		TextBurst:      cfg.TextBurst,
	}

	var history *db_client.History
	if cfg.DSN != "" {
		db, err := db_client.Init(ctx, cfg.DSN)
		if err != nil {
			log.WithError(err).Error("Database unavailable, play history is disabled")
		} else {
			history = db_client.NewHistory(db)
			deps.History = history
		}
	}

	registry := server.NewRegistry()

	// Configuring Intents and Adding Handlers
	handlers.HandlerConfig(s, registry)

	// Register Slash and Component Commands
	bot := commands.NewBot(registry, deps, history, cfg.Theme)
	if err := bot.RegisterSlashCommands(s, cfg.AppID, cfg.GuildID); err != nil {
		return err
	}

	// Connecting to Discord Server Gateway
	if err := s.Open(); err != nil {
		log.WithError(err).Error("Failed to open gateway connection")
		return err
	}
	log.Info("Bot is initialising")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	<-sc
	gracefulShutdown(s, registry)
	return nil
}

// gracefulShutdown leaves every voice channel before closing the gateway
func gracefulShutdown(s *discordgo.Session, registry *server.Registry) {
	log.Info("Starting graceful shutdown...")

	if err := registry.Shutdown(); err != nil {
		log.WithError(err).Error("Some servers did not shut down cleanly")
	}

	if err := s.Close(); err != nil {
		log.WithError(err).Error("Failed to close Discord session")
	}

	log.Info("Cleanly exiting")
}
