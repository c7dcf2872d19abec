package handlers

import (
	"context"
	"errors"
	"fmt"

	"Volfbot/server"
	"Volfbot/voice"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// VoiceStateHandler tidies up when the bot is removed from voice by someone else
func VoiceStateHandler(registry *server.Registry) func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	return func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
		if s.State.User == nil || v.VoiceState == nil {
			return
		}
		botLeftVoice(registry, s.State.User.ID, v.VoiceState)
	}
}

func botLeftVoice(registry *server.Registry, botID string, v *discordgo.VoiceState) {
	if v.UserID != botID || v.ChannelID != "" {
		return
	}

	guildID, err := snowflake.Parse(v.GuildID)
	if err != nil {
		return
	}
	srv, ok := registry.Lookup(guildID)
	if !ok {
		return
	}

	err = srv.DisconnectFromVC(context.Background(), nil)
	if err != nil && !errors.Is(err, voice.ErrNotConnected) {
		log.WithError(err).Error(fmt.Sprintf("Failed to clean up voice in guild %s", guildID))
	}
}
