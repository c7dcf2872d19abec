package handlers

import (
	"Volfbot/server"

	"github.com/bwmarrin/discordgo"
)

// HandlerConfig handles configs for intents and handlers
func HandlerConfig(s *discordgo.Session, registry *server.Registry) {
	s.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates | discordgo.IntentsMessageContent
	s.AddHandler(MessageHandler)
	s.AddHandler(VoiceStateHandler(registry))
}
