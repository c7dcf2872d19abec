package handlers

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

// MessageHandler handles message commands
func MessageHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	// If message is sent from the bot
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	switch prefixCommand(m.Content, viper.GetString("prefix")) {
	case "":
		return
	case "help":
		HelpEmbedding(s, m)
	default:
		s.ChannelMessageSend(m.ChannelID, "type `"+viper.GetString("prefix")+"help` to open help menu.")
	}
}

// prefixCommand returns the word following prefix, "?" for a bare or unknown prefix and "" for anything else
func prefixCommand(content, prefix string) string {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return ""
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 || fields[0] != "help" {
		return "?"
	}
	return fields[0]
}
