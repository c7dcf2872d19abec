package handlers

import (
	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
)

var helpFields = []*discordgo.MessageEmbedField{
	{Name: "/join", Value: "Join your voice channel"},
	{Name: "/play `url`", Value: "Queue a YouTube video, joining you if needed"},
	{Name: "/metadata `url`", Value: "Show what a link points at"},
	{Name: "/pause, /resume, /skip", Value: "Control the current video"},
	{Name: "/stop, /clear", Value: "Stop and rewind, or empty the queue once stopped"},
	{Name: "/loop, /end-looping", Value: "Toggle looping the queue"},
	{Name: "/queue, /now-playing, /history", Value: "See what's queued, playing and played"},
	{Name: "/disconnect", Value: "Leave the voice channel"},
}

// HelpEmbedding creates the embedding for the help menu
func HelpEmbedding(s *discordgo.Session, m *discordgo.MessageCreate) {
	botAvatarURL := s.State.User.AvatarURL("64")
	helpEmbed := &discordgo.MessageEmbed{
		Title: "Volfbot Help",
		Thumbnail: &discordgo.MessageEmbedThumbnail{
			URL: botAvatarURL,
		},
		Color:  viper.GetInt("theme"),
		Fields: helpFields,
	}
	s.ChannelMessageSendEmbed(m.ChannelID, helpEmbed)
}
