package commands

import (
	"context"
	"fmt"

	"Volfbot/media"
	"Volfbot/server"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// commandReady defers the response and returns the invoking guild's server
func (b *Bot) commandReady(s *discordgo.Session, i *discordgo.InteractionCreate) (*server.DiscordServer, *interactionError) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		return nil, &interactionError{err, "Failed to respond"}
	}

	return b.guildServer(s, i)
}

func (b *Bot) guildServer(s *discordgo.Session, i *discordgo.InteractionCreate) (*server.DiscordServer, *interactionError) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return nil, &interactionError{err, "This command is only available in a valid server"}
	}

	srv := b.registry.GetServer(server.New(guildID, b.deps))
	if channelID, err := snowflake.Parse(i.ChannelID); err == nil {
		srv.SetLastTextChannel(server.Channel{ID: channelID, Name: channelName(s, i.ChannelID)})
	}
	return srv, nil
}

func channelName(s *discordgo.Session, channelID string) string {
	if ch, err := s.State.Channel(channelID); err == nil {
		return ch.Name
	}
	return ""
}

// userVoiceChannel is the voice channel the invoking member is sitting in
func userVoiceChannel(s *discordgo.Session, i *discordgo.InteractionCreate) (*server.Channel, bool) {
	vs, err := s.State.VoiceState(i.GuildID, i.Member.User.ID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return nil, false
	}

	id, err := snowflake.Parse(vs.ChannelID)
	if err != nil {
		return nil, false
	}
	return &server.Channel{ID: id, Name: channelName(s, vs.ChannelID)}, true
}

func requester(i *discordgo.InteractionCreate) media.User {
	id, _ := snowflake.Parse(i.Member.User.ID)
	return media.User{ID: id, Name: i.Member.User.Username}
}

func linkOption(i *discordgo.InteractionCreate) string {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return ""
	}
	return options[0].StringValue()
}

// reply replaces the deferred response
func reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) *interactionError {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		return &interactionError{err, "Failed to respond"}
	}
	return nil
}

func replyEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) *interactionError {
	edit := &discordgo.WebhookEdit{Embeds: &[]*discordgo.MessageEmbed{embed}}
	if len(components) > 0 {
		edit.Components = &components
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		return &interactionError{err, "Failed to respond"}
	}
	return nil
}

// ensureVoice joins the member's channel if the bot is not in voice yet
func ensureVoice(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, srv *server.DiscordServer) *interactionError {
	if srv.Connection() != nil {
		return nil
	}

	ch, ok := userVoiceChannel(s, i)
	if !ok {
		return &interactionError{fmt.Errorf("member %s is not in voice", i.Member.User.ID), "Join a voice channel first 😉"}
	}
	if _, err := srv.ConnectToVC(ctx, *ch); err != nil {
		return userError(err)
	}
	return nil
}
