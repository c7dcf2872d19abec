package commands

import (
	"context"
	"fmt"

	"Volfbot/server"

	"github.com/bwmarrin/discordgo"
)

// join connects the bot to the member's voice channel
func (b *Bot) join(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	srv, iErr := b.commandReady(s, i)
	if iErr != nil {
		return iErr
	}

	ch, ok := userVoiceChannel(s, i)
	if !ok {
		return reply(s, i, "Join a voice channel first 😉")
	}

	result, err := srv.ConnectToVC(ctx, *ch)
	switch result {
	case server.Connected:
		return reply(s, i, fmt.Sprintf("Joined <#%s> 🎧", ch.ID))
	case server.AlreadyConnected:
		return reply(s, i, fmt.Sprintf("I'm already in <#%s> 😅", ch.ID))
	default:
		return userError(err)
	}
}

// disconnect stops playback and leaves voice
func (b *Bot) disconnect(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	srv, iErr := b.commandReady(s, i)
	if iErr != nil {
		return iErr
	}

	if err := srv.DisconnectFromVC(ctx, nil); err != nil {
		return userError(err)
	}
	return reply(s, i, "👋 Left the voice channel")
}
