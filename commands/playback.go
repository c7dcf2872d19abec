package commands

import (
	"context"
	"fmt"

	"Volfbot/server"
	"Volfbot/utils"

	"github.com/bwmarrin/discordgo"
)

// play resolves the link and queues it, joining the member's channel if needed
func (b *Bot) play(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	srv, iErr := b.commandReady(s, i)
	if iErr != nil {
		return iErr
	}

	if iErr := ensureVoice(ctx, s, i, srv); iErr != nil {
		return iErr
	}

	m, err := srv.CreateMedia(ctx, linkOption(i), requester(i))
	if err != nil {
		return userError(err)
	}

	if err := srv.EnqueueMedia(m); err != nil {
		return userError(err)
	}

	md := m.Metadata()
	return reply(s, i, fmt.Sprintf("🎵 **%s** added to the queue (`%s`)", md.Title(), utils.FormatDuration(md.Length())))
}

// metadata shows what a link resolves to without queueing it
func (b *Bot) metadata(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	srv, iErr := b.commandReady(s, i)
	if iErr != nil {
		return iErr
	}

	m, err := srv.CreateMedia(ctx, linkOption(i), requester(i))
	if err != nil {
		return userError(err)
	}

	md := m.Metadata()
	return replyEmbed(s, i, &discordgo.MessageEmbed{
		Title: md.Title(),
		URL:   m.URL(),
		Color: b.theme,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Length", Value: utils.FormatDuration(md.Length()), Inline: true},
			{Name: "Kind", Value: m.Kind().String(), Inline: true},
		},
	})
}

func (b *Bot) stop(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	return b.simple(s, i, (*server.DiscordServer).StopMedia, "⏹️ Stopped")
}

func (b *Bot) clear(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	return b.simple(s, i, (*server.DiscordServer).ClearQueue, "🧹 Cleared the queue")
}

func (b *Bot) skip(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	return b.simple(s, i, (*server.DiscordServer).SkipMedia, "⏭️ Skipped")
}

func (b *Bot) pause(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	return b.simple(s, i, (*server.DiscordServer).Pause, "⏸️ Paused")
}

func (b *Bot) resume(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	return b.simple(s, i, (*server.DiscordServer).Resume, "▶️ Resumed")
}

func (b *Bot) loop(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	return b.setLooping(s, i, true, "🔁 Looping the queue")
}

func (b *Bot) endLooping(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	return b.setLooping(s, i, false, "➡️ No longer looping")
}

func (b *Bot) setLooping(s *discordgo.Session, i *discordgo.InteractionCreate, looping bool, done string) *interactionError {
	srv, iErr := b.commandReady(s, i)
	if iErr != nil {
		return iErr
	}
	srv.SetLooping(looping)
	return reply(s, i, done)
}

// simple runs an operation that either works or fails with a core error
func (b *Bot) simple(s *discordgo.Session, i *discordgo.InteractionCreate, op func(*server.DiscordServer) error, done string) *interactionError {
	srv, iErr := b.commandReady(s, i)
	if iErr != nil {
		return iErr
	}
	if err := op(srv); err != nil {
		return userError(err)
	}
	return reply(s, i, done)
}

func (b *Bot) pauseButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	return b.button(s, i, (*server.DiscordServer).Pause, "⏸️ Paused")
}

func (b *Bot) resumeButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	return b.button(s, i, (*server.DiscordServer).Resume, "▶️ Resumed")
}

func (b *Bot) skipButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	return b.button(s, i, (*server.DiscordServer).SkipMedia, "⏭️ Skipped")
}

// button answers a now playing control with a whisper
func (b *Bot) button(s *discordgo.Session, i *discordgo.InteractionCreate, op func(*server.DiscordServer) error, done string) *interactionError {
	srv, iErr := b.guildServer(s, i)
	if iErr != nil {
		return iErr
	}
	if err := op(srv); err != nil {
		return userError(err)
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:   1 << 6,
			Content: done,
		},
	})
	if err != nil {
		return &interactionError{err, "Failed to respond"}
	}
	return nil
}
