package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Volfbot/db_client"
	"Volfbot/media"
	"Volfbot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

const historyLimit = 10

// showQueue lists everything queued with the cursor marked
func (b *Bot) showQueue(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	srv, iErr := b.commandReady(s, i)
	if iErr != nil {
		return iErr
	}

	q := srv.Queue()
	items := q.Items()
	if len(items) == 0 {
		return reply(s, i, "The queue is empty 📭")
	}

	return replyEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: queueDescription(items, q.Index(), q.IsPlaying()),
		Color:       b.theme,
		Footer: &discordgo.MessageEmbedFooter{
			Text: queueFooter(len(items), q.TotalLength(), q.Looping()),
		},
	})
}

func queueDescription(items []*media.Media, index int, playing bool) string {
	lines := lo.Map(items, func(m *media.Media, n int) string {
		md := m.Metadata()
		marker := "  "
		if playing && n == index {
			marker = "▶️"
		}
		return fmt.Sprintf("%s `%d.` [%s](%s) (`%s`) queued by %s",
			marker, n+1, md.Title(), m.URL(), utils.FormatDuration(md.Length()), md.QueuedBy().Name)
	})
	return strings.Join(lines, "\n")
}

func queueFooter(count int, total time.Duration, looping bool) string {
	footer := fmt.Sprintf("%d items, %s total", count, utils.FormatDuration(total))
	if looping {
		footer += " 🔁"
	}
	return footer
}

// nowPlaying shows the current video with a progress bar and controls
func (b *Bot) nowPlaying(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	srv, iErr := b.commandReady(s, i)
	if iErr != nil {
		return iErr
	}

	m, elapsed := srv.NowPlaying()
	if m == nil {
		return reply(s, i, "Nothing is playing right now 😶")
	}
	return replyEmbed(s, i, nowPlayingEmbed(m, elapsed, b.theme), nowPlayingControls())
}

func nowPlayingEmbed(m *media.Media, elapsed time.Duration, theme int) *discordgo.MessageEmbed {
	md := m.Metadata()
	description := fmt.Sprintf("[%s](%s) [<@%s>]\n\n%s [%s/%s]",
		md.Title(), m.URL(), md.QueuedBy().ID,
		utils.ProgressBar(elapsed, md.Length()),
		utils.FormatDuration(elapsed), utils.FormatDuration(md.Length()))

	return &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Description: description,
		Color:       theme,
	}
}

func nowPlayingControls() discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Pause", Style: discordgo.SecondaryButton, CustomID: "pause"},
			discordgo.Button{Label: "Resume", Style: discordgo.SecondaryButton, CustomID: "resume"},
			discordgo.Button{Label: "Skip", Style: discordgo.PrimaryButton, CustomID: "skip"},
		},
	}
}

// showHistory lists the guild's most recent plays
func (b *Bot) showHistory(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) *interactionError {
	srv, iErr := b.commandReady(s, i)
	if iErr != nil {
		return iErr
	}
	if b.history == nil {
		return reply(s, i, "History isn't enabled on this bot 📼")
	}

	records, err := b.history.RecentPlays(ctx, srv.GuildID(), historyLimit)
	if err != nil {
		return &interactionError{err, "Couldn't load the play history"}
	}
	if len(records) == 0 {
		return reply(s, i, "Nothing has been played here yet 📭")
	}

	return replyEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Recently Played",
		Description: historyDescription(records),
		Color:       b.theme,
	})
}

func historyDescription(records []db_client.PlayRecord) string {
	lines := lo.Map(records, func(r db_client.PlayRecord, _ int) string {
		return fmt.Sprintf("<t:%d:R> [%s](%s) queued by %s", r.PlayedAt.Unix(), r.Title, r.URL, r.QueuedByName)
	})
	return strings.Join(lines, "\n")
}
