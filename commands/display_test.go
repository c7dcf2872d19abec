package commands

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"Volfbot/db_client"
	"Volfbot/media"
	"Volfbot/queue"
	"Volfbot/voice"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMedia(title, id string) *media.Media {
	md := media.NewMetadata(title, 3*time.Minute, media.User{ID: 42, Name: "volf"}, "")
	return media.NewVideo(media.CanonicalURL(id), md, "stream", nil)
}

func TestQueueDescription(t *testing.T) {
	items := []*media.Media{
		testMedia("first", "aaaaaaaaaaa"),
		testMedia("second", "bbbbbbbbbbb"),
	}

	assert.Equal(t,
		"   `1.` [first](https://www.youtube.com/watch?v=aaaaaaaaaaa) (`00:03:00`) queued by volf\n"+
			"▶️ `2.` [second](https://www.youtube.com/watch?v=bbbbbbbbbbb) (`00:03:00`) queued by volf",
		queueDescription(items, 1, true))

	assert.NotContains(t, queueDescription(items, 1, false), "▶️")
}

func TestQueueFooter(t *testing.T) {
	assert.Equal(t, "2 items, 00:06:00 total", queueFooter(2, 6*time.Minute, false))
	assert.Equal(t, "2 items, 00:06:00 total 🔁", queueFooter(2, 6*time.Minute, true))
}

func TestNowPlayingEmbed(t *testing.T) {
	embed := nowPlayingEmbed(testMedia("first", "aaaaaaaaaaa"), 90*time.Second, 0xe0457b)

	assert.Equal(t, "Now Playing", embed.Title)
	assert.Equal(t, 0xe0457b, embed.Color)
	assert.Contains(t, embed.Description, "[first](https://www.youtube.com/watch?v=aaaaaaaaaaa) [<@42>]")
	assert.Contains(t, embed.Description, "[00:01:30/00:03:00]")
}

func TestNowPlayingControls(t *testing.T) {
	row, ok := nowPlayingControls().(discordgo.ActionsRow)
	require.True(t, ok)

	ids := []string{}
	for _, c := range row.Components {
		ids = append(ids, c.(discordgo.Button).CustomID)
	}
	assert.Equal(t, []string{"pause", "resume", "skip"}, ids)
}

func TestComponentRouting(t *testing.T) {
	c := &Commands{}
	var called []string
	for _, name := range []string{"pause", "resume", "skip"} {
		c.AddComponent(name, func(name string) CommandHandler {
			return func(_ context.Context, _ *discordgo.Session, _ *discordgo.InteractionCreate) *interactionError {
				called = append(called, name)
				return nil
			}
		}(name))
	}

	for _, id := range []string{"pause", "resume", "skip"} {
		c.componentHandlers[id[:1]](context.Background(), nil, nil)
	}
	assert.Equal(t, []string{"pause", "resume", "skip"}, called)
}

func TestHistoryDescription(t *testing.T) {
	records := []db_client.PlayRecord{
		{Title: "first", URL: "https://www.youtube.com/watch?v=aaaaaaaaaaa", QueuedByName: "volf", PlayedAt: time.Unix(1700000000, 0)},
	}

	assert.Equal(t, "<t:1700000000:R> [first](https://www.youtube.com/watch?v=aaaaaaaaaaa) queued by volf", historyDescription(records))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{media.ErrInvalidLink, "❌ That isn't a YouTube video link!"},
		{media.ErrUnsupportedPlaylist, "Playlists aren't supported, send a single video 📜"},
		{fmt.Errorf("%w: %w", media.ErrResolutionFailure, errors.New("x")), "❌ Could not fetch the video. It may be private or removed."},
		{voice.ErrConnectionTimeout, "Timed out joining your voice channel ⌛"},
		{voice.ErrNotConnected, "I'm not in a voice channel 🔇"},
		{queue.ErrQueueBusy, "Can't clear the queue while something is playing, use /stop first"},
		{queue.ErrNotPlaying, "Nothing is playing right now 😶"},
		{errors.New("boom"), "Something went wrong 😵"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, userMessage(tt.err), tt.err.Error())
	}
}
