package commands

import (
	"errors"

	"Volfbot/media"
	"Volfbot/queue"
	"Volfbot/voice"

	"github.com/Strum355/log"
	"github.com/bwmarrin/discordgo"
)

type interactionError struct {
	err     error
	message string
}

// Handle handles responding to error messages within Discord
func (e *interactionError) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) {
	log.WithError(e.err).Error(e.message)
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:   1 << 6, // Whisper Flag
			Content: e.message,
		},
	})
	if err != nil {
		// already deferred
		s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &e.message})
	}
}

// userError turns an error from the playback core into something worth showing the user
func userError(err error) *interactionError {
	return &interactionError{err, userMessage(err)}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, media.ErrUnsupportedPlaylist):
		return "Playlists aren't supported, send a single video 📜"
	case errors.Is(err, media.ErrInvalidLink):
		return "❌ That isn't a YouTube video link!"
	case errors.Is(err, media.ErrResolutionFailure):
		return "❌ Could not fetch the video. It may be private or removed."
	case errors.Is(err, voice.ErrConnectionTimeout):
		return "Timed out joining your voice channel ⌛"
	case errors.Is(err, voice.ErrNotConnected):
		return "I'm not in a voice channel 🔇"
	case errors.Is(err, queue.ErrQueueBusy):
		return "Can't clear the queue while something is playing, use /stop first"
	case errors.Is(err, queue.ErrNotPlaying):
		return "Nothing is playing right now 😶"
	default:
		return "Something went wrong 😵"
	}
}
