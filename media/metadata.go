package media

import (
	"fmt"
	"time"

	"Volfbot/utils"

	"github.com/disgoorg/snowflake/v2"
)

// User identifies who queued a piece of media
type User struct {
	ID   snowflake.ID // Discord user ID
	Name string       // Username at the time of queueing
}

// Metadata describes one playable item. It is fixed once constructed.
type Metadata struct {
	title       string
	length      time.Duration
	queuedBy    User
	playlistRef string
}

// NewMetadata builds the metadata for an item, playlistRef is empty for single videos
func NewMetadata(title string, length time.Duration, queuedBy User, playlistRef string) Metadata {
	return Metadata{
		title:       title,
		length:      length,
		queuedBy:    queuedBy,
		playlistRef: playlistRef,
	}
}

func (m Metadata) Title() string {
	return m.title
}

func (m Metadata) Length() time.Duration {
	return m.length
}

func (m Metadata) QueuedBy() User {
	return m.queuedBy
}

func (m Metadata) IsPlaylist() bool {
	return m.playlistRef != ""
}

// PlaylistRef returns the playlist locator, empty unless IsPlaylist
func (m Metadata) PlaylistRef() string {
	return m.playlistRef
}

// String renders the metadata the way the metadata command prints it
func (m Metadata) String() string {
	return fmt.Sprintf("%s (%s) queued by %s", m.title, utils.FormatDuration(m.length), m.queuedBy.Name)
}
