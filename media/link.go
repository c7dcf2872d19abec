package media

import (
	"regexp"
	"strings"
)

var (
	videoURLPattern    = regexp.MustCompile(`^(?:https?://)?(?:(?:www\.|m\.|music\.)?youtube\.com/(?:watch\?(?:[^#]*&)?v=|embed/|shorts/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[?&#/]\S*)?$`)
	videoIDPattern     = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	playlistURLPattern = regexp.MustCompile(`[?&]list=[A-Za-z0-9_-]{34}(?:[&#]|$)`)
	playlistIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{34}$`)
)

// ParseLink extracts the video ID from a youtube link.
// Links carrying a playlist are rejected rather than expanded.
func ParseLink(link string) (string, error) {
	link = strings.TrimSpace(link)

	if playlistURLPattern.MatchString(link) || playlistIDPattern.MatchString(link) {
		return "", ErrUnsupportedPlaylist
	}

	if videoIDPattern.MatchString(link) {
		return link, nil
	}

	matches := videoURLPattern.FindStringSubmatch(link)
	if len(matches) < 2 {
		return "", ErrInvalidLink
	}
	return matches[1], nil
}

// CanonicalURL returns the watch URL for a video ID
func CanonicalURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
