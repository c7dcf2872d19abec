package media

import "errors"

var (
	ErrInvalidLink         = errors.New("link is not a recognised youtube video")
	ErrUnsupportedPlaylist = errors.New("playlists are not supported")
	ErrResolutionFailure   = errors.New("could not resolve media")
)
