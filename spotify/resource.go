package spotify

import "regexp"

type Kind string

const (
	KindTrack    Kind = "track"
	KindAlbum    Kind = "album"
	KindPlaylist Kind = "playlist"
)

// Resource is a parsed catalog link: what it points at and its ID.
type Resource struct {
	Kind Kind
	ID   string
}

var resourcePattern = regexp.MustCompile(
	`spotify\.com/(?:intl-[a-z]+/)?(track|album|playlist)/([a-zA-Z0-9]+)`)

// DetectResource recognizes open.spotify.com track, album and
// playlist links, ignoring query strings and locale prefixes.
func DetectResource(url string) (Resource, bool) {
	match := resourcePattern.FindStringSubmatch(url)
	if match == nil {
		return Resource{}, false
	}
	return Resource{Kind: Kind(match[1]), ID: match[2]}, true
}
