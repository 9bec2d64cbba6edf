package entity

import (
	"fmt"
	"strings"

	"github.com/vibedl/vibedl/util"
)

type Artwork struct {
	URL  string
	Data []byte
}

// Track is the catalog metadata for one song.
// It is immutable once constructed: acquisition never
// writes back into it, only the artwork blob gets filled
// in lazily by the image fetcher.
type Track struct {
	ID      string
	Title   string
	Artists []string
	Album   string
	Artwork Artwork
	Number  int // track number within the album
	Year    int
}

const (
	TrackFormat   = "mp3"
	ArtworkFormat = "jpg"
)

// certain track titles include the variant description,
// this functions aims to strip out that part:
// > Title: Name - Acoustic
// > Song:  Name
func (track *Track) Song() (song string) {
	song = track.Title
	song = strings.Split(song+" - ", " - ")[0]
	song = strings.Split(song+" (", " (")[0]
	song = strings.Split(song+" [", " [")[0]
	return
}

// Artist joins all credited artists into a single
// display string, primary artist first.
func (track *Track) Artist() string {
	return strings.Join(track.Artists, ", ")
}

// DeliveryName is the filename a single acquired track
// is handed over with, e.g. "Artist - Title.mp3".
func (track *Track) DeliveryName() string {
	return util.LegalizeFilename(
		fmt.Sprintf("%s - %s.%s", track.Artist(), track.Title, TrackFormat), 200)
}
