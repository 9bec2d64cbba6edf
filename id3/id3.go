// Package id3 embeds descriptive metadata and cover art into
// acquired audio files. Tagging is best-effort by contract:
// callers log failures and keep the file.
package id3

import (
	"fmt"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/vibedl/vibedl/entity"
	"github.com/vibedl/vibedl/processor"
)

// a transcode that just finished may not be fully flushed when
// the tag container opens the file, hence the settle delay
const settleDelay = 200 * time.Millisecond

type Tagger struct {
	settle func(time.Duration)
}

func NewTagger() *Tagger {
	return &Tagger{settle: time.Sleep}
}

// Write opens the audio file at path and persists the track's
// title, artist, album, year and track number, plus the cover
// art as a front-cover picture when within the size ceiling.
func (tagger *Tagger) Write(path string, track entity.Track) error {
	tagger.settle(settleDelay)

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("cannot open tag container: %w", err)
	}
	defer tag.Close()

	if track.Title != "" {
		tag.SetTitle(track.Title)
	}
	if artist := track.Artist(); artist != "" {
		tag.SetArtist(artist)
	}
	if track.Album != "" {
		tag.SetAlbum(track.Album)
	}
	if track.Year > 0 {
		tag.SetYear(fmt.Sprintf("%d", track.Year))
	}
	if track.Number > 0 {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"),
			tag.DefaultEncoding(), fmt.Sprintf("%d", track.Number))
	}

	if data := track.Artwork.Data; len(data) > 0 && len(data) <= processor.ArtworkSizeCeiling {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     data,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("cannot persist tags: %w", err)
	}
	return nil
}
