package spotify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zmb3/spotify/v2"
)

func TestDetectResource(t *testing.T) {
	for url, expected := range map[string]Resource{
		"https://open.spotify.com/track/6b2oQwSGFkzsMtQruIWm2p":                    {KindTrack, "6b2oQwSGFkzsMtQruIWm2p"},
		"https://open.spotify.com/album/6fQElzBNTiEMGdIeY0hy5l?si=abc123":          {KindAlbum, "6fQElzBNTiEMGdIeY0hy5l"},
		"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M":                 {KindPlaylist, "37i9dQZF1DXcBWIGoYBM5M"},
		"https://open.spotify.com/intl-it/track/6b2oQwSGFkzsMtQruIWm2p?si=xyz":     {KindTrack, "6b2oQwSGFkzsMtQruIWm2p"},
		"open.spotify.com/track/6b2oQwSGFkzsMtQruIWm2p":                            {KindTrack, "6b2oQwSGFkzsMtQruIWm2p"},
		"  https://open.spotify.com/album/6fQElzBNTiEMGdIeY0hy5l trailing words  ": {KindAlbum, "6fQElzBNTiEMGdIeY0hy5l"},
	} {
		resource, ok := DetectResource(url)
		assert.True(t, ok, url)
		assert.Equal(t, expected, resource, url)
	}
}

func TestDetectResourceRejects(t *testing.T) {
	for _, url := range []string{
		"",
		"https://example.com/track/6b2oQwSGFkzsMtQruIWm2p",
		"https://open.spotify.com/artist/4gzpq5DPGxSnKTe4SA8HAU",
		"https://open.spotify.com/show/4rOoJ6Egrf8K2IrywzwOMk",
		"just some words",
	} {
		_, ok := DetectResource(url)
		assert.False(t, ok, url)
	}
}

func TestReleaseYear(t *testing.T) {
	assert.Equal(t, 2006, releaseYear("2006"))
	assert.Equal(t, 2006, releaseYear("2006-01"))
	assert.Equal(t, 2006, releaseYear("2006-01-02"))
	assert.Zero(t, releaseYear(""))
	assert.Zero(t, releaseYear("06"))
	assert.Zero(t, releaseYear("soon"))
}

func TestArtistNames(t *testing.T) {
	names := artistNames([]spotify.SimpleArtist{{Name: "Daft Punk"}, {Name: "Pharrell Williams"}})
	assert.Equal(t, []string{"Daft Punk", "Pharrell Williams"}, names)
	assert.Empty(t, artistNames(nil))
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "https://i.scdn.co/image/a", imageURL([]spotify.Image{
		{URL: "https://i.scdn.co/image/a"}, {URL: "https://i.scdn.co/image/b"},
	}))
	assert.Empty(t, imageURL(nil))
}

func TestMapFullTrack(t *testing.T) {
	full := &spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			ID:          "6b2oQwSGFkzsMtQruIWm2p",
			Name:        "Everlong",
			Artists:     []spotify.SimpleArtist{{Name: "Foo Fighters"}},
			TrackNumber: 11,
		},
		Album: spotify.SimpleAlbum{
			Name:        "The Colour and the Shape",
			ReleaseDate: "1997-05-20",
			Images:      []spotify.Image{{URL: "https://i.scdn.co/image/cover"}},
		},
	}
	track := mapFullTrack(full)
	assert.Equal(t, "6b2oQwSGFkzsMtQruIWm2p", track.ID)
	assert.Equal(t, "Everlong", track.Title)
	assert.Equal(t, []string{"Foo Fighters"}, track.Artists)
	assert.Equal(t, "The Colour and the Shape", track.Album)
	assert.Equal(t, "https://i.scdn.co/image/cover", track.Artwork.URL)
	assert.Equal(t, 11, track.Number)
	assert.Equal(t, 1997, track.Year)
}
