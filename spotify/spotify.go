// Package spotify adapts the upstream catalog to the acquisition
// pipeline's track model. Client-credentials flow only: no token
// persistence, no user-scoped auth.
package spotify

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vibedl/vibedl/entity"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// collections get capped at fetch time already, well before the
// packager applies its own track cap
const collectionLimit = 50

type Client struct {
	api *spotify.Client
}

func Authenticate(ctx context.Context, id, secret string) (*Client, error) {
	config := &clientcredentials.Config{
		ClientID:     id,
		ClientSecret: secret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog authentication failed: %w", err)
	}
	return &Client{api: spotify.New(spotifyauth.New().Client(ctx, token))}, nil
}

func (client *Client) Track(ctx context.Context, id string) (entity.Track, error) {
	track, err := client.api.GetTrack(ctx, spotify.ID(id))
	if err != nil {
		return entity.Track{}, err
	}
	return mapFullTrack(track), nil
}

// Album resolves the album's name and its tracks as positioned
// batch entries.
func (client *Client) Album(ctx context.Context, id string) (string, []entity.BatchEntry, error) {
	album, err := client.api.GetAlbum(ctx, spotify.ID(id))
	if err != nil {
		return "", nil, err
	}

	entries := make([]entity.BatchEntry, 0, len(album.Tracks.Tracks))
	for at, track := range album.Tracks.Tracks {
		if at == collectionLimit {
			break
		}
		entries = append(entries, entity.BatchEntry{
			Position: at + 1,
			Track: entity.Track{
				ID:      string(track.ID),
				Title:   track.Name,
				Artists: artistNames(track.Artists),
				Album:   album.Name,
				Artwork: entity.Artwork{URL: imageURL(album.Images)},
				Number:  track.TrackNumber,
				Year:    releaseYear(album.ReleaseDate),
			},
		})
	}
	return album.Name, entries, nil
}

// Playlist resolves the playlist's name and its tracks as
// positioned batch entries.
func (client *Client) Playlist(ctx context.Context, id string) (string, []entity.BatchEntry, error) {
	playlist, err := client.api.GetPlaylist(ctx, spotify.ID(id))
	if err != nil {
		return "", nil, err
	}

	entries := make([]entity.BatchEntry, 0, len(playlist.Tracks.Tracks))
	for _, item := range playlist.Tracks.Tracks {
		if item.Track.ID == "" {
			// local or removed playlist items carry no catalog track
			continue
		}
		entries = append(entries, entity.BatchEntry{
			Position: len(entries) + 1,
			Track:    mapFullTrack(&item.Track),
		})
		if len(entries) == collectionLimit {
			break
		}
	}
	return playlist.Name, entries, nil
}

func mapFullTrack(track *spotify.FullTrack) entity.Track {
	return entity.Track{
		ID:      string(track.ID),
		Title:   track.Name,
		Artists: artistNames(track.Artists),
		Album:   track.Album.Name,
		Artwork: entity.Artwork{URL: imageURL(track.Album.Images)},
		Number:  track.TrackNumber,
		Year:    releaseYear(track.Album.ReleaseDate),
	}
}

func artistNames(artists []spotify.SimpleArtist) []string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return names
}

func imageURL(images []spotify.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// releaseYear parses the leading year out of catalog release
// dates, which come as "2006", "2006-01" or "2006-01-02".
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}
