package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/vibedl/vibedl/downloader"
	"github.com/vibedl/vibedl/engine"
	"github.com/vibedl/vibedl/entity"
	"github.com/vibedl/vibedl/fetcher"
	"github.com/vibedl/vibedl/id3"
	"github.com/vibedl/vibedl/ladder"
	"github.com/vibedl/vibedl/packager"
	"github.com/vibedl/vibedl/provider"
	"github.com/vibedl/vibedl/spotify"
	"github.com/vibedl/vibedl/util"
	"github.com/vibedl/vibedl/workspace"
)

func init() {
	cmdRoot.AddCommand(cmdGet())
}

// media glues the search registry and the fetch client together
// as the engine's source.
type media struct {
	*provider.Registry
	*fetcher.YTDLP
}

func cmdGet() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "get <spotify-url>",
		Short:        "Acquire a track, album or playlist from a catalog link",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				output      = util.ErrWrap(xdg.UserDirs.Music)(cmd.Flags().GetString("output"))
				concurrency = util.ErrWrap(packager.DefaultConcurrency)(cmd.Flags().GetInt("concurrency"))
				trackCap    = util.ErrWrap(packager.DefaultTrackCap)(cmd.Flags().GetInt("track-cap"))
				noArtwork   = util.ErrWrap(false)(cmd.Flags().GetBool("no-artwork"))
				brand       = util.ErrWrap("")(cmd.Flags().GetString("brand"))
				clientID    = util.ErrWrap(os.Getenv("SPOTIFY_CLIENT_ID"))(cmd.Flags().GetString("spotify-id"))
				secret      = util.ErrWrap(os.Getenv("SPOTIFY_CLIENT_SECRET"))(cmd.Flags().GetString("spotify-secret"))
				ctx         = cmd.Context()
			)

			resource, ok := spotify.DetectResource(args[0])
			if !ok {
				return fmt.Errorf("unsupported catalog link: %s", args[0])
			}

			tui.Lot("auth").Printf("authenticating")
			catalog, err := spotify.Authenticate(ctx, clientID, secret)
			if err != nil {
				return err
			}
			tui.Lot("auth").Close()

			var (
				counter  atomic.Uint64
				identity = func() string { return ladder.Identity(counter.Add(1) - 1) }
				client   = fetcher.NewYTDLP()
				registry = provider.NewRegistry().
						Register(ladder.SoundCloud, client.Searcher(ladder.SoundCloud)).
						Register(ladder.YouTube, provider.Fallback(
							provider.NewYouTube(identity), client.Searcher(ladder.YouTube)))
				artwork engine.ArtworkFetcher
			)
			if !noArtwork {
				artwork = downloader.NewHTTP(identity)
			}

			acquirer := engine.New(media{registry, client}, engine.Options{
				Tagger:  id3.NewTagger(),
				Artwork: artwork,
				Logf:    tui.Printf,
			})

			scratch, err := workspace.New("", "vibedl")
			if err != nil {
				return err
			}
			defer scratch.Close()

			if resource.Kind == spotify.KindTrack {
				return getTrack(cmd, catalog, acquirer, scratch, resource.ID, output, brand)
			}
			return getCollection(cmd, catalog, acquirer, scratch, resource, output, brand, concurrency, trackCap)
		},
	}
	cmd.Flags().StringP("output", "o", xdg.UserDirs.Music, "Destination directory")
	cmd.Flags().IntP("concurrency", "c", packager.DefaultConcurrency, "Concurrent acquisitions within a batch")
	cmd.Flags().Int("track-cap", packager.DefaultTrackCap, "Maximum tracks processed per batch")
	cmd.Flags().Bool("no-artwork", false, "Skip cover art fetching and embedding")
	cmd.Flags().String("brand", "", "Prefix prepended to delivered file names")
	cmd.Flags().String("spotify-id", os.Getenv("SPOTIFY_CLIENT_ID"), "Catalog API client ID")
	cmd.Flags().String("spotify-secret", os.Getenv("SPOTIFY_CLIENT_SECRET"), "Catalog API client secret")
	return cmd
}

func getTrack(cmd *cobra.Command, catalog *spotify.Client, acquirer *engine.Engine, scratch *workspace.Workspace, id, output, brand string) error {
	track, err := catalog.Track(cmd.Context(), id)
	if err != nil {
		return err
	}

	tui.Lot("acquire").Printf("%s by %s", track.Title, track.Artist())
	result := acquirer.Acquire(cmd.Context(), track, scratch)
	tui.Lot("acquire").Wipe()
	if result.Err != nil {
		tui.AnchorPrintf("%s by %s failed after %d attempts", track.Title, track.Artist(), len(result.Attempts))
		return result.Err
	}

	destination := filepath.Join(output, util.LegalizeFilename(brand+track.DeliveryName(), 200))
	if err := util.FileMoveOrCopy(result.Path, destination); err != nil {
		return err
	}
	tui.Printf("saved %s", destination)
	return nil
}

func getCollection(cmd *cobra.Command, catalog *spotify.Client, acquirer *engine.Engine, scratch *workspace.Workspace, resource spotify.Resource, output, brand string, concurrency, trackCap int) error {
	var (
		name    string
		entries []entity.BatchEntry
		err     error
	)
	if resource.Kind == spotify.KindAlbum {
		name, entries, err = catalog.Album(cmd.Context(), resource.ID)
	} else {
		name, entries, err = catalog.Playlist(cmd.Context(), resource.ID)
	}
	if err != nil {
		return err
	}

	tui.Lot("batch").Printf("%s, %d tracks", name, len(entries))
	archive, err := packager.New(acquirer).Pack(cmd.Context(),
		entity.BatchJob{Name: name, Entries: entries}, scratch,
		packager.Options{Concurrency: concurrency, TrackCap: trackCap, Logf: tui.Printf})
	tui.Lot("batch").Wipe()
	if archive != nil {
		tui.Printf("%d of %d tracks acquired", archive.Succeeded, len(archive.Outcomes))
	}
	if err != nil {
		return err
	}

	destination := filepath.Join(output, util.LegalizeFilename(brand+name+".zip", 200))
	if err := os.WriteFile(destination, archive.Data, 0o644); err != nil {
		return err
	}
	tui.Printf("saved %s", destination)
	return nil
}
