// Package packager turns many independent acquisitions into one
// archive: a bounded worker pool feeds a position-keyed in-memory
// sink, and entries come out in catalog order no matter which
// track finished first.
package packager

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/arunsworld/nursery"
	"github.com/vibedl/vibedl/engine"
	"github.com/vibedl/vibedl/entity"
	"github.com/vibedl/vibedl/util"
	"github.com/vibedl/vibedl/workspace"
)

const (
	DefaultConcurrency = 2
	DefaultTrackCap    = 10
	entryNameLimit     = 150
)

var (
	ErrNoTracks  = errors.New("batch carries no tracks")
	ErrAllFailed = errors.New("no track in the batch could be acquired")
)

// Outcome is the per-track report: position, metadata and the
// acquisition error, nil on success.
type Outcome struct {
	Position int
	Track    entity.Track
	Err      error
}

// Archive is the packaged batch. Outcomes always cover every
// processed track, also when the archive itself is empty.
type Archive struct {
	Data      []byte
	Outcomes  []Outcome
	Succeeded int
}

type Options struct {
	Concurrency int // in-flight acquisitions, default 2
	TrackCap    int // batch truncated to this before processing
	Logf        func(format string, args ...interface{})
}

type Packager struct {
	engine *engine.Engine
}

func New(engine *engine.Engine) *Packager {
	return &Packager{engine: engine}
}

// Pack acquires every entry of the job under the concurrency
// bound, all workers sharing the one workspace, and assembles the
// zip in ascending position order. A failed track is skipped and
// reported; only zero successes fail the batch as a whole. The
// returned archive is non-nil even then, for the outcome report.
func (packager *Packager) Pack(ctx context.Context, job entity.BatchJob, scratch *workspace.Workspace, opts Options) (*Archive, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.TrackCap <= 0 {
		opts.TrackCap = DefaultTrackCap
	}

	entries := job.Entries
	if len(entries) == 0 {
		return nil, ErrNoTracks
	}
	// truncation happens before processing, not after, so the
	// cap bounds cost rather than just output size
	if len(entries) > opts.TrackCap {
		entries = entries[:opts.TrackCap]
	}

	var (
		jobs     = make(chan entity.BatchEntry)
		mu       sync.Mutex
		files    = map[int][]byte{}
		outcomes = make([]Outcome, 0, len(entries))
	)

	worker := func(_ context.Context, _ chan error) {
		for entry := range jobs {
			outcome := Outcome{Position: entry.Position, Track: entry.Track}
			result := packager.engine.Acquire(ctx, entry.Track, scratch)
			outcome.Err = result.Err
			if result.Succeeded() {
				if data, err := os.ReadFile(result.Path); err != nil {
					outcome.Err = fmt.Errorf("acquired file unreadable: %w", err)
				} else {
					// drop the scratch file as soon as its bytes are
					// sunk, to bound peak disk usage across the batch
					util.ErrSuppress(os.Remove(result.Path))
					mu.Lock()
					files[entry.Position] = data
					mu.Unlock()
				}
			}
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			if opts.Logf != nil {
				if outcome.Err != nil {
					opts.Logf("track %02d %s: %s", entry.Position, entry.Track.Title, outcome.Err)
				} else {
					opts.Logf("track %02d %s: archived", entry.Position, entry.Track.Title)
				}
			}
		}
	}

	util.ErrSuppress(nursery.RunConcurrently(
		func(_ context.Context, _ chan error) {
			defer close(jobs)
			for _, entry := range entries {
				select {
				case <-ctx.Done():
					// stop feeding; in-flight workers finish their
					// current attempt, cleanup stays with the caller
					return
				case jobs <- entry:
				}
			}
		},
		func(_ context.Context, _ chan error) {
			util.ErrSuppress(nursery.RunMultipleCopiesConcurrently(opts.Concurrency, worker))
		},
	))

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Position < outcomes[j].Position
	})
	archive := &Archive{Outcomes: outcomes, Succeeded: len(files)}
	if len(files) == 0 {
		if err := ctx.Err(); err != nil {
			return archive, err
		}
		return archive, ErrAllFailed
	}

	positions := make([]int, 0, len(files))
	for position := range files {
		positions = append(positions, position)
	}
	sort.Ints(positions)

	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for _, position := range positions {
		entry, err := writer.Create(entryName(position, trackAt(outcomes, position)))
		if err != nil {
			return archive, err
		}
		if _, err := entry.Write(files[position]); err != nil {
			return archive, err
		}
	}
	if err := writer.Close(); err != nil {
		return archive, err
	}

	archive.Data = buffer.Bytes()
	return archive, nil
}

// entryName renders "01 - Artist - Title.mp3", filesystem-legal
// and capped.
func entryName(position int, track entity.Track) string {
	return util.LegalizeFilename(
		fmt.Sprintf("%02d - %s - %s.%s", position, track.Artist(), track.Title, entity.TrackFormat),
		entryNameLimit)
}

func trackAt(outcomes []Outcome, position int) entity.Track {
	for _, outcome := range outcomes {
		if outcome.Position == position {
			return outcome.Track
		}
	}
	return entity.Track{}
}
