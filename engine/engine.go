// Package engine drives the per-track acquisition state machine:
// walk the ladder of (query, directive) pairs in priority order,
// retry transient failures with backoff, advance on empty results,
// stop at the first success or at ladder exhaustion.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/gosimple/slug"
	"github.com/thanhpk/randstr"
	"github.com/vibedl/vibedl/entity"
	"github.com/vibedl/vibedl/ladder"
	"github.com/vibedl/vibedl/provider"
	"github.com/vibedl/vibedl/query"
	"github.com/vibedl/vibedl/workspace"
)

// State enumerates the machine's positions. Pending and Trying
// are transitional; Succeeded and Exhausted are terminal. An
// external cancellation also lands on Exhausted, with the context
// error in Result.Err telling the two apart.
type State int

const (
	Pending State = iota
	Trying
	Succeeded
	Advancing
	Exhausted
)

// Outcome labels one attempt in the diagnostic log.
type Outcome string

const (
	OutcomeEmpty     Outcome = "empty"
	OutcomeTransient Outcome = "transient"
	OutcomeFailed    Outcome = "failed"
	OutcomeSucceeded Outcome = "succeeded"
)

// AttemptRecord is the diagnostic trace of one (query, directive)
// attempt. It never feeds back into decisions.
type AttemptRecord struct {
	Query     string
	Directive ladder.Directive
	Outcome   Outcome
	Detail    string
}

// Result is the terminal state for one track: either a path to a
// complete audio file, or the error that exhausted the ladder.
// Exactly one of the two is ever set.
type Result struct {
	Track    entity.Track
	State    State
	Path     string
	Attempts []AttemptRecord
	Err      error
}

func (result Result) Succeeded() bool {
	return result.Err == nil
}

// ExhaustedError reports that every ladder pair was tried without
// producing a file, carrying the last attempt's detail.
type ExhaustedError struct {
	Attempts   int
	LastDetail string
}

func (e *ExhaustedError) Error() string {
	if e.LastDetail == "" {
		return fmt.Sprintf("source ladder exhausted after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("source ladder exhausted after %d attempts, last: %s", e.Attempts, e.LastDetail)
}

// Source is the media backend: a directive-routed search plus the
// audio fetch. The fetch side serializes itself internally, the
// engine stays reentrant per track.
type Source interface {
	Search(ctx context.Context, query string, directive ladder.Directive) ([]provider.Candidate, error)
	Fetch(ctx context.Context, candidate provider.Candidate, path string) error
}

// Tagger embeds metadata into a fetched file. Best-effort: the
// engine logs its failures and keeps the file.
type Tagger interface {
	Write(path string, track entity.Track) error
}

// ArtworkFetcher pulls cover bytes, once per track at most.
type ArtworkFetcher interface {
	Artwork(ctx context.Context, url string) ([]byte, error)
}

// Options tune the machine; zero values fall back to defaults
// matching the production policy.
type Options struct {
	Tagger      Tagger
	Artwork     ArtworkFetcher
	Queries     func(entity.Track) []string
	Rungs       func() []ladder.Directive
	Sleep       func(time.Duration)
	RetryCap    int // backoff retries per pair before advancing
	BackoffBase time.Duration
	Logf        func(format string, args ...interface{})
}

type Engine struct {
	source Source
	opts   Options
}

func New(source Source, opts Options) *Engine {
	if opts.Queries == nil {
		opts.Queries = query.Generate
	}
	if opts.Rungs == nil {
		opts.Rungs = ladder.Rungs
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.RetryCap == 0 {
		opts.RetryCap = 3
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = 500 * time.Millisecond
	}
	return &Engine{source: source, opts: opts}
}

func (engine *Engine) logf(format string, args ...interface{}) {
	if engine.opts.Logf != nil {
		engine.opts.Logf(format, args...)
	}
}

type pair struct {
	query     string
	directive ladder.Directive
}

// Acquire resolves one track into a local audio file inside the
// workspace. First success wins; pairs for the same track never
// run concurrently.
func (engine *Engine) Acquire(ctx context.Context, track entity.Track, scratch *workspace.Workspace) Result {
	result := Result{Track: track, State: Pending}

	if engine.opts.Artwork != nil && track.Artwork.URL != "" && len(track.Artwork.Data) == 0 {
		if data, err := engine.opts.Artwork.Artwork(ctx, track.Artwork.URL); err != nil {
			engine.logf("artwork for %s: %s", track.Title, err)
		} else {
			track.Artwork.Data = data
			result.Track = track
		}
	}

	// full cross product, query outer, directive inner, matching
	// generation order on both axes
	var pairs []pair
	for _, q := range engine.opts.Queries(track) {
		for _, directive := range engine.opts.Rungs() {
			pairs = append(pairs, pair{query: q, directive: directive})
		}
	}

	path := scratch.File(scratchName(track))
	for _, p := range pairs {
		result.State = Trying
		if done := engine.try(ctx, p, track, path, &result); done {
			return result
		}
		result.State = Advancing
	}

	result.State = Exhausted
	result.Err = &ExhaustedError{
		Attempts:   len(result.Attempts),
		LastDetail: lastDetail(result.Attempts),
	}
	return result
}

// try works one (query, directive) pair to completion: retry the
// pair under backoff for transient failures, give up on it for
// empty results or permanent errors, finish the whole acquisition
// on a fetch that lands. Returns true when the result is terminal.
func (engine *Engine) try(ctx context.Context, p pair, track entity.Track, path string, result *Result) bool {
	for backoffs := 0; ; {
		if err := ctx.Err(); err != nil {
			result.State = Exhausted
			result.Err = err
			return true
		}

		candidates, err := engine.source.Search(ctx, p.query, p.directive)
		if err != nil {
			if retry := engine.pause(p, err, &backoffs, result); retry {
				continue
			}
			return false
		}

		if len(candidates) == 0 {
			// the source is reachable but has nothing for this
			// pair: advance immediately, no backoff
			result.Attempts = append(result.Attempts, AttemptRecord{
				Query: p.query, Directive: p.directive, Outcome: OutcomeEmpty,
			})
			return false
		}

		candidate := bestMatch(candidates, track)
		if err := engine.source.Fetch(ctx, candidate, path); err != nil {
			if retry := engine.pause(p, err, &backoffs, result); retry {
				continue
			}
			return false
		}

		result.Attempts = append(result.Attempts, AttemptRecord{
			Query: p.query, Directive: p.directive, Outcome: OutcomeSucceeded, Detail: candidate.URL,
		})
		if engine.opts.Tagger != nil {
			if err := engine.opts.Tagger.Write(path, track); err != nil {
				// tagging never gates the fetch
				engine.logf("tagging %s: %s", track.Title, err)
			}
		}
		result.State = Succeeded
		result.Path = path
		return true
	}
}

// pause decides between backing off for another run at the same
// pair and recording a dead attempt. Reports whether to retry.
func (engine *Engine) pause(p pair, err error, backoffs *int, result *Result) bool {
	if provider.IsTransient(err) && *backoffs < engine.opts.RetryCap {
		result.Attempts = append(result.Attempts, AttemptRecord{
			Query: p.query, Directive: p.directive, Outcome: OutcomeTransient, Detail: err.Error(),
		})
		engine.opts.Sleep(engine.opts.BackoffBase << *backoffs)
		*backoffs++
		return true
	}
	result.Attempts = append(result.Attempts, AttemptRecord{
		Query: p.query, Directive: p.directive, Outcome: OutcomeFailed, Detail: err.Error(),
	})
	return false
}

// bestMatch prefers a candidate whose title contains both the
// artist and the title tokens; ties break on edit distance to
// "artist title" so the pick is deterministic. With no such
// candidate, the first result wins.
func bestMatch(candidates []provider.Candidate, track entity.Track) provider.Candidate {
	var (
		artist = ""
		title  = strings.ToLower(track.Song())
		best   = -1
		bestAt int
	)
	if len(track.Artists) > 0 {
		artist = strings.ToLower(track.Artists[0])
	}
	target := strings.TrimSpace(artist + " " + title)

	for at, candidate := range candidates {
		if artist == "" || title == "" {
			break
		}
		candidateTitle := strings.ToLower(candidate.Title)
		if !strings.Contains(candidateTitle, artist) || !strings.Contains(candidateTitle, title) {
			continue
		}
		distance := levenshtein.ComputeDistance(candidateTitle, target)
		if best == -1 || distance < best {
			best, bestAt = distance, at
		}
	}
	if best >= 0 {
		return candidates[bestAt]
	}
	return candidates[0]
}

// scratchName gets a random suffix: a playlist may carry the same
// track twice, and two concurrent acquisitions must never write
// to the same scratch path.
func scratchName(track entity.Track) string {
	stem := track.ID
	if stem == "" {
		stem = track.Artist() + "-" + track.Title
	}
	return slug.Make(stem) + "-" + randstr.Hex(4) + "." + entity.TrackFormat
}

func lastDetail(attempts []AttemptRecord) string {
	for at := len(attempts) - 1; at >= 0; at-- {
		if attempts[at].Detail != "" {
			return attempts[at].Detail
		}
	}
	return ""
}
