package engine

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/agiledragon/gomonkey/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vibedl/vibedl/entity"
	"github.com/vibedl/vibedl/ladder"
	"github.com/vibedl/vibedl/provider"
	"github.com/vibedl/vibedl/workspace"
)

var testTrack = entity.Track{
	ID:      "6b2oQwSGFkzsMtQruIWm2p",
	Title:   "Everlong",
	Artists: []string{"Foo Fighters"},
	Album:   "The Colour and the Shape",
	Number:  11,
	Year:    1997,
}

type searchCall struct {
	query     string
	directive ladder.Directive
}

// scriptedSource answers search calls from a fixed script and
// writes a small file on fetch.
type scriptedSource struct {
	mu         sync.Mutex
	script     []func() ([]provider.Candidate, error)
	calls      []searchCall
	fetched    []provider.Candidate
	fetchFails func(call int) error
}

func (source *scriptedSource) Search(_ context.Context, query string, directive ladder.Directive) ([]provider.Candidate, error) {
	source.mu.Lock()
	defer source.mu.Unlock()
	at := len(source.calls)
	source.calls = append(source.calls, searchCall{query: query, directive: directive})
	if at >= len(source.script) {
		at = len(source.script) - 1
	}
	return source.script[at]()
}

func (source *scriptedSource) Fetch(_ context.Context, candidate provider.Candidate, path string) error {
	source.mu.Lock()
	defer source.mu.Unlock()
	if source.fetchFails != nil {
		if err := source.fetchFails(len(source.fetched)); err != nil {
			return err
		}
	}
	source.fetched = append(source.fetched, candidate)
	return os.WriteFile(path, []byte("audio-bytes"), 0o644)
}

func empty() ([]provider.Candidate, error) {
	return nil, nil
}

func hit(candidates ...provider.Candidate) func() ([]provider.Candidate, error) {
	return func() ([]provider.Candidate, error) { return candidates, nil }
}

func transient() ([]provider.Candidate, error) {
	return nil, provider.Transient(errors.New("connection reset"))
}

func testEngine(source Source, opts Options) (*Engine, *[]time.Duration) {
	sleeps := &[]time.Duration{}
	if opts.Sleep == nil {
		opts.Sleep = func(duration time.Duration) { *sleeps = append(*sleeps, duration) }
	}
	if opts.Queries == nil {
		opts.Queries = func(entity.Track) []string { return []string{"q1", "q2"} }
	}
	if opts.Rungs == nil {
		opts.Rungs = func() []ladder.Directive {
			return []ladder.Directive{{Provider: ladder.SoundCloud, Limit: 1}, {Provider: ladder.YouTube, Limit: 1}}
		}
	}
	return New(source, opts), sleeps
}

func scratchDir(t *testing.T) *workspace.Workspace {
	t.Helper()
	scratch, err := workspace.New(t.TempDir(), "engine-test")
	require.NoError(t, err)
	t.Cleanup(func() { scratch.Close() })
	return scratch
}

func TestAcquireThirdPairWins(t *testing.T) {
	source := &scriptedSource{script: []func() ([]provider.Candidate, error){
		empty,
		empty,
		hit(provider.Candidate{URL: "https://example.com/a", Title: "Foo Fighters - Everlong"}),
	}}
	engine, sleeps := testEngine(source, Options{})

	result := engine.Acquire(context.Background(), testTrack, scratchDir(t))

	require.NoError(t, result.Err)
	assert.Equal(t, Succeeded, result.State)
	require.Len(t, result.Attempts, 3)
	assert.Equal(t, OutcomeEmpty, result.Attempts[0].Outcome)
	assert.Equal(t, OutcomeEmpty, result.Attempts[1].Outcome)
	assert.Equal(t, OutcomeSucceeded, result.Attempts[2].Outcome)

	// ladder order: query outer loop, directive inner loop
	assert.Equal(t, []searchCall{
		{"q1", ladder.Directive{Provider: ladder.SoundCloud, Limit: 1}},
		{"q1", ladder.Directive{Provider: ladder.YouTube, Limit: 1}},
		{"q2", ladder.Directive{Provider: ladder.SoundCloud, Limit: 1}},
	}, source.calls)

	// empty results advance without backoff
	assert.Empty(t, *sleeps)

	info, err := os.Stat(result.Path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestAcquireTransientRetriesThenExhausts(t *testing.T) {
	source := &scriptedSource{script: []func() ([]provider.Candidate, error){transient}}
	engine, sleeps := testEngine(source, Options{
		RetryCap:    2,
		BackoffBase: 100 * time.Millisecond,
		Queries:     func(entity.Track) []string { return []string{"q1"} },
	})

	result := engine.Acquire(context.Background(), testTrack, scratchDir(t))

	require.Error(t, result.Err)
	assert.Equal(t, Exhausted, result.State)
	var exhausted *ExhaustedError
	require.ErrorAs(t, result.Err, &exhausted)
	assert.Empty(t, result.Path)

	// per pair: retryCap retries plus the final dead attempt
	assert.Len(t, source.calls, 2*(2+1))
	assert.Len(t, result.Attempts, 2*(2+1))

	// backoff doubles per consecutive transient failure, and
	// resets when the machine advances to the next pair
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond, 200 * time.Millisecond,
		100 * time.Millisecond, 200 * time.Millisecond,
	}, *sleeps)
}

func TestAcquireFirstSuccessWins(t *testing.T) {
	source := &scriptedSource{script: []func() ([]provider.Candidate, error){
		hit(provider.Candidate{URL: "https://example.com/a", Title: "whatever"}),
	}}
	engine, _ := testEngine(source, Options{})

	result := engine.Acquire(context.Background(), testTrack, scratchDir(t))

	require.NoError(t, result.Err)
	assert.Len(t, source.calls, 1, "no further pairs after the first success")
}

func TestAcquireBestMatchPrefersContainment(t *testing.T) {
	candidates := []provider.Candidate{
		{URL: "https://example.com/1", Title: "completely unrelated upload"},
		{URL: "https://example.com/2", Title: "Foo Fighters - Everlong (Official Music Video)"},
		{URL: "https://example.com/3", Title: "foo fighters everlong"},
	}
	source := &scriptedSource{script: []func() ([]provider.Candidate, error){hit(candidates...)}}
	engine, _ := testEngine(source, Options{})

	result := engine.Acquire(context.Background(), testTrack, scratchDir(t))

	require.NoError(t, result.Err)
	require.Len(t, source.fetched, 1)
	// both containment matches qualify; the closer title wins
	assert.Equal(t, "https://example.com/3", source.fetched[0].URL)
}

func TestAcquireBestMatchFallsBackToFirst(t *testing.T) {
	candidates := []provider.Candidate{
		{URL: "https://example.com/1", Title: "some cover version"},
		{URL: "https://example.com/2", Title: "another cover"},
	}
	source := &scriptedSource{script: []func() ([]provider.Candidate, error){hit(candidates...)}}
	engine, _ := testEngine(source, Options{})

	result := engine.Acquire(context.Background(), testTrack, scratchDir(t))

	require.NoError(t, result.Err)
	require.Len(t, source.fetched, 1)
	assert.Equal(t, "https://example.com/1", source.fetched[0].URL)
}

type failingTagger struct {
	calls int
}

func (tagger *failingTagger) Write(string, entity.Track) error {
	tagger.calls++
	return errors.New("corrupt container")
}

func TestAcquireTaggingFailureStillSucceeds(t *testing.T) {
	source := &scriptedSource{script: []func() ([]provider.Candidate, error){
		hit(provider.Candidate{URL: "https://example.com/a", Title: "x"}),
	}}
	tagger := &failingTagger{}
	engine, _ := testEngine(source, Options{Tagger: tagger})

	result := engine.Acquire(context.Background(), testTrack, scratchDir(t))

	require.NoError(t, result.Err)
	assert.Equal(t, 1, tagger.calls)
	assert.FileExists(t, result.Path)
}

func TestAcquirePermanentErrorAdvancesWithoutBackoff(t *testing.T) {
	source := &scriptedSource{script: []func() ([]provider.Candidate, error){
		func() ([]provider.Candidate, error) { return nil, errors.New("video unavailable") },
		hit(provider.Candidate{URL: "https://example.com/a", Title: "x"}),
	}}
	engine, sleeps := testEngine(source, Options{})

	result := engine.Acquire(context.Background(), testTrack, scratchDir(t))

	require.NoError(t, result.Err)
	assert.Empty(t, *sleeps)
	require.Len(t, result.Attempts, 2)
	assert.Equal(t, OutcomeFailed, result.Attempts[0].Outcome)
}

func TestAcquireCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &scriptedSource{script: []func() ([]provider.Candidate, error){empty}}
	engine, _ := testEngine(source, Options{})

	result := engine.Acquire(ctx, testTrack, scratchDir(t))

	require.ErrorIs(t, result.Err, context.Canceled)
	// cancellation lands on the terminal state; the context error
	// distinguishes it from a genuinely exhausted ladder
	assert.Equal(t, Exhausted, result.State)
	var exhausted *ExhaustedError
	assert.False(t, errors.As(result.Err, &exhausted))
	assert.Empty(t, source.calls)
}

func TestAcquireDefaultBackoffSleeps(t *testing.T) {
	var slept []time.Duration
	patches := gomonkey.ApplyFunc(time.Sleep, func(duration time.Duration) {
		slept = append(slept, duration)
	})
	defer patches.Reset()

	source := &scriptedSource{script: []func() ([]provider.Candidate, error){
		transient,
		hit(provider.Candidate{URL: "https://example.com/a", Title: "x"}),
	}}
	engine := New(source, Options{
		Queries: func(entity.Track) []string { return []string{"q1"} },
		Rungs: func() []ladder.Directive {
			return []ladder.Directive{{Provider: ladder.SoundCloud, Limit: 1}}
		},
	})

	result := engine.Acquire(context.Background(), testTrack, scratchDir(t))

	require.NoError(t, result.Err)
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, slept)
}
