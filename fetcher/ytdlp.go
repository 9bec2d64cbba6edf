// Package fetcher wraps the yt-dlp download client. One client
// instance is shared by every concurrent acquisition; its mutable
// state (working directory, option set) is guarded by a single
// lock held for the duration of each fetch call.
package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"github.com/vibedl/vibedl/ladder"
	"github.com/vibedl/vibedl/provider"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var searchPrefixes = map[ladder.Provider]string{
	ladder.SoundCloud: "scsearch",
	ladder.YouTube:    "ytsearch",
}

// YTDLP drives the yt-dlp binary for both searching and fetching.
type YTDLP struct {
	mu       sync.Mutex
	bin      string
	counter  atomic.Uint64
	identity func(uint64) string
}

func NewYTDLP() *YTDLP {
	return &YTDLP{bin: "yt-dlp", identity: ladder.Identity}
}

func (client *YTDLP) nextIdentity() string {
	return client.identity(client.counter.Add(1) - 1)
}

// Searcher exposes the client as a search backend for the given
// provider, using yt-dlp's own search notation (scsearchN:query).
func (client *YTDLP) Searcher(source ladder.Provider) provider.Searcher {
	return &execSearcher{client: client, prefix: searchPrefixes[source]}
}

type execSearcher struct {
	client *YTDLP
	prefix string
}

type searchEntries struct {
	Entries []struct {
		ID         string  `json:"id"`
		URL        string  `json:"url"`
		WebpageURL string  `json:"webpage_url"`
		Title      string  `json:"title"`
		Duration   float64 `json:"duration"`
	} `json:"entries"`
}

func (searcher *execSearcher) Search(ctx context.Context, query string, limit int) ([]provider.Candidate, error) {
	var (
		target = fmt.Sprintf("%s%d:%s", searcher.prefix, limit, query)
		output bytes.Buffer
		failed bytes.Buffer
		cmd    = exec.CommandContext(ctx, searcher.client.bin,
			"-J",
			"--flat-playlist",
			"--no-warnings",
			"--socket-timeout", "20",
			"--user-agent", searcher.client.nextIdentity(),
			target,
		)
	)
	cmd.Stdout = &output
	cmd.Stderr = &failed
	if err := cmd.Run(); err != nil {
		return nil, classify(ctx, failed.String(), err)
	}

	var parsed searchEntries
	if err := json.Unmarshal(output.Bytes(), &parsed); err != nil {
		return nil, fmt.Errorf("search output does not decode: %w", err)
	}

	candidates := make([]provider.Candidate, 0, len(parsed.Entries))
	for _, entry := range parsed.Entries {
		candidate := provider.Candidate{
			URL:      entry.URL,
			Title:    entry.Title,
			Duration: int(entry.Duration),
		}
		if candidate.URL == "" {
			candidate.URL = entry.WebpageURL
		}
		if !strings.HasPrefix(candidate.URL, "http") && entry.ID != "" {
			candidate.URL = "https://www.youtube.com/watch?v=" + entry.ID
		}
		if candidate.URL == "" {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, nil
}

// Fetch downloads the candidate's audio stream, extracting it to
// the fixed output codec and bitrate at path. The client lock is
// held across the whole call: yt-dlp mutates its cache and works
// relative to the output directory, and two interleaved fetches
// would trample each other's state.
func (client *YTDLP) Fetch(ctx context.Context, candidate provider.Candidate, path string) error {
	client.mu.Lock()
	defer client.mu.Unlock()

	var (
		ext    = strings.TrimPrefix(filepath.Ext(path), ".")
		stem   = strings.TrimSuffix(filepath.Base(path), "."+ext)
		output bytes.Buffer
		cmd    = exec.CommandContext(ctx, client.bin,
			"--format", "bestaudio",
			"--extract-audio",
			"--audio-format", ext,
			"--audio-quality", "192K",
			"--output", stem+".%(ext)s",
			"--no-playlist",
			"--socket-timeout", "30",
			"--retries", "2",
			"--continue",
			"--no-overwrites",
			"--user-agent", client.nextIdentity(),
			candidate.URL,
		)
	)
	cmd.Dir = filepath.Dir(path)
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		return classify(ctx, output.String(), err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("fetch reported success but %s is missing: %w", filepath.Base(path), err)
	}
	if info.Size() == 0 {
		return errors.New("fetch produced an empty file")
	}
	return nil
}

var (
	permanentMarkers = []string{
		"video unavailable",
		"private video",
		"has been removed",
		"not available in your country",
		"account associated with this video has been terminated",
		"unsupported url",
	}
	transientMarkers = []string{
		"429",
		"too many requests",
		"rate-limit",
		"timed out",
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"unable to download webpage",
		"network is unreachable",
	}
)

// classify sorts a yt-dlp failure into the retry taxonomy:
// transient failures are worth retrying the same ladder pair,
// permanent ones make the engine advance.
func classify(ctx context.Context, output string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	detail := strings.TrimSpace(output)
	if detail == "" {
		detail = err.Error()
	}
	lowered := strings.ToLower(detail)

	for _, marker := range permanentMarkers {
		if strings.Contains(lowered, marker) {
			return errors.New(detail)
		}
	}
	for _, marker := range transientMarkers {
		if strings.Contains(lowered, marker) {
			return provider.Transient(errors.New(detail))
		}
	}
	return errors.New(detail)
}
