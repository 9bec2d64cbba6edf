// Package provider hosts the search backends a ladder directive
// can point at, plus the error taxonomy the acquisition engine
// uses to pick between retrying and advancing.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/vibedl/vibedl/ladder"
)

// Candidate is one search result a directive produced.
type Candidate struct {
	URL      string
	Title    string
	Duration int // in seconds, 0 when the backend omits it
}

// Searcher is one backend capable of answering a query with an
// ordered candidate list. An empty list with a nil error means
// the backend is reachable but has nothing: callers advance the
// ladder without backoff.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Candidate, error)
}

// TransientError marks a failure worth retrying against the very
// same (query, directive) pair: network hiccups, timeouts, rate
// limiting. Anything not wrapped in it is treated as permanent
// for the attempted pair.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return "transient: " + e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// Transient wraps err as retryable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{err: err}
}

func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// Registry maps ladder providers onto their backends.
type Registry struct {
	backends map[ladder.Provider]Searcher
}

func NewRegistry() *Registry {
	return &Registry{backends: map[ladder.Provider]Searcher{}}
}

func (registry *Registry) Register(provider ladder.Provider, backend Searcher) *Registry {
	registry.backends[provider] = backend
	return registry
}

// Search resolves the directive's provider and runs the query
// against it with the directive's result-count hint.
func (registry *Registry) Search(ctx context.Context, query string, directive ladder.Directive) ([]Candidate, error) {
	backend, ok := registry.backends[directive.Provider]
	if !ok {
		return nil, fmt.Errorf("no backend registered for provider %s", directive.Provider)
	}
	return backend.Search(ctx, query, directive.Limit)
}

type fallback struct {
	primary, secondary Searcher
}

// Fallback chains two backends for the same provider: the
// secondary is consulted when the primary fails permanently
// (e.g. result-page markup changed underneath the scraper).
// Transient failures and genuinely empty results pass through
// untouched so that the engine's policy stays in charge.
func Fallback(primary, secondary Searcher) Searcher {
	return &fallback{primary: primary, secondary: secondary}
}

func (f *fallback) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	candidates, err := f.primary.Search(ctx, query, limit)
	if err != nil && !IsTransient(err) {
		return f.secondary.Search(ctx, query, limit)
	}
	return candidates, err
}
