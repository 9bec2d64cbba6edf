// Package ladder expands a search query into the prioritized
// sequence of backend directives tried until one yields a match.
package ladder

import "fmt"

// Provider identifies a search backend. SoundCloud comes before
// YouTube in the ladder: it is far less prone to upstream blocking,
// so it absorbs the first attempts and keeps the heavily
// rate-limited primary as the fallback.
type Provider string

const (
	SoundCloud Provider = "soundcloud"
	YouTube    Provider = "youtube"
)

// Directive is one search attempt configuration: which provider
// to ask and how many candidate results to consider.
type Directive struct {
	Provider Provider
	Limit    int
}

func (d Directive) String() string {
	return fmt.Sprintf("%s:%d", d.Provider, d.Limit)
}

var (
	providers = []Provider{SoundCloud, YouTube}
	limits    = []int{1, 5, 10}
)

// Rungs returns the ordered directives for one query. Within a
// provider the result count broadens 1 -> 5 -> 10; since directives
// are consumed strictly in order, a broader rung is only ever
// reached after the narrower one came back empty or dead.
func Rungs() []Directive {
	rungs := make([]Directive, 0, len(providers)*len(limits))
	for _, provider := range providers {
		for _, limit := range limits {
			rungs = append(rungs, Directive{Provider: provider, Limit: limit})
		}
	}
	return rungs
}
