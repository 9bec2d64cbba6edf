// Package query derives candidate search strings from track metadata.
//
// Generation is a pure function: no network access, no randomness,
// same metadata in, same ordered queries out. Randomized behavior
// (identity rotation) belongs to the ladder, not here.
package query

import (
	"strings"

	"github.com/vibedl/vibedl/entity"
)

// templates, most-discriminative first. A blank artist or title
// drops out of its template rather than failing it; dedup then
// collapses whatever forms became identical.
var templates = [][]string{
	{"{artist}", "-", "{title}"},
	{"{artist}", "{title}"},
	{"{artist}", "{title}", "official"},
	{"{artist}", "{title}", "audio"},
	{"{title}", "{artist}"},
	{"{title}", "{artist}", "song"},
	{"{artist}", "{title}", "official", "audio"},
	{"{title}", "audio"},
}

// Generate returns the ordered, deduplicated list of search
// strings for a track. The result is non-empty even with a
// missing artist or title.
func Generate(track entity.Track) []string {
	var (
		artist  = strings.TrimSpace(primaryArtist(track))
		title   = strings.TrimSpace(track.Song())
		queries = make([]string, 0, len(templates))
		seen    = make(map[string]bool, len(templates))
	)
	for _, template := range templates {
		query := expand(template, artist, title)
		if query == "" || seen[query] {
			continue
		}
		seen[query] = true
		queries = append(queries, query)
	}
	if len(queries) == 0 {
		// metadata completely blank: fall back to the raw title
		// field, which may still carry something searchable
		queries = append(queries, normalize(track.Title+" audio"))
	}
	return queries
}

func expand(template []string, artist, title string) string {
	var (
		parts    = make([]string, 0, len(template))
		anyField bool
	)
	for _, token := range template {
		part := token
		part = strings.ReplaceAll(part, "{artist}", artist)
		part = strings.ReplaceAll(part, "{title}", title)
		part = normalize(part)
		if part == "" {
			continue
		}
		// the separator only makes sense between two present fields
		if part == "-" && (artist == "" || title == "") {
			continue
		}
		if part != token {
			anyField = true
		}
		parts = append(parts, part)
	}
	// a template reduced to its bare qualifier tokens is no query
	if !anyField {
		return ""
	}
	return normalize(strings.Join(parts, " "))
}

func primaryArtist(track entity.Track) string {
	if len(track.Artists) == 0 {
		return ""
	}
	return track.Artists[0]
}

func normalize(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
