package util

import (
	"fmt"
	"strings"
)

var illegalFilenameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", "\"", "_",
	"/", "_", "\\", "_", "|", "_", "?", "_", "*", "_",
)

// LegalizeFilename replaces filesystem-illegal characters
// and caps the name length (in runes) so that archive
// entries and delivered files are portable.
func LegalizeFilename(filename string, limit int) string {
	legalized := illegalFilenameChars.Replace(filename)
	if runes := []rune(legalized); limit > 0 && len(runes) > limit {
		legalized = string(runes[:limit])
	}
	return legalized
}

// ErrWrap returns fallback in place of value whenever err is set:
//
//	util.ErrWrap("default")(flags.GetString("name"))
func ErrWrap[T any](fallback T) func(T, error) T {
	return func(value T, err error) T {
		if err != nil {
			return fallback
		}
		return value
	}
}

func ErrSuppress(err error) {
	_ = err
}

// Excerpt shortens a string for log lines.
func Excerpt(data string, limits ...int) string {
	limit := 120
	if len(limits) > 0 {
		limit = limits[0]
	}
	if len(data) <= limit {
		return data
	}
	return data[:limit] + "..."
}

func HumanizeBytes(size int) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1fkB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%dB", size)
	}
}
