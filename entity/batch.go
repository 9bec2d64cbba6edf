package entity

// BatchEntry pins a track to its position within a
// collection: archive entry ordering is governed by
// this position, never by completion order.
type BatchEntry struct {
	Position int
	Track    Track
}

// BatchJob is an ordered list of tracks to acquire
// as a single archive, usually an album or a playlist.
type BatchJob struct {
	Name    string
	Entries []BatchEntry
}
