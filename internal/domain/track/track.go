// Package track provides the Track domain entity.
package track

import "strings"

// Track represents a playable audio item.
// A Track is treated as immutable once it has been placed in a track list.
type Track struct {
	ID       string // Stable unique identifier
	Title    string // Track title
	Artist   string // Artist name
	CoverURL string // Cover art URI
	Source   string // Locator of the audio bytes (path or URI), resolved by the audio resource
}

// IsPlayable reports whether the track carries enough information to be loaded.
func (t *Track) IsPlayable() bool {
	return t.ID != "" && t.Source != ""
}

// Matches reports whether the title or artist contains query, ignoring case.
// An empty query matches every track.
func (t *Track) Matches(query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.Artist), q)
}

// DisplayName returns "Artist - Title", or just the title when the artist is unknown.
func (t *Track) DisplayName() string {
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}
