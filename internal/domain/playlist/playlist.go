// Package playlist provides playlists and the ordered track list used for navigation.
package playlist

import (
	"github.com/samber/lo"

	"github.com/osa030/19player/internal/domain/track"
)

// Playlist represents a named playlist from the music catalog.
type Playlist struct {
	ID     string        // Catalog playlist ID
	Name   string        // Playlist name
	Tracks []track.Track // Tracks in playlist order
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	return lo.Map(p.Tracks, func(t track.Track, _ int) string { return t.ID })
}

// Neighbor returns the track step positions away from the track with currentID,
// wrapping around both ends of tracks.
// If currentID is not in tracks, a forward step starts at the first track and a
// backward step at the last one. Returns false only when tracks is empty.
func Neighbor(tracks []track.Track, currentID string, step int) (track.Track, bool) {
	n := len(tracks)
	if n == 0 {
		return track.Track{}, false
	}

	_, idx, found := lo.FindIndexOf(tracks, func(t track.Track) bool { return t.ID == currentID })
	if !found {
		if step >= 0 {
			return tracks[0], true
		}
		return tracks[n-1], true
	}

	next := ((idx+step)%n + n) % n
	return tracks[next], true
}
