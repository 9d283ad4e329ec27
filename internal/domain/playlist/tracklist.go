package playlist

import (
	"sync"

	"github.com/samber/lo"

	"github.com/osa030/19player/internal/domain/track"
)

// TrackList is the ordered collection that defines next/previous order.
// Insertion order is preserved. It is safe for concurrent use.
type TrackList struct {
	mu     sync.RWMutex
	tracks []track.Track
}

// NewTrackList creates a track list holding a copy of tracks.
func NewTrackList(tracks ...track.Track) *TrackList {
	l := &TrackList{}
	l.Replace(tracks)
	return l
}

// Tracks returns a snapshot of the list.
func (l *TrackList) Tracks() []track.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]track.Track, len(l.tracks))
	copy(result, l.tracks)
	return result
}

// Len returns the number of tracks.
func (l *TrackList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tracks)
}

// Replace replaces the whole list, dropping duplicate IDs after the first.
func (l *TrackList) Replace(tracks []track.Track) {
	uniq := lo.UniqBy(tracks, func(t track.Track) string { return t.ID })

	l.mu.Lock()
	defer l.mu.Unlock()
	l.tracks = uniq
}

// Get returns the track with the given ID.
func (l *TrackList) Get(id string) (track.Track, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx := l.indexLocked(id)
	if idx < 0 {
		return track.Track{}, false
	}
	return l.tracks[idx], true
}

// Search returns the tracks whose title or artist contains query, in list order.
func (l *TrackList) Search(query string) []track.Track {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return lo.Filter(l.tracks, func(t track.Track, _ int) bool { return t.Matches(query) })
}

func (l *TrackList) indexLocked(id string) int {
	_, idx, found := lo.FindIndexOf(l.tracks, func(t track.Track) bool { return t.ID == id })
	if !found {
		return -1
	}
	return idx
}
