package session

import (
	"context"

	"github.com/osa030/19player/internal/domain/track"
	"github.com/osa030/19player/internal/infra/config"
)

// Library provides the ordered track list.
type Library interface {
	Tracks(ctx context.Context) ([]track.Track, error)
}

// CatalogClient lists tracks from the music catalog.
type CatalogClient interface {
	Tracks(ctx context.Context, playlistID string) ([]track.Track, error)
}

// StaticLibrary is a fixed track list.
type StaticLibrary []track.Track

// Tracks returns a copy of the list.
func (l StaticLibrary) Tracks(_ context.Context) ([]track.Track, error) {
	result := make([]track.Track, len(l))
	copy(result, l)
	return result, nil
}

// CatalogLibrary reads tracks from the catalog, optionally narrowed to one playlist.
type CatalogLibrary struct {
	Client     CatalogClient
	PlaylistID string
}

// Tracks fetches the current track list from the catalog.
func (l *CatalogLibrary) Tracks(ctx context.Context) ([]track.Track, error) {
	return l.Client.Tracks(ctx, l.PlaylistID)
}

// StaticLibraryFromConfig builds a library from the tracks listed in config.
func StaticLibraryFromConfig(tracks []config.TrackConfig) StaticLibrary {
	lib := make(StaticLibrary, 0, len(tracks))
	for _, t := range tracks {
		lib = append(lib, track.Track{
			ID:       t.ID,
			Title:    t.Title,
			Artist:   t.Artist,
			CoverURL: t.CoverURL,
			Source:   t.Source,
		})
	}
	return lib
}
