package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19player/internal/infra/config"
)

func TestStaticLibraryFromConfig(t *testing.T) {
	lib := StaticLibraryFromConfig([]config.TrackConfig{
		{ID: "1", Title: "First", Artist: "Band", CoverURL: "cover.png", Source: "first.mp3"},
		{ID: "2", Title: "Second", Source: "s3://music/second.wav"},
	})

	tracks, err := lib.Tracks(context.Background())
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "Band", tracks[0].Artist)
	assert.Equal(t, "cover.png", tracks[0].CoverURL)
	assert.Equal(t, "s3://music/second.wav", tracks[1].Source)

	// Returned slice is a copy
	tracks[0].Title = "changed"
	again, _ := lib.Tracks(context.Background())
	assert.Equal(t, "First", again[0].Title)
}
