package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_Matches(t *testing.T) {
	tr := Track{ID: "1", Title: "Bohemian Rhapsody", Artist: "Queen", Source: "a.mp3"}

	tests := []struct {
		name     string
		query    string
		expected bool
	}{
		{name: "empty query", query: "", expected: true},
		{name: "title substring", query: "rhaps", expected: true},
		{name: "artist match", query: "queen", expected: true},
		{name: "upper case query", query: "BOHEMIAN", expected: true},
		{name: "no match", query: "abba", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tr.Matches(tt.query))
		})
	}
}

func TestTrack_IsPlayable(t *testing.T) {
	tests := []struct {
		name     string
		track    Track
		expected bool
	}{
		{name: "id and source", track: Track{ID: "1", Source: "a.mp3"}, expected: true},
		{name: "missing source", track: Track{ID: "1"}, expected: false},
		{name: "missing id", track: Track{Source: "a.mp3"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.IsPlayable())
		})
	}
}

func TestTrack_DisplayName(t *testing.T) {
	assert.Equal(t, "Queen - Bohemian Rhapsody", (&Track{Title: "Bohemian Rhapsody", Artist: "Queen"}).DisplayName())
	assert.Equal(t, "Intro", (&Track{Title: "Intro"}).DisplayName())
}
