package playback

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{seconds: 0, expected: "0:00"},
		{seconds: -3, expected: "0:00"},
		{seconds: math.NaN(), expected: "0:00"},
		{seconds: 5.9, expected: "0:05"},
		{seconds: 65, expected: "1:05"},
		{seconds: 600, expected: "10:00"},
		{seconds: 3725, expected: "62:05"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatTime(tt.seconds), "FormatTime(%v)", tt.seconds)
	}
}
