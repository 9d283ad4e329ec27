package playback_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19player/internal/app/playback"
)

func TestSleepTimer_PausesPlayback(t *testing.T) {
	s, res := newSession(t, t1)
	play(t, s, res, t1)

	s.SetSleepTimer(150 * time.Millisecond)
	assert.Greater(t, s.SleepRemaining(), time.Duration(0))

	require.Eventually(t, func() bool {
		return s.State() == playback.StatePaused
	}, 2*time.Second, 20*time.Millisecond)

	call, ok := res.LastCall("pause")
	require.True(t, ok)
	assert.Equal(t, "pause", call.Method)
	assert.Equal(t, time.Duration(0), s.SleepRemaining())
}

func TestSleepTimer_Cancel(t *testing.T) {
	s, res := newSession(t, t1)
	play(t, s, res, t1)

	s.SetSleepTimer(150 * time.Millisecond)
	s.SetSleepTimer(0)
	assert.Equal(t, time.Duration(0), s.SleepRemaining())

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, playback.StatePlaying, s.State())
}

func TestSleepTimer_ResetReplacesPrevious(t *testing.T) {
	s, res := newSession(t, t1)
	play(t, s, res, t1)

	s.SetSleepTimer(100 * time.Millisecond)
	s.SetSleepTimer(time.Hour)

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, playback.StatePlaying, s.State())
	assert.Greater(t, s.SleepRemaining(), 59*time.Minute)
}
