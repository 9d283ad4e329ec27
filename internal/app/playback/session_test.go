package playback_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19player/internal/app/playback"
	"github.com/osa030/19player/internal/app/playback/playbacktest"
	"github.com/osa030/19player/internal/domain/playlist"
	"github.com/osa030/19player/internal/domain/track"
)

var (
	t1 = track.Track{ID: "1", Title: "One", Artist: "A", Source: "one.mp3"}
	t2 = track.Track{ID: "2", Title: "Two", Artist: "B", Source: "two.mp3"}
	t3 = track.Track{ID: "3", Title: "Three", Artist: "C", Source: "three.mp3"}
)

func newSession(t *testing.T, tracks ...track.Track) (*playback.Session, *playbacktest.Resource) {
	t.Helper()
	res := playbacktest.New()
	s := playback.NewSession(res, playlist.NewTrackList(tracks...), playback.Config{Volume: 50})
	t.Cleanup(s.Close)
	return s, res
}

// play loads tr and confirms playback from the resource.
func play(t *testing.T, s *playback.Session, res *playbacktest.Resource, tr track.Track) {
	t.Helper()
	load := s.LoadAndPlay(tr)
	res.EmitPlaying(res.Attachment())
	require.NoError(t, load.Err())
	select {
	case <-load.Done():
	default:
		t.Fatalf("load of %s not resolved", tr.ID)
	}
}

func currentID(s *playback.Session) string {
	tr, ok := s.CurrentTrack()
	if !ok {
		return ""
	}
	return tr.ID
}

func TestNewSession_InitialState(t *testing.T) {
	s, res := newSession(t, t1)

	_, ok := s.CurrentTrack()
	assert.False(t, ok)
	assert.Equal(t, playback.StateStopped, s.State())
	assert.Equal(t, 0.0, s.Position())
	assert.Equal(t, 0.0, s.Duration())
	assert.Equal(t, 50, s.Volume())
	assert.Equal(t, 0.0, s.Progress())

	call, ok := res.LastCall("volume")
	require.True(t, ok)
	assert.InDelta(t, 0.5, call.Value, 1e-9)
}

func TestLoadAndPlay_Success(t *testing.T) {
	s, res := newSession(t, t1, t2)

	load := s.LoadAndPlay(t1)

	assert.Equal(t, playback.StateStopped, s.State(), "not playing until the resource confirms")
	assert.True(t, s.Status().Loading)
	attach, ok := res.LastCall("attach")
	require.True(t, ok)
	assert.Equal(t, "one.mp3", attach.Locator)
	_, ok = res.LastCall("play")
	assert.True(t, ok)

	res.EmitPlaying(attach.Attachment)

	<-load.Done()
	assert.NoError(t, load.Err())
	assert.Equal(t, playback.StatePlaying, s.State())
	assert.Equal(t, "1", currentID(s))
	assert.False(t, s.Status().Loading)
}

func TestLoadAndPlay_ResetsPosition(t *testing.T) {
	s, res := newSession(t, t1)
	play(t, s, res, t1)
	a := res.Attachment()
	res.EmitDuration(a, 200)
	res.EmitTime(a, 42)
	require.Equal(t, 42.0, s.Position())

	s.LoadAndPlay(t1)

	assert.Equal(t, 0.0, s.Position())
	assert.Equal(t, 0.0, s.Duration())
	assert.NotEqual(t, a, res.Attachment(), "same track gets a fresh attachment")
}

func TestLoadAndPlay_DecodeFailureDoesNotWedgeSession(t *testing.T) {
	s, res := newSession(t, t1, t2)

	load := s.LoadAndPlay(t1)
	res.EmitError(res.Attachment(), playback.KindDecodeFailed, errors.New("bad frame"))

	<-load.Done()
	require.Error(t, load.Err())
	assert.Equal(t, playback.KindDecodeFailed, playback.KindOf(load.Err()))
	assert.Equal(t, playback.StateStopped, s.State())
	assert.Equal(t, "1", currentID(s), "attempted track stays selected")

	play(t, s, res, t2)
	assert.Equal(t, playback.StatePlaying, s.State())
	assert.Equal(t, "2", currentID(s))
}

func TestLoadAndPlay_AttachErrorResolvesImmediately(t *testing.T) {
	s, res := newSession(t, t1)
	res.AttachErr["one.mp3"] = playback.NewError(playback.KindSourceUnavailable, errors.New("no such file"))

	load := s.LoadAndPlay(t1)

	select {
	case <-load.Done():
	default:
		t.Fatal("load should resolve synchronously")
	}
	assert.Equal(t, playback.KindSourceUnavailable, playback.KindOf(load.Err()))
	assert.Equal(t, playback.StateStopped, s.State())
	_, played := res.LastCall("play")
	assert.False(t, played)
}

func TestLoadAndPlay_UnclassifiedAttachErrorIsSourceUnavailable(t *testing.T) {
	s, res := newSession(t, t1)
	res.AttachErr["one.mp3"] = errors.New("boom")

	load := s.LoadAndPlay(t1)

	assert.Equal(t, playback.KindSourceUnavailable, playback.KindOf(load.Err()))
	var pe *playback.Error
	require.ErrorAs(t, load.Err(), &pe)
	assert.Equal(t, "1", pe.TrackID)
}

func TestLoadAndPlay_SupersededLoadIsIgnored(t *testing.T) {
	tests := []struct {
		name string
		late func(res *playbacktest.Resource, a playback.Attachment)
	}{
		{
			name: "late success",
			late: func(res *playbacktest.Resource, a playback.Attachment) { res.EmitPlaying(a) },
		},
		{
			name: "late failure",
			late: func(res *playbacktest.Resource, a playback.Attachment) {
				res.EmitError(a, playback.KindDecodeFailed, nil)
			},
		},
		{
			name: "late ended",
			late: func(res *playbacktest.Resource, a playback.Attachment) { res.EmitEnded(a) },
		},
		{
			name: "late time update",
			late: func(res *playbacktest.Resource, a playback.Attachment) { res.EmitTime(a, 99) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, res := newSession(t, t1, t2)

			loadA := s.LoadAndPlay(t1)
			first := res.Attachment()
			loadB := s.LoadAndPlay(t2)
			second := res.Attachment()
			require.NotEqual(t, first, second)

			<-loadA.Done()
			assert.Equal(t, playback.KindAborted, playback.KindOf(loadA.Err()))

			tt.late(res, first)

			assert.Equal(t, playback.StateStopped, s.State())
			assert.Equal(t, "2", currentID(s))
			assert.Equal(t, 0.0, s.Position())

			res.EmitPlaying(second)
			<-loadB.Done()
			assert.NoError(t, loadB.Err())
			assert.Equal(t, playback.StatePlaying, s.State())
			assert.Equal(t, "2", currentID(s))
		})
	}
}

func TestLoadAndPlay_ReplacesPlayingTrack(t *testing.T) {
	s, res := newSession(t, t1, t2)
	play(t, s, res, t1)

	s.LoadAndPlay(t2)
	assert.Equal(t, playback.StateStopped, s.State())

	res.EmitPlaying(res.Attachment())
	assert.Equal(t, playback.StatePlaying, s.State())
	assert.Equal(t, "2", currentID(s))
}

func TestTogglePlayPause(t *testing.T) {
	t.Run("no-op without current track", func(t *testing.T) {
		s, res := newSession(t, t1)

		assert.Equal(t, playback.StateStopped, s.TogglePlayPause())
		_, paused := res.LastCall("pause")
		_, played := res.LastCall("play")
		assert.False(t, paused)
		assert.False(t, played)
	})

	t.Run("flips between playing and paused", func(t *testing.T) {
		s, res := newSession(t, t1)
		play(t, s, res, t1)

		assert.Equal(t, playback.StatePaused, s.TogglePlayPause())
		calls := res.Calls()
		assert.Equal(t, "pause", calls[len(calls)-1].Method)

		assert.Equal(t, playback.StatePlaying, s.TogglePlayPause())
		calls = res.Calls()
		assert.Equal(t, "play", calls[len(calls)-1].Method)
	})

	t.Run("pause during pending load wins over late playing", func(t *testing.T) {
		s, res := newSession(t, t1)
		load := s.LoadAndPlay(t1)

		assert.Equal(t, playback.StatePlaying, s.TogglePlayPause())
		assert.Equal(t, playback.StatePaused, s.TogglePlayPause())

		res.EmitPlaying(res.Attachment())
		<-load.Done()
		assert.NoError(t, load.Err())
		assert.Equal(t, playback.StatePaused, s.State())
	})

	t.Run("after failed load", func(t *testing.T) {
		s, res := newSession(t, t1, t2)
		load := s.LoadAndPlay(t1)
		res.EmitError(res.Attachment(), playback.KindDecodeFailed, errors.New("bad frame"))
		<-load.Done()
		require.Error(t, load.Err())

		callsBefore := len(res.Calls())
		assert.Equal(t, playback.StateStopped, s.TogglePlayPause())
		assert.Equal(t, playback.StateStopped, s.State())
		assert.Len(t, res.Calls(), callsBefore, "no transport call for a failed source")

		play(t, s, res, t2)
		assert.Equal(t, playback.StatePaused, s.TogglePlayPause(), "a new load clears the failure")
	})

	t.Run("after attach error", func(t *testing.T) {
		s, res := newSession(t, t1)
		res.AttachErr["one.mp3"] = playback.NewError(playback.KindSourceUnavailable, errors.New("no such file"))
		s.LoadAndPlay(t1)

		assert.Equal(t, playback.StateStopped, s.TogglePlayPause())
		_, played := res.LastCall("play")
		assert.False(t, played)
	})
}

func TestSeek(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		target   float64
		expected float64
	}{
		{name: "within duration", duration: 180, target: 60, expected: 60},
		{name: "beyond duration clamps", duration: 180, target: 500, expected: 180},
		{name: "negative clamps to zero", duration: 180, target: -5, expected: 0},
		{name: "unknown duration clamps to zero", duration: 0, target: 30, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, res := newSession(t, t1)
			play(t, s, res, t1)
			if tt.duration > 0 {
				res.EmitDuration(res.Attachment(), tt.duration)
			}

			s.Seek(tt.target)

			assert.Equal(t, tt.expected, s.Position())
			call, ok := res.LastCall("seek")
			require.True(t, ok)
			assert.Equal(t, tt.expected, call.Value)
		})
	}
}

func TestSeek_ResourceCorrectsPosition(t *testing.T) {
	s, res := newSession(t, t1)
	play(t, s, res, t1)
	a := res.Attachment()
	res.EmitDuration(a, 100)

	s.Seek(50)
	require.Equal(t, 50.0, s.Position())

	res.EmitTime(a, 49.5)
	assert.Equal(t, 49.5, s.Position())
	assert.InDelta(t, 49.5, s.Progress(), 1e-9)
}

func TestSeek_NoTrackIsNoop(t *testing.T) {
	s, res := newSession(t, t1)
	s.Seek(10)

	_, ok := res.LastCall("seek")
	assert.False(t, ok)
	assert.Equal(t, 0.0, s.Position())
}

func TestSetVolume_Clamps(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{input: -20, expected: 0},
		{input: 0, expected: 0},
		{input: 37, expected: 37},
		{input: 100, expected: 100},
		{input: 250, expected: 100},
	}

	for _, tt := range tests {
		s, res := newSession(t)

		assert.Equal(t, tt.expected, s.SetVolume(tt.input))
		assert.Equal(t, tt.expected, s.Volume())
		call, ok := res.LastCall("volume")
		require.True(t, ok)
		assert.InDelta(t, float64(tt.expected)/100, call.Value, 1e-9)
	}
}

func TestNextPrevious_NoCurrentTrackIsNoop(t *testing.T) {
	s, res := newSession(t, t1, t2, t3)

	assert.Nil(t, s.Next())
	assert.Nil(t, s.Previous())
	_, ok := s.CurrentTrack()
	assert.False(t, ok)
	_, attached := res.LastCall("attach")
	assert.False(t, attached)
}

func TestNextPrevious_EmptyListIsNoop(t *testing.T) {
	s, res := newSession(t)
	play(t, s, res, t1)

	assert.Nil(t, s.Next())
	assert.Nil(t, s.Previous())
	assert.Equal(t, "1", currentID(s))
}

func TestNextPrevious_RoundTrip(t *testing.T) {
	lists := [][]track.Track{
		{t1},
		{t1, t2},
		{t1, t2, t3},
	}

	for _, tracks := range lists {
		for _, start := range tracks {
			s, res := newSession(t, tracks...)
			play(t, s, res, start)

			require.NotNil(t, s.Next())
			require.NotNil(t, s.Previous())

			assert.Equal(t, start.ID, currentID(s), "len=%d start=%s", len(tracks), start.ID)
		}
	}
}

func TestScenario_NavigationWraps(t *testing.T) {
	s, res := newSession(t, t1, t2, t3)

	assert.Nil(t, s.Next())
	_, ok := s.CurrentTrack()
	assert.False(t, ok)

	play(t, s, res, t1)
	assert.Equal(t, playback.StatePlaying, s.State())
	assert.Equal(t, "1", currentID(s))

	load := s.Next()
	require.NotNil(t, load)
	assert.Equal(t, "2", load.Track.ID)
	assert.Equal(t, "2", currentID(s))
	attach, _ := res.LastCall("attach")
	assert.Equal(t, "two.mp3", attach.Locator)

	s.Previous()
	assert.Equal(t, "1", currentID(s))

	s.Previous()
	assert.Equal(t, "3", currentID(s))
}

func TestEnded_StopsWithoutAdvancing(t *testing.T) {
	s, res := newSession(t, t1, t2)
	play(t, s, res, t1)
	a := res.Attachment()
	res.EmitDuration(a, 120)
	res.EmitTime(a, 119.8)

	res.EmitEnded(a)

	assert.Equal(t, playback.StateStopped, s.State())
	assert.Equal(t, 119.8, s.Position(), "position is not reset on end")
	assert.Equal(t, "1", currentID(s))

	s.LoadAndPlay(t2)
	assert.Equal(t, 0.0, s.Position())
}

func TestEnded_AutoAdvance(t *testing.T) {
	res := playbacktest.New()
	s := playback.NewSession(res, playlist.NewTrackList(t1, t2), playback.Config{Volume: 50, AutoAdvance: true})
	t.Cleanup(s.Close)
	play(t, s, res, t2)

	res.EmitEnded(res.Attachment())

	assert.Equal(t, "1", currentID(s))
	attach, _ := res.LastCall("attach")
	assert.Equal(t, "one.mp3", attach.Locator)
}

func TestDurationKnown_ClampsPosition(t *testing.T) {
	s, res := newSession(t, t1)
	play(t, s, res, t1)
	a := res.Attachment()

	res.EmitTime(a, 30)
	res.EmitDuration(a, 20)
	assert.Equal(t, 20.0, s.Position())

	res.EmitTime(a, 25)
	assert.Equal(t, 20.0, s.Position())
}

func TestEvents(t *testing.T) {
	s, res := newSession(t, t1)

	load := s.LoadAndPlay(t1)
	res.EmitPlaying(res.Attachment())
	<-load.Done()
	s.SetVolume(80)

	var types []playback.EventType
	for i := 0; i < 3; i++ {
		select {
		case e := <-s.Events():
			types = append(types, e.Type)
			require.NotNil(t, e.Track)
			assert.Equal(t, "1", e.Track.ID)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
	assert.Equal(t, []playback.EventType{
		playback.EventTrackLoading,
		playback.EventTrackStarted,
		playback.EventVolumeChanged,
	}, types)
}

func TestEvents_LoadFailedCarriesError(t *testing.T) {
	s, res := newSession(t, t1)

	s.LoadAndPlay(t1)
	res.EmitError(res.Attachment(), playback.KindSourceUnavailable, errors.New("404"))

	<-s.Events() // loading
	e := <-s.Events()
	assert.Equal(t, playback.EventLoadFailed, e.Type)
	assert.Equal(t, playback.KindSourceUnavailable, playback.KindOf(e.Err))
	assert.Equal(t, playback.StateStopped, e.State)
}

func TestClose_AbortsPendingLoad(t *testing.T) {
	res := playbacktest.New()
	s := playback.NewSession(res, playlist.NewTrackList(t1), playback.Config{Volume: 50})

	load := s.LoadAndPlay(t1)
	s.Close()

	<-load.Done()
	assert.Equal(t, playback.KindAborted, playback.KindOf(load.Err()))

	_, open := <-s.Events()
	for open {
		_, open = <-s.Events()
	}

	// Notifications after close are ignored.
	res.EmitPlaying(res.Attachment())
	assert.Equal(t, playback.StateStopped, s.State())
	s.Close()
}

func TestStatus(t *testing.T) {
	s, res := newSession(t, t1)
	play(t, s, res, t1)
	a := res.Attachment()
	res.EmitDuration(a, 200)
	res.EmitTime(a, 50)

	st := s.Status()

	require.NotNil(t, st.Track)
	assert.Equal(t, "1", st.Track.ID)
	assert.Equal(t, playback.StatePlaying, st.State)
	assert.Equal(t, 50.0, st.Position)
	assert.Equal(t, 200.0, st.Duration)
	assert.InDelta(t, 25.0, st.Progress, 1e-9)
	assert.Equal(t, 50, st.Volume)
	assert.False(t, st.Loading)
}
