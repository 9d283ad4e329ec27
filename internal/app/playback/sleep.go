package playback

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// sleepTick is the polling interval of the sleep timer.
var sleepTick = 100 * time.Millisecond

// SetSleepTimer pauses playback once d of wall-clock time has elapsed.
// A non-positive d cancels a running timer.
func (s *Session) SetSleepTimer(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelSleepLocked()
	if d <= 0 {
		zlog.Debug().Msg("playback: sleep timer cancelled")
		return
	}

	s.sleepGen++
	gen := s.sleepGen
	s.sleepDeadline = toWallTime(time.Now()).Add(d)
	s.sleepCancel = startWallClockTimer(d, func() { s.onSleepTimer(gen) })

	zlog.Info().Msgf("playback: sleep timer set: duration=%v", d)
}

// SleepRemaining returns the time left on the sleep timer, 0 when none is set.
func (s *Session) SleepRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sleepRemainingLocked()
}

func (s *Session) onSleepTimer(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.sleepGen || s.sleepCancel == nil {
		return
	}
	s.sleepCancel = nil
	s.sleepDeadline = time.Time{}

	zlog.Info().Msg("playback: sleep timer elapsed")
	if s.state == StatePlaying {
		s.resource.Pause()
		s.state = StatePaused
		s.sendEventLocked(EventStateChanged, nil)
	}
	s.sendEventLocked(EventSleepTimerFired, nil)
}

// cancelSleepLocked stops a running sleep timer.
// Must be called with lock held.
func (s *Session) cancelSleepLocked() {
	if s.sleepCancel != nil {
		s.sleepCancel()
		s.sleepCancel = nil
	}
	s.sleepDeadline = time.Time{}
}

func (s *Session) sleepRemainingLocked() time.Duration {
	if s.sleepDeadline.IsZero() {
		return 0
	}
	remaining := s.sleepDeadline.Sub(toWallTime(time.Now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// startWallClockTimer calls callback once duration has elapsed on the wall clock.
// Returns a cancel function.
func startWallClockTimer(duration time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		endTime := toWallTime(time.Now()).Add(duration)
		ticker := time.NewTicker(sleepTick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !toWallTime(time.Now()).Before(endTime) {
					callback()
					return
				}
			}
		}
	}()

	return cancel
}

// toWallTime strips the monotonic clock reading so that differences follow
// the wall clock, which keeps counting while the host is suspended.
func toWallTime(t time.Time) time.Time {
	return time.Unix(t.Unix(), int64(t.Nanosecond()))
}
