package playback

import (
	"math"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/domain/playlist"
	"github.com/osa030/19player/internal/domain/track"
)

// TrackSource provides the ordered track list used for next/previous.
type TrackSource interface {
	Tracks() []track.Track
}

// Config holds session configuration.
type Config struct {
	Volume      int  // Initial volume percent
	AutoAdvance bool // Start the next track when the current one ends
	EventBuffer int  // Size of the event channel buffer
}

// Status is a consistent snapshot of the session.
type Status struct {
	Track          *track.Track
	State          State
	Position       float64 // Seconds
	Duration       float64 // Seconds, 0 when unknown
	Progress       float64 // Percent of duration played
	Volume         int     // Percent
	Loading        bool    // A load is waiting for the resource
	SleepRemaining time.Duration
}

// Session mediates all transport operations on a single audio resource.
type Session struct {
	mu sync.Mutex

	resource Resource
	tracks   TrackSource
	config   Config

	// Playback state
	current  *track.Track
	state    State
	position float64
	duration float64
	volume   int

	// Attachment tracking
	attachment Attachment // Current attachment; notifications for others are stale
	pending    *Load      // Load waiting for the resource to confirm playback
	failed     bool       // Current attachment failed; nothing can play until the next load

	// Sleep timer
	sleepCancel   func()
	sleepDeadline time.Time
	sleepGen      uint64

	// Events
	eventCh chan Event
	closed  bool
}

// NewSession creates a session that exclusively drives res.
func NewSession(res Resource, tracks TrackSource, config Config) *Session {
	if config.EventBuffer <= 0 {
		config.EventBuffer = 64
	}

	s := &Session{
		resource: res,
		tracks:   tracks,
		config:   config,
		state:    StateStopped,
		volume:   clampVolume(config.Volume),
		eventCh:  make(chan Event, config.EventBuffer),
	}

	res.Subscribe(s.handle)
	res.SetVolume(float64(s.volume) / 100)

	return s
}

// Events returns the event channel. It is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.eventCh
}

// LoadAndPlay makes t the current track and starts playing it from position 0.
// It never blocks on the resource: the returned Load resolves once the
// resource confirms playback or fails. A later LoadAndPlay supersedes this
// one, resolving it with KindAborted.
func (s *Session) LoadAndPlay(t track.Track) *Load {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.loadLocked(t)
}

// TogglePlayPause flips between playing and paused and returns the new state.
// Does nothing when no track is loaded or the current track failed to load.
func (s *Session) TogglePlayPause() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return s.state
	}
	if s.failed {
		zlog.Debug().Msgf("playback: toggle ignored, track failed to load: track=%s", s.current.ID)
		return s.state
	}

	if s.state == StatePlaying {
		s.resource.Pause()
		s.state = StatePaused
	} else {
		s.resource.Play()
		s.state = StatePlaying
	}

	s.sendEventLocked(EventStateChanged, nil)
	return s.state
}

// Seek moves the position to seconds, clamped to [0, duration].
// The resource's later time updates take precedence over the value set here.
func (s *Session) Seek(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return
	}

	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	if seconds > s.duration {
		seconds = s.duration
	}

	s.resource.SetCurrentTime(seconds)
	s.position = seconds
	s.sendEventLocked(EventPositionChanged, nil)
}

// Next loads the track after the current one, wrapping to the first.
// Returns nil when nothing is loaded or the track list is empty.
func (s *Session) Next() *Load {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.advanceLocked(1)
}

// Previous loads the track before the current one, wrapping to the last.
// Returns nil when nothing is loaded or the track list is empty.
func (s *Session) Previous() *Load {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.advanceLocked(-1)
}

// SetVolume sets the volume, clamped to [0,100], and returns the stored value.
func (s *Session) SetVolume(percent int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	percent = clampVolume(percent)
	s.resource.SetVolume(float64(percent) / 100)
	s.volume = percent
	s.sendEventLocked(EventVolumeChanged, nil)
	return percent
}

// CurrentTrack returns the current track.
func (s *Session) CurrentTrack() (track.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return track.Track{}, false
	}
	return *s.current, true
}

// State returns the transport state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Position returns the playback position in seconds.
func (s *Session) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Duration returns the track duration in seconds, 0 when unknown.
func (s *Session) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Volume returns the volume percent.
func (s *Session) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Progress returns position/duration as a percentage, 0 when duration is unknown.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

// Status returns a snapshot of the whole session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:          s.state,
		Position:       s.position,
		Duration:       s.duration,
		Progress:       s.progressLocked(),
		Volume:         s.volume,
		Loading:        s.pending != nil,
		SleepRemaining: s.sleepRemainingLocked(),
	}
	if s.current != nil {
		t := *s.current
		st.Track = &t
	}
	return st
}

// Close aborts any pending load, cancels the sleep timer and closes the event channel.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if s.pending != nil {
		s.pending.resolve(&Error{Kind: KindAborted, TrackID: s.pending.Track.ID})
		s.pending = nil
	}
	s.cancelSleepLocked()

	s.closed = true
	close(s.eventCh)
}

// loadLocked detaches the previous source and attaches t.
// Must be called with lock held.
func (s *Session) loadLocked(t track.Track) *Load {
	if s.pending != nil {
		zlog.Debug().Msgf("playback: load superseded: track=%s", s.pending.Track.ID)
		s.pending.resolve(&Error{Kind: KindAborted, TrackID: s.pending.Track.ID})
		s.pending = nil
	}

	s.attachment++
	a := s.attachment
	s.failed = false

	current := t
	s.current = &current
	s.state = StateStopped
	s.position = 0
	s.duration = 0

	load := newLoad(t, a)
	s.pending = load

	zlog.Debug().Msgf("playback: loading track: track=%s attachment=%d source=%s", t.ID, a, t.Source)
	s.sendEventLocked(EventTrackLoading, nil)

	if err := s.resource.Attach(a, t.Source); err != nil {
		s.failLocked(asError(err, t.ID))
		return load
	}
	s.resource.Play()

	return load
}

// advanceLocked loads the neighbour step positions away from the current track.
// Must be called with lock held.
func (s *Session) advanceLocked(step int) *Load {
	if s.current == nil {
		return nil
	}

	next, ok := playlist.Neighbor(s.tracks.Tracks(), s.current.ID, step)
	if !ok {
		return nil
	}
	return s.loadLocked(next)
}

// failLocked stops transport and reports err for the current track.
// Must be called with lock held.
func (s *Session) failLocked(err *Error) {
	zlog.Warn().Msgf("playback: %v", err)

	s.state = StateStopped
	s.failed = true
	if s.pending != nil {
		s.pending.resolve(err)
		s.pending = nil
	}
	s.sendEventLocked(EventLoadFailed, err)
}

// handle applies a resource notification.
func (s *Session) handle(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if n.Attachment != s.attachment || s.current == nil {
		zlog.Debug().Msgf("playback: ignoring stale notification: kind=%s attachment=%d current=%d",
			n.Kind, n.Attachment, s.attachment)
		return
	}

	switch n.Kind {
	case NotifyPlaying:
		wasPending := s.pending != nil
		if wasPending {
			s.pending.resolve(nil)
			s.pending = nil
		}

		// A pause issued while the play request was in flight wins.
		if s.state == StatePaused {
			return
		}
		changed := s.state != StatePlaying
		s.state = StatePlaying

		if wasPending {
			zlog.Info().Msgf("playback: track started: track=%s", s.current.ID)
			s.sendEventLocked(EventTrackStarted, nil)
		} else if changed {
			s.sendEventLocked(EventStateChanged, nil)
		}

	case NotifyTimeUpdate:
		pos := n.Seconds
		if pos < 0 || math.IsNaN(pos) {
			pos = 0
		}
		if s.duration > 0 && pos > s.duration {
			pos = s.duration
		}
		s.position = pos
		s.sendEventLocked(EventPositionChanged, nil)

	case NotifyDurationKnown:
		d := n.Seconds
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			d = 0
		}
		s.duration = d
		if s.position > d {
			s.position = d
		}
		s.sendEventLocked(EventDurationKnown, nil)

	case NotifyEnded:
		if s.pending != nil {
			s.pending.resolve(nil)
			s.pending = nil
		}
		s.state = StateStopped
		zlog.Info().Msgf("playback: track ended: track=%s position=%.1f", s.current.ID, s.position)
		s.sendEventLocked(EventTrackEnded, nil)

		if s.config.AutoAdvance {
			s.advanceLocked(1)
		}

	case NotifyError:
		kind := n.ErrKind
		if kind == KindUnknown {
			kind = KindSourceUnavailable
		}
		s.failLocked(&Error{Kind: kind, TrackID: s.current.ID, cause: n.Err})
	}
}

func (s *Session) progressLocked() float64 {
	if s.duration <= 0 {
		return 0
	}
	return s.position / s.duration * 100
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (s *Session) sendEventLocked(t EventType, err error) {
	if s.closed {
		return
	}

	e := Event{
		Type:     t,
		State:    s.state,
		Position: s.position,
		Duration: s.duration,
		Volume:   s.volume,
		Err:      err,
	}
	if s.current != nil {
		tr := *s.current
		e.Track = &tr
	}

	select {
	case s.eventCh <- e:
	default:
		// Channel full, drop event
	}
}

func clampVolume(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}
