// Package session provides the player manager.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/19player/internal/app/notification"
	"github.com/osa030/19player/internal/app/playback"
	"github.com/osa030/19player/internal/domain/playlist"
	"github.com/osa030/19player/internal/domain/track"
)

var (
	ErrTrackNotFound = errors.New("track not found")
	ErrNotRunning    = errors.New("player is not running")
)

// Manager owns the player: the track list, the playback session and the
// event fan-out.
type Manager struct {
	mu sync.RWMutex

	// Components
	library      Library
	tracks       *playlist.TrackList
	playback     *playback.Session
	notification *notification.Manager

	// Lifecycle
	started bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewManager creates a new player manager driving res.
func NewManager(library Library, res playback.Resource, cfg playback.Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	tracks := playlist.NewTrackList()

	return &Manager{
		library:      library,
		tracks:       tracks,
		playback:     playback.NewSession(res, tracks, cfg),
		notification: notification.NewManager(),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// Start loads the library and starts broadcasting playback events.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrNotRunning
	}
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	if _, err := m.Reload(ctx); err != nil {
		m.mu.Lock()
		m.started = false
		m.mu.Unlock()
		return err
	}

	go m.eventLoop()

	zlog.Info().Msgf("player started: tracks=%d", m.tracks.Len())
	return nil
}

// Reload refreshes the track list from the library and returns its length.
// The current track keeps playing even if it is no longer listed.
func (m *Manager) Reload(ctx context.Context) (int, error) {
	tracks, err := m.library.Tracks(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load library")
	}

	playable := lo.Filter(tracks, func(t track.Track, _ int) bool { return t.IsPlayable() })
	if skipped := len(tracks) - len(playable); skipped > 0 {
		zlog.Warn().Msgf("skipping tracks without id or source: count=%d", skipped)
	}

	m.tracks.Replace(playable)
	zlog.Info().Msgf("library loaded: tracks=%d", m.tracks.Len())
	return m.tracks.Len(), nil
}

// Tracks returns the tracks matching query in list order. An empty query returns all.
func (m *Manager) Tracks(query string) []track.Track {
	return m.tracks.Search(query)
}

// Play loads and plays the track with the given id.
func (m *Manager) Play(trackID string) (*playback.Load, error) {
	if err := m.checkRunning(); err != nil {
		return nil, err
	}

	t, ok := m.tracks.Get(trackID)
	if !ok {
		return nil, errors.Wrapf(ErrTrackNotFound, "track %s", trackID)
	}

	zlog.Info().Msgf("play requested: track=%s title=%q", t.ID, t.DisplayName())
	return m.playback.LoadAndPlay(t), nil
}

// TogglePlayPause flips between playing and paused and returns the new state.
func (m *Manager) TogglePlayPause() (playback.State, error) {
	if err := m.checkRunning(); err != nil {
		return playback.StateStopped, err
	}
	return m.playback.TogglePlayPause(), nil
}

// Seek moves the position of the current track.
func (m *Manager) Seek(seconds float64) error {
	if err := m.checkRunning(); err != nil {
		return err
	}
	m.playback.Seek(seconds)
	return nil
}

// Next plays the following track. The returned load is nil when nothing is loaded.
func (m *Manager) Next() (*playback.Load, error) {
	if err := m.checkRunning(); err != nil {
		return nil, err
	}
	return m.playback.Next(), nil
}

// Previous plays the preceding track. The returned load is nil when nothing is loaded.
func (m *Manager) Previous() (*playback.Load, error) {
	if err := m.checkRunning(); err != nil {
		return nil, err
	}
	return m.playback.Previous(), nil
}

// SetVolume sets the volume percent and returns the clamped value.
func (m *Manager) SetVolume(percent int) (int, error) {
	if err := m.checkRunning(); err != nil {
		return 0, err
	}
	return m.playback.SetVolume(percent), nil
}

// SetSleepTimer pauses playback after d. A non-positive d cancels the timer.
func (m *Manager) SetSleepTimer(d time.Duration) error {
	if err := m.checkRunning(); err != nil {
		return err
	}
	m.playback.SetSleepTimer(d)
	return nil
}

// GetStatus returns the current player status.
func (m *Manager) GetStatus() playback.Status {
	return m.playback.Status()
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// Done is closed once the manager has been closed.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops playback and event broadcasting.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.playback.Close()
	m.cancel()
	m.notification.Close()
	close(m.done)
	zlog.Info().Msg("player closed")
}

func (m *Manager) checkRunning() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.started || m.closed {
		return ErrNotRunning
	}
	return nil
}

// eventLoop logs and broadcasts session events until the session is closed.
func (m *Manager) eventLoop() {
	events := m.playback.Events()
	for {
		select {
		case <-m.ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			m.handlePlaybackEvent(e)
			m.notification.Broadcast(e)
		}
	}
}

func (m *Manager) handlePlaybackEvent(e playback.Event) {
	switch e.Type {
	case playback.EventTrackStarted:
		if e.Track != nil {
			zlog.Info().Msgf("now playing: track=%s title=%q", e.Track.ID, e.Track.DisplayName())
		}
	case playback.EventLoadFailed:
		zlog.Warn().Msgf("track failed: kind=%s error=%v", playback.KindOf(e.Err), e.Err)
	case playback.EventTrackEnded:
		if e.Track != nil {
			zlog.Debug().Msgf("track ended: track=%s", e.Track.ID)
		}
	case playback.EventSleepTimerFired:
		zlog.Info().Msg("sleep timer fired")
	}
}
