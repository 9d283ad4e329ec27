//go:build !((linux && cgo) || windows || darwin)

package audio

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/19player/internal/app/playback"
)

// Available indicates whether audio output is supported in this build.
// Audio requires cgo for native sound libraries.
const Available = false

// Speaker is a placeholder for builds without cgo. Every Attach fails with
// KindSourceUnavailable.
type Speaker struct {
	notes *notifier
}

// NewSpeaker creates a speaker that cannot output audio.
func NewSpeaker(_ *Opener, _ SpeakerSettings) *Speaker {
	return &Speaker{notes: newNotifier()}
}

// Subscribe registers the sink for all future notifications.
func (s *Speaker) Subscribe(sink playback.Sink) {
	s.notes.subscribe(sink)
}

// Attach always fails: no audio output in this build.
func (s *Speaker) Attach(_ playback.Attachment, _ string) error {
	return playback.NewError(playback.KindSourceUnavailable, errors.New("audio output is not available in this build"))
}

// Play is a no-op when cgo is disabled.
func (s *Speaker) Play() {}

// Pause is a no-op when cgo is disabled.
func (s *Speaker) Pause() {}

// SetCurrentTime is a no-op when cgo is disabled.
func (s *Speaker) SetCurrentTime(_ float64) {}

// SetVolume is a no-op when cgo is disabled.
func (s *Speaker) SetVolume(_ float64) {}

// Close stops the notification goroutine.
func (s *Speaker) Close() {
	s.notes.stop()
}
