//go:build (linux && cgo) || windows || darwin

package audio

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/app/playback"
)

// Available indicates whether audio output is supported in this build.
const Available = true

var (
	speakerOnce sync.Once
	speakerErr  error
)

// Speaker plays sources on the sound card. It implements playback.Resource.
type Speaker struct {
	mu sync.Mutex

	opener   *Opener
	settings SpeakerSettings
	rate     beep.SampleRate
	notes    *notifier

	attachment playback.Attachment
	cancelLoad context.CancelFunc
	wantPlay   bool
	ended      bool
	gain       float64
	run        uint64 // Bumped each time a source is queued on the speaker

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume

	stopPoll chan struct{}
	closed   bool
}

// NewSpeaker creates a speaker that reads sources through opener.
// The sound card is initialized lazily on the first decoded source.
func NewSpeaker(opener *Opener, settings SpeakerSettings) *Speaker {
	s := &Speaker{
		opener:   opener,
		settings: settings,
		rate:     beep.SampleRate(settings.SampleRate),
		notes:    newNotifier(),
		gain:     1,
		stopPoll: make(chan struct{}),
	}
	go s.poll()
	return s
}

// Subscribe registers the sink for all future notifications.
func (s *Speaker) Subscribe(sink playback.Sink) {
	s.notes.subscribe(sink)
}

// Attach stops the current source and starts loading locator in the background.
func (s *Speaker) Attach(a playback.Attachment, locator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return playback.NewError(playback.KindSourceUnavailable, errors.New("speaker is closed"))
	}

	s.detachLocked()
	s.attachment = a
	s.wantPlay = false

	ctx, cancel := context.WithCancel(context.Background())
	s.cancelLoad = cancel
	go s.load(ctx, a, locator)

	return nil
}

// Play starts or resumes the attached source.
// If the source is still loading it starts as soon as it is decoded.
func (s *Speaker) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wantPlay = true
	if s.streamer == nil {
		return
	}

	if s.ctrl == nil || s.ended {
		s.startLocked()
	} else {
		speaker.Lock()
		s.ctrl.Paused = false
		speaker.Unlock()
	}
	s.notes.push(playback.Notification{Attachment: s.attachment, Kind: playback.NotifyPlaying})
}

// Pause pauses the attached source.
func (s *Speaker) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.wantPlay = false
	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		speaker.Unlock()
	}
}

// SetCurrentTime moves the position of the attached source.
func (s *Speaker) SetCurrentTime(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return
	}

	speaker.Lock()
	n := seekSample(s.format.SampleRate, seconds, s.streamer.Len())
	if err := s.streamer.Seek(n); err != nil {
		zlog.Warn().Msgf("audio: seek failed: attachment=%d error=%v", s.attachment, err)
	}
	speaker.Unlock()

	s.notes.push(playback.Notification{
		Attachment: s.attachment,
		Kind:       playback.NotifyTimeUpdate,
		Seconds:    s.format.SampleRate.D(n).Seconds(),
	})
}

// SetVolume sets the output gain in [0,1].
func (s *Speaker) SetVolume(fraction float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gain = fraction
	if s.volume != nil {
		speaker.Lock()
		applyGain(s.volume, fraction)
		speaker.Unlock()
	}
}

// Close stops playback and releases the speaker's goroutines.
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.detachLocked()
	close(s.stopPoll)
	s.notes.stop()
}

// load opens and decodes locator, then starts it if Play was requested meanwhile.
func (s *Speaker) load(ctx context.Context, a playback.Attachment, locator string) {
	streamer, format, err := s.decode(ctx, locator)

	s.mu.Lock()
	defer s.mu.Unlock()

	if a != s.attachment || s.closed {
		// Superseded while loading
		if streamer != nil {
			_ = streamer.Close()
		}
		return
	}

	if err == nil {
		err = s.initSpeaker()
		if err != nil && streamer != nil {
			_ = streamer.Close()
		}
	}
	if err != nil {
		s.notes.push(playback.Notification{
			Attachment: a,
			Kind:       playback.NotifyError,
			ErrKind:    playback.KindOf(err),
			Err:        err,
		})
		return
	}

	s.streamer = streamer
	s.format = format
	s.ended = false

	zlog.Debug().Msgf("audio: source ready: attachment=%d rate=%d length=%d", a, format.SampleRate, streamer.Len())
	s.notes.push(playback.Notification{
		Attachment: a,
		Kind:       playback.NotifyDurationKnown,
		Seconds:    format.SampleRate.D(streamer.Len()).Seconds(),
	})

	if s.wantPlay {
		s.startLocked()
		s.notes.push(playback.Notification{Attachment: a, Kind: playback.NotifyPlaying})
	}
}

func (s *Speaker) decode(ctx context.Context, locator string) (beep.StreamSeekCloser, beep.Format, error) {
	media, err := s.opener.Open(ctx, locator)
	if err != nil {
		return nil, beep.Format{}, err
	}
	return Decode(media)
}

func (s *Speaker) initSpeaker() error {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(s.rate, s.rate.N(s.settings.Buffer()))
	})
	if speakerErr != nil {
		return playback.NewError(playback.KindSourceUnavailable, errors.Wrap(speakerErr, "failed to initialize speaker"))
	}
	return nil
}

// startLocked queues the attached source on the speaker from its current position.
// Must be called with lock held.
func (s *Speaker) startLocked() {
	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		s.ctrl.Streamer = nil
		speaker.Unlock()
	}

	speaker.Lock()
	if err := rewindIfFinished(s.streamer); err != nil {
		zlog.Warn().Msgf("audio: rewind failed: attachment=%d error=%v", s.attachment, err)
	}
	speaker.Unlock()
	s.ended = false

	var src beep.Streamer = s.streamer
	if s.format.SampleRate != s.rate {
		src = beep.Resample(s.settings.ResampleQuality, s.format.SampleRate, s.rate, s.streamer)
	}

	s.volume = &effects.Volume{Streamer: src, Base: 2}
	applyGain(s.volume, s.gain)
	s.ctrl = &beep.Ctrl{Streamer: s.volume}

	s.run++
	a, run := s.attachment, s.run
	speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() {
		// Runs on the speaker goroutine with the speaker locked
		go s.onEnded(a, run)
	})))
}

func (s *Speaker) onEnded(a playback.Attachment, run uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a != s.attachment || run != s.run || s.closed || s.ctrl == nil {
		return
	}

	s.ended = true
	s.wantPlay = false
	s.notes.push(playback.Notification{Attachment: a, Kind: playback.NotifyEnded})
}

// detachLocked stops and releases the attached source.
// Must be called with lock held.
func (s *Speaker) detachLocked() {
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
	if s.ctrl != nil {
		speaker.Lock()
		s.ctrl.Paused = true
		s.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if s.streamer != nil {
		_ = s.streamer.Close()
	}
	s.streamer = nil
	s.ctrl = nil
	s.volume = nil
	s.ended = false
	s.run++
}

// poll reports the position of the playing source.
func (s *Speaker) poll() {
	ticker := time.NewTicker(s.settings.PollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.stopPoll:
			return
		case <-ticker.C:
			s.reportPosition()
		}
	}
}

func (s *Speaker) reportPosition() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil || s.ctrl == nil || s.ended {
		return
	}

	speaker.Lock()
	paused := s.ctrl.Paused
	pos := s.streamer.Position()
	speaker.Unlock()

	if paused {
		return
	}
	s.notes.push(playback.Notification{
		Attachment: s.attachment,
		Kind:       playback.NotifyTimeUpdate,
		Seconds:    s.format.SampleRate.D(pos).Seconds(),
	})
}

// applyGain maps a linear fraction onto the base-2 volume effect.
func applyGain(v *effects.Volume, fraction float64) {
	if fraction <= 0 {
		v.Silent = true
		return
	}
	v.Silent = false
	v.Volume = math.Log2(math.Min(fraction, 1))
}
