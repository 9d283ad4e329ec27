// Package playbacktest provides an in-memory playback.Resource for tests.
package playbacktest

import (
	"sync"

	"github.com/osa030/19player/internal/app/playback"
)

// Call records one method call on the Resource.
type Call struct {
	Method     string
	Attachment playback.Attachment
	Locator    string
	Value      float64
}

// Resource is a scripted playback.Resource.
// It never emits on its own; tests drive notifications with the Emit helpers.
type Resource struct {
	mu sync.Mutex

	sink       playback.Sink
	attachment playback.Attachment
	calls      []Call

	// AttachErr, when set, is returned by Attach for matching locators.
	AttachErr map[string]error
}

// New creates a fake resource.
func New() *Resource {
	return &Resource{AttachErr: make(map[string]error)}
}

var _ playback.Resource = (*Resource)(nil)

func (r *Resource) Subscribe(sink playback.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = sink
}

func (r *Resource) Attach(a playback.Attachment, locator string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Method: "attach", Attachment: a, Locator: locator})
	if err, ok := r.AttachErr[locator]; ok {
		return err
	}
	r.attachment = a
	return nil
}

func (r *Resource) Play() {
	r.record(Call{Method: "play"})
}

func (r *Resource) Pause() {
	r.record(Call{Method: "pause"})
}

func (r *Resource) SetCurrentTime(seconds float64) {
	r.record(Call{Method: "seek", Value: seconds})
}

func (r *Resource) SetVolume(fraction float64) {
	r.record(Call{Method: "volume", Value: fraction})
}

// Attachment returns the most recently attached token.
func (r *Resource) Attachment() playback.Attachment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attachment
}

// Calls returns a copy of the recorded calls.
func (r *Resource) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]Call, len(r.calls))
	copy(result, r.calls)
	return result
}

// LastCall returns the last recorded call of the given method.
func (r *Resource) LastCall(method string) (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].Method == method {
			return r.calls[i], true
		}
	}
	return Call{}, false
}

// Emit delivers n to the subscribed sink.
func (r *Resource) Emit(n playback.Notification) {
	r.mu.Lock()
	sink := r.sink
	r.mu.Unlock()

	if sink != nil {
		sink(n)
	}
}

// EmitPlaying reports a successful play for attachment a.
func (r *Resource) EmitPlaying(a playback.Attachment) {
	r.Emit(playback.Notification{Attachment: a, Kind: playback.NotifyPlaying})
}

// EmitDuration reports the duration for attachment a.
func (r *Resource) EmitDuration(a playback.Attachment, seconds float64) {
	r.Emit(playback.Notification{Attachment: a, Kind: playback.NotifyDurationKnown, Seconds: seconds})
}

// EmitTime reports a time update for attachment a.
func (r *Resource) EmitTime(a playback.Attachment, seconds float64) {
	r.Emit(playback.Notification{Attachment: a, Kind: playback.NotifyTimeUpdate, Seconds: seconds})
}

// EmitEnded reports the end of the source for attachment a.
func (r *Resource) EmitEnded(a playback.Attachment) {
	r.Emit(playback.Notification{Attachment: a, Kind: playback.NotifyEnded})
}

// EmitError reports a failure of kind for attachment a.
func (r *Resource) EmitError(a playback.Attachment, kind playback.ErrorKind, err error) {
	r.Emit(playback.Notification{Attachment: a, Kind: playback.NotifyError, ErrKind: kind, Err: err})
}

func (r *Resource) record(c Call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}
