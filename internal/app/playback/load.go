package playback

import (
	"context"
	"sync"

	"github.com/osa030/19player/internal/domain/track"
)

// Load is the pending result of a LoadAndPlay request.
type Load struct {
	Track track.Track

	attachment Attachment
	done       chan struct{}
	once       sync.Once
	err        error
}

func newLoad(t track.Track, a Attachment) *Load {
	return &Load{
		Track:      t,
		attachment: a,
		done:       make(chan struct{}),
	}
}

// Done is closed once the load has succeeded or failed.
func (l *Load) Done() <-chan struct{} {
	return l.done
}

// Err returns the load error. It is nil until Done is closed, and nil afterwards on success.
func (l *Load) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

// Wait blocks until the load resolves or ctx is done.
func (l *Load) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolve completes the load. Only the first call has an effect.
func (l *Load) resolve(err error) {
	l.once.Do(func() {
		l.err = err
		close(l.done)
	})
}
