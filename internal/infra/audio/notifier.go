package audio

import (
	"sync"

	"github.com/osa030/19player/internal/app/playback"
)

// notifier delivers notifications to the sink in order on its own goroutine.
// push never blocks, so it is safe to call from inside resource methods.
type notifier struct {
	mu      sync.Mutex
	sink    playback.Sink
	queue   []playback.Notification
	wake    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newNotifier() *notifier {
	n := &notifier{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go n.run()
	return n
}

func (n *notifier) subscribe(sink playback.Sink) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sink = sink
}

func (n *notifier) push(note playback.Notification) {
	n.mu.Lock()
	n.queue = append(n.queue, note)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *notifier) stop() {
	n.once.Do(func() { close(n.stopped) })
}

func (n *notifier) run() {
	for {
		select {
		case <-n.stopped:
			return
		case <-n.wake:
		}

		for {
			n.mu.Lock()
			if len(n.queue) == 0 {
				n.mu.Unlock()
				break
			}
			note := n.queue[0]
			n.queue = n.queue[1:]
			sink := n.sink
			n.mu.Unlock()

			if sink != nil {
				sink(note)
			}
		}
	}
}
