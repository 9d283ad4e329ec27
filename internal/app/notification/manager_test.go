package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19player/internal/app/playback"
)

type recordingStream struct {
	mu       sync.Mutex
	received []Notification
	block    chan struct{}
}

func (s *recordingStream) Send(n Notification) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, n)
	return nil
}

func (s *recordingStream) Received() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Notification, len(s.received))
	copy(result, s.received)
	return result
}

func TestManager_SubscribeUnsubscribe(t *testing.T) {
	m := NewManager()

	id1 := m.Subscribe(&recordingStream{})
	id2 := m.Subscribe(&recordingStream{})
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, m.SubscriberCount())

	m.Unsubscribe(id1)
	assert.Equal(t, 1, m.SubscriberCount())

	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_BroadcastSequence(t *testing.T) {
	m := NewManager()
	a := &recordingStream{}
	b := &recordingStream{}
	m.Subscribe(a)
	m.Subscribe(b)

	m.Broadcast(playback.Event{Type: playback.EventTrackStarted})
	m.Broadcast(playback.Event{Type: playback.EventStateChanged})

	for _, s := range []*recordingStream{a, b} {
		got := s.Received()
		require.Len(t, got, 2)
		assert.Equal(t, uint64(1), got[0].SequenceNo)
		assert.Equal(t, playback.EventTrackStarted, got[0].Event.Type)
		assert.Equal(t, uint64(2), got[1].SequenceNo)
		assert.Equal(t, playback.EventStateChanged, got[1].Event.Type)
	}
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	m.sendTimeout = 50 * time.Millisecond

	slow := &recordingStream{block: make(chan struct{})}
	defer close(slow.block)
	fast := &recordingStream{}
	m.Subscribe(slow)
	m.Subscribe(fast)

	start := time.Now()
	m.Broadcast(playback.Event{Type: playback.EventVolumeChanged})

	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, fast.Received(), 1)
}
