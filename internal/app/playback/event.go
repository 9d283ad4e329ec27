package playback

import "github.com/osa030/19player/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackLoading    EventType = iota // A new track was attached to the resource
	EventTrackStarted                     // Resource confirmed playback of the current track
	EventStateChanged                     // Transport state changed (pause/resume)
	EventPositionChanged                  // Position changed (seek or time update)
	EventDurationKnown                    // Resource reported the track duration
	EventTrackEnded                       // Current track reached its end
	EventLoadFailed                       // Current track could not be played
	EventVolumeChanged                    // Volume changed
	EventSleepTimerFired                  // Sleep timer elapsed and paused playback
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackLoading:
		return "track_loading"
	case EventTrackStarted:
		return "track_started"
	case EventStateChanged:
		return "state_changed"
	case EventPositionChanged:
		return "position_changed"
	case EventDurationKnown:
		return "duration_known"
	case EventTrackEnded:
		return "track_ended"
	case EventLoadFailed:
		return "load_failed"
	case EventVolumeChanged:
		return "volume_changed"
	case EventSleepTimerFired:
		return "sleep_timer_fired"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	Track    *track.Track // Current track (nil when nothing is loaded)
	State    State
	Position float64 // Seconds
	Duration float64 // Seconds, 0 when unknown
	Volume   int     // Percent
	Err      error   // Set for EventLoadFailed
}
