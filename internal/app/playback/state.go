// Package playback provides the playback session: transport state, position,
// volume and track navigation bound to a single audio resource.
package playback

// State represents the transport state.
type State int

const (
	StateStopped State = iota // Nothing decoding (initial, ended, failed or loading)
	StatePlaying              // Resource is playing the current track
	StatePaused               // Current track is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
