package playback

// Attachment identifies one binding of a source to the resource.
// Every LoadAndPlay creates a new attachment; notifications carrying an
// older attachment are discarded.
type Attachment uint64

// NotificationKind represents the kind of an inbound resource notification.
type NotificationKind int

const (
	NotifyPlaying       NotificationKind = iota // Play request succeeded
	NotifyTimeUpdate                            // Position changed, Seconds holds the new position
	NotifyDurationKnown                         // Duration known, Seconds holds the duration
	NotifyEnded                                 // Source played to the end
	NotifyError                                 // Source failed, ErrKind and Err describe why
)

// String returns the string representation of the notification kind.
func (k NotificationKind) String() string {
	switch k {
	case NotifyPlaying:
		return "playing"
	case NotifyTimeUpdate:
		return "time_update"
	case NotifyDurationKnown:
		return "duration_known"
	case NotifyEnded:
		return "ended"
	case NotifyError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is an asynchronous report from the audio resource.
type Notification struct {
	Attachment Attachment
	Kind       NotificationKind
	Seconds    float64
	ErrKind    ErrorKind
	Err        error
}

// Sink receives resource notifications.
type Sink func(Notification)

// Resource is the platform audio primitive driven by a Session.
//
// Implementations decode and output audio on their own goroutines and report
// back only through the subscribed Sink. They must never invoke the Sink from
// inside one of their methods. Notifications must be emitted in order.
type Resource interface {
	// Subscribe registers the sink for all future notifications.
	Subscribe(sink Sink)
	// Attach detaches any current source and binds locator under a.
	// A returned error means the source cannot be attached at all.
	Attach(a Attachment, locator string) error
	// Play requests playback of the attached source.
	Play()
	// Pause pauses playback.
	Pause()
	// SetCurrentTime moves the playback position.
	SetCurrentTime(seconds float64)
	// SetVolume sets the output gain in [0,1].
	SetVolume(fraction float64)
}
