package connect

import (
	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/19player/internal/app/notification"
	"github.com/osa030/19player/internal/app/playback"
	"github.com/osa030/19player/internal/domain/track"
)

// EventInitialState is the type of the first event on every subscription.
const EventInitialState = "initial_state"

// TrackView is the wire form of a track.
type TrackView struct {
	ID       string `mapstructure:"id"`
	Title    string `mapstructure:"title"`
	Artist   string `mapstructure:"artist"`
	CoverURL string `mapstructure:"cover_url"`
}

// StatusView is the wire form of the player status.
type StatusView struct {
	Track             *TrackView `mapstructure:"track"`
	State             string     `mapstructure:"state"`
	Position          float64    `mapstructure:"position"`
	Duration          float64    `mapstructure:"duration"`
	Progress          float64    `mapstructure:"progress"`
	Volume            int        `mapstructure:"volume"`
	Loading           bool       `mapstructure:"loading"`
	SleepRemainingSec float64    `mapstructure:"sleep_remaining_sec"`
}

// EventView is the wire form of a playback event.
type EventView struct {
	SequenceNo uint64     `mapstructure:"sequence_no"`
	Type       string     `mapstructure:"type"`
	Error      string     `mapstructure:"error"`
	ErrorKind  string     `mapstructure:"error_kind"`
	Status     StatusView `mapstructure:"status"`
}

func trackMap(t track.Track) map[string]any {
	return map[string]any{
		"id":        t.ID,
		"title":     t.Title,
		"artist":    t.Artist,
		"cover_url": t.CoverURL,
	}
}

func statusMap(st playback.Status) map[string]any {
	m := map[string]any{
		"track":               nil,
		"state":               st.State.String(),
		"position":            st.Position,
		"duration":            st.Duration,
		"progress":            st.Progress,
		"volume":              st.Volume,
		"loading":             st.Loading,
		"sleep_remaining_sec": st.SleepRemaining.Seconds(),
	}
	if st.Track != nil {
		m["track"] = trackMap(*st.Track)
	}
	return m
}

// eventStatus rebuilds the status carried by an event. Fields the event does
// not carry keep their zero value.
func eventStatus(e playback.Event) playback.Status {
	st := playback.Status{
		Track:    e.Track,
		State:    e.State,
		Position: e.Position,
		Duration: e.Duration,
		Volume:   e.Volume,
	}
	if e.Duration > 0 {
		st.Progress = e.Position / e.Duration * 100
	}
	return st
}

func statusStruct(st playback.Status) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(statusMap(st))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode status")
	}
	return s, nil
}

func tracksStruct(tracks []track.Track) (*structpb.Struct, error) {
	items := lo.Map(tracks, func(t track.Track, _ int) any { return trackMap(t) })
	s, err := structpb.NewStruct(map[string]any{"tracks": items})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode tracks")
	}
	return s, nil
}

func eventStruct(seq uint64, eventType string, st playback.Status, eventErr error) (*structpb.Struct, error) {
	m := map[string]any{
		"sequence_no": seq,
		"type":        eventType,
		"status":      statusMap(st),
	}
	if eventErr != nil {
		m["error"] = eventErr.Error()
		m["error_kind"] = playback.KindOf(eventErr).String()
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode event")
	}
	return s, nil
}

func notificationStruct(n notification.Notification) (*structpb.Struct, error) {
	return eventStruct(n.SequenceNo, n.Event.Type.String(), eventStatus(n.Event), n.Event.Err)
}

// decodeStruct decodes a wire struct into one of the view types.
func decodeStruct(s *structpb.Struct, out any) error {
	if err := mapstructure.Decode(s.AsMap(), out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}
