package connect

import (
	"context"
	"strings"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// PlayerClient is a client for PlayerService.
type PlayerClient struct {
	getStatus       *connect.Client[emptypb.Empty, structpb.Struct]
	listTracks      *connect.Client[wrapperspb.StringValue, structpb.Struct]
	play            *connect.Client[wrapperspb.StringValue, structpb.Struct]
	togglePlayPause *connect.Client[emptypb.Empty, structpb.Struct]
	seek            *connect.Client[wrapperspb.DoubleValue, structpb.Struct]
	next            *connect.Client[emptypb.Empty, structpb.Struct]
	previous        *connect.Client[emptypb.Empty, structpb.Struct]
	setVolume       *connect.Client[wrapperspb.Int32Value, structpb.Struct]
	setSleepTimer   *connect.Client[durationpb.Duration, structpb.Struct]
	subscribeEvents *connect.Client[emptypb.Empty, structpb.Struct]
}

// NewPlayerClient creates a client for the PlayerService served at baseURL.
func NewPlayerClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerClient {
	baseURL = strings.TrimRight(baseURL, "/")
	return &PlayerClient{
		getStatus:       connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+GetStatusProcedure, opts...),
		listTracks:      connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+ListTracksProcedure, opts...),
		play:            connect.NewClient[wrapperspb.StringValue, structpb.Struct](httpClient, baseURL+PlayProcedure, opts...),
		togglePlayPause: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+TogglePlayPauseProcedure, opts...),
		seek:            connect.NewClient[wrapperspb.DoubleValue, structpb.Struct](httpClient, baseURL+SeekProcedure, opts...),
		next:            connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+NextProcedure, opts...),
		previous:        connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+PreviousProcedure, opts...),
		setVolume:       connect.NewClient[wrapperspb.Int32Value, structpb.Struct](httpClient, baseURL+SetVolumeProcedure, opts...),
		setSleepTimer:   connect.NewClient[durationpb.Duration, structpb.Struct](httpClient, baseURL+SetSleepTimerProcedure, opts...),
		subscribeEvents: connect.NewClient[emptypb.Empty, structpb.Struct](httpClient, baseURL+SubscribeEventsProcedure, opts...),
	}
}

// GetStatus returns the player status.
func (c *PlayerClient) GetStatus(ctx context.Context) (*StatusView, error) {
	return callStatus(ctx, c.getStatus, &emptypb.Empty{})
}

// ListTracks returns the tracks matching query.
func (c *PlayerClient) ListTracks(ctx context.Context, query string) ([]TrackView, error) {
	resp, err := c.listTracks.CallUnary(ctx, connect.NewRequest(wrapperspb.String(query)))
	if err != nil {
		return nil, err
	}

	var body struct {
		Tracks []TrackView `mapstructure:"tracks"`
	}
	if err := decodeStruct(resp.Msg, &body); err != nil {
		return nil, err
	}
	return body.Tracks, nil
}

// Play plays the track with the given id.
func (c *PlayerClient) Play(ctx context.Context, trackID string) (*StatusView, error) {
	return callStatus(ctx, c.play, wrapperspb.String(trackID))
}

// TogglePlayPause flips between playing and paused.
func (c *PlayerClient) TogglePlayPause(ctx context.Context) (*StatusView, error) {
	return callStatus(ctx, c.togglePlayPause, &emptypb.Empty{})
}

// Seek moves the position of the current track.
func (c *PlayerClient) Seek(ctx context.Context, seconds float64) (*StatusView, error) {
	return callStatus(ctx, c.seek, wrapperspb.Double(seconds))
}

// Next plays the following track.
func (c *PlayerClient) Next(ctx context.Context) (*StatusView, error) {
	return callStatus(ctx, c.next, &emptypb.Empty{})
}

// Previous plays the preceding track.
func (c *PlayerClient) Previous(ctx context.Context) (*StatusView, error) {
	return callStatus(ctx, c.previous, &emptypb.Empty{})
}

// SetVolume sets the volume percent.
func (c *PlayerClient) SetVolume(ctx context.Context, percent int) (*StatusView, error) {
	return callStatus(ctx, c.setVolume, wrapperspb.Int32(int32(percent)))
}

// SetSleepTimer pauses playback after d. Zero cancels the timer.
func (c *PlayerClient) SetSleepTimer(ctx context.Context, d time.Duration) (*StatusView, error) {
	return callStatus(ctx, c.setSleepTimer, durationpb.New(d))
}

// SubscribeEvents calls fn for every event until ctx is done, the server
// closes the stream or fn returns an error.
func (c *PlayerClient) SubscribeEvents(ctx context.Context, fn func(EventView) error) error {
	stream, err := c.subscribeEvents.CallServerStream(ctx, connect.NewRequest(&emptypb.Empty{}))
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Receive() {
		var ev EventView
		if err := decodeStruct(stream.Msg(), &ev); err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return stream.Err()
}

func callStatus[Req any](ctx context.Context, client *connect.Client[Req, structpb.Struct], msg *Req) (*StatusView, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}

	var st StatusView
	if err := decodeStruct(resp.Msg, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
