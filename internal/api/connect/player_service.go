package connect

import (
	"context"
	"math"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/osa030/19player/internal/app/notification"
	"github.com/osa030/19player/internal/app/playback"
	"github.com/osa030/19player/internal/app/session"
)

// PlayerServiceName is the fully-qualified name of the PlayerService service.
const PlayerServiceName = "player.v1.PlayerService"

// Procedure paths of PlayerService.
const (
	GetStatusProcedure       = "/" + PlayerServiceName + "/GetStatus"
	ListTracksProcedure      = "/" + PlayerServiceName + "/ListTracks"
	PlayProcedure            = "/" + PlayerServiceName + "/Play"
	TogglePlayPauseProcedure = "/" + PlayerServiceName + "/TogglePlayPause"
	SeekProcedure            = "/" + PlayerServiceName + "/Seek"
	NextProcedure            = "/" + PlayerServiceName + "/Next"
	PreviousProcedure        = "/" + PlayerServiceName + "/Previous"
	SetVolumeProcedure       = "/" + PlayerServiceName + "/SetVolume"
	SetSleepTimerProcedure   = "/" + PlayerServiceName + "/SetSleepTimer"
	SubscribeEventsProcedure = "/" + PlayerServiceName + "/SubscribeEvents"
)

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	session  *session.Manager
	playWait time.Duration
}

// NewPlayerService creates a new PlayerService.
// Play, Next and Previous wait up to playWait for the track to start.
func NewPlayerService(session *session.Manager, playWait time.Duration) *PlayerService {
	return &PlayerService{
		session:  session,
		playWait: playWait,
	}
}

// NewPlayerServiceHandler builds an HTTP handler serving every PlayerService
// procedure. It returns the path prefix to mount it on.
func NewPlayerServiceHandler(svc *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(GetStatusProcedure, connect.NewUnaryHandler(GetStatusProcedure, svc.GetStatus, opts...))
	mux.Handle(ListTracksProcedure, connect.NewUnaryHandler(ListTracksProcedure, svc.ListTracks, opts...))
	mux.Handle(PlayProcedure, connect.NewUnaryHandler(PlayProcedure, svc.Play, opts...))
	mux.Handle(TogglePlayPauseProcedure, connect.NewUnaryHandler(TogglePlayPauseProcedure, svc.TogglePlayPause, opts...))
	mux.Handle(SeekProcedure, connect.NewUnaryHandler(SeekProcedure, svc.Seek, opts...))
	mux.Handle(NextProcedure, connect.NewUnaryHandler(NextProcedure, svc.Next, opts...))
	mux.Handle(PreviousProcedure, connect.NewUnaryHandler(PreviousProcedure, svc.Previous, opts...))
	mux.Handle(SetVolumeProcedure, connect.NewUnaryHandler(SetVolumeProcedure, svc.SetVolume, opts...))
	mux.Handle(SetSleepTimerProcedure, connect.NewUnaryHandler(SetSleepTimerProcedure, svc.SetSleepTimer, opts...))
	mux.Handle(SubscribeEventsProcedure, connect.NewServerStreamHandler(SubscribeEventsProcedure, svc.SubscribeEvents, opts...))
	return "/" + PlayerServiceName + "/", mux
}

// GetStatus returns the current player status.
func (s *PlayerService) GetStatus(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	return s.statusResponse()
}

// ListTracks returns the tracks matching the query, all tracks for an empty query.
func (s *PlayerService) ListTracks(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[structpb.Struct], error) {
	body, err := tracksStruct(s.session.Tracks(req.Msg.GetValue()))
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(body), nil
}

// Play starts the track with the given id.
func (s *PlayerService) Play(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[structpb.Struct], error) {
	trackID := req.Msg.GetValue()
	if trackID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("track id is required"))
	}

	load, err := s.session.Play(trackID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.awaitLoad(ctx, load); err != nil {
		return nil, err
	}
	return s.statusResponse()
}

// TogglePlayPause flips between playing and paused.
func (s *PlayerService) TogglePlayPause(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	if _, err := s.session.TogglePlayPause(); err != nil {
		return nil, toConnectError(err)
	}
	return s.statusResponse()
}

// Seek moves the position of the current track, in seconds.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[wrapperspb.DoubleValue],
) (*connect.Response[structpb.Struct], error) {
	seconds := req.Msg.GetValue()
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.Newf("invalid position: %v", seconds))
	}

	if err := s.session.Seek(seconds); err != nil {
		return nil, toConnectError(err)
	}
	return s.statusResponse()
}

// Next plays the following track.
func (s *PlayerService) Next(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	load, err := s.session.Next()
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.awaitLoad(ctx, load); err != nil {
		return nil, err
	}
	return s.statusResponse()
}

// Previous plays the preceding track.
func (s *PlayerService) Previous(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[structpb.Struct], error) {
	load, err := s.session.Previous()
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.awaitLoad(ctx, load); err != nil {
		return nil, err
	}
	return s.statusResponse()
}

// SetVolume sets the volume percent. Out of range values are clamped.
func (s *PlayerService) SetVolume(
	ctx context.Context,
	req *connect.Request[wrapperspb.Int32Value],
) (*connect.Response[structpb.Struct], error) {
	if _, err := s.session.SetVolume(int(req.Msg.GetValue())); err != nil {
		return nil, toConnectError(err)
	}
	return s.statusResponse()
}

// SetSleepTimer pauses playback after the given duration. Zero cancels the timer.
func (s *PlayerService) SetSleepTimer(
	ctx context.Context,
	req *connect.Request[durationpb.Duration],
) (*connect.Response[structpb.Struct], error) {
	if err := req.Msg.CheckValid(); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	if err := s.session.SetSleepTimer(req.Msg.AsDuration()); err != nil {
		return nil, toConnectError(err)
	}
	return s.statusResponse()
}

// SubscribeEvents streams playback events, starting with the current state.
func (s *PlayerService) SubscribeEvents(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
	stream *connect.ServerStream[structpb.Struct],
) error {
	notifManager := s.session.GetNotificationManager()

	initial, err := eventStruct(notifManager.NextSequenceNo(), EventInitialState, s.session.GetStatus(), nil)
	if err != nil {
		return connect.NewError(connect.CodeInternal, err)
	}
	if err := stream.Send(initial); err != nil {
		return err
	}

	adapter := &notificationStreamAdapter{stream: stream}
	subscriptionID := notifManager.Subscribe(adapter)
	zlog.Debug().Msgf("event subscription started: subscription=%s", subscriptionID)

	// Wait for context cancellation or player shutdown
	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}

	notifManager.Unsubscribe(subscriptionID)
	zlog.Debug().Msgf("event subscription ended: subscription=%s", subscriptionID)

	return nil
}

// awaitLoad waits up to playWait for load. A load still pending afterwards
// is not an error: the status reports it as loading.
func (s *PlayerService) awaitLoad(ctx context.Context, load *playback.Load) error {
	if load == nil {
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.playWait)
	defer cancel()

	err := load.Wait(waitCtx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		zlog.Debug().Msgf("track still loading after %v: track=%s", s.playWait, load.Track.ID)
		return nil
	}
	return toConnectError(err)
}

func (s *PlayerService) statusResponse() (*connect.Response[structpb.Struct], error) {
	body, err := statusStruct(s.session.GetStatus())
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(body), nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
// Sends are serialized since a timed out send may still be in flight.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[structpb.Struct]
}

func (a *notificationStreamAdapter) Send(n notification.Notification) error {
	body, err := notificationStruct(n)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(body)
}
