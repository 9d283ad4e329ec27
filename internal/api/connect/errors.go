package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/19player/internal/app/playback"
	"github.com/osa030/19player/internal/app/session"
)

// toConnectError maps application errors onto RPC status codes.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, session.ErrTrackNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, session.ErrNotRunning):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	}

	switch playback.KindOf(err) {
	case playback.KindSourceUnavailable:
		return connect.NewError(connect.CodeUnavailable, err)
	case playback.KindDecodeFailed:
		return connect.NewError(connect.CodeInvalidArgument, err)
	case playback.KindAborted:
		return connect.NewError(connect.CodeAborted, err)
	}

	return connect.NewError(connect.CodeInternal, err)
}
