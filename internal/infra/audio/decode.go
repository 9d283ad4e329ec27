package audio

import (
	"bytes"
	"mime"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"

	"github.com/osa030/19player/internal/app/playback"
)

// Supported container formats.
const (
	FormatMP3 = "mp3"
	FormatWAV = "wav"
)

// Decode turns media into a seekable stream.
// Failures are reported as playback errors of kind KindDecodeFailed.
func Decode(m *Media) (beep.StreamSeekCloser, beep.Format, error) {
	r := nopCloser{bytes.NewReader(m.Data)}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
		err      error
	)
	switch f := DetectFormat(m); f {
	case FormatMP3:
		streamer, format, err = mp3.Decode(r)
	case FormatWAV:
		streamer, format, err = wav.Decode(r)
	default:
		return nil, beep.Format{}, playback.NewError(playback.KindDecodeFailed,
			errors.Newf("unsupported audio format: %s", m.Locator))
	}
	if err != nil {
		return nil, beep.Format{}, playback.NewError(playback.KindDecodeFailed,
			errors.Wrapf(err, "failed to decode %s", m.Locator))
	}
	return streamer, format, nil
}

// DetectFormat picks the container format by file extension, then
// Content-Type, then the leading bytes. Returns "" when unknown.
func DetectFormat(m *Media) string {
	loc := m.Locator
	if i := strings.IndexAny(loc, "?#"); i >= 0 {
		loc = loc[:i]
	}
	switch strings.ToLower(path.Ext(loc)) {
	case ".mp3":
		return FormatMP3
	case ".wav", ".wave":
		return FormatWAV
	}

	if m.ContentType != "" {
		mediaType, _, err := mime.ParseMediaType(m.ContentType)
		if err == nil {
			switch mediaType {
			case "audio/mpeg", "audio/mp3", "audio/mpeg3":
				return FormatMP3
			case "audio/wav", "audio/x-wav", "audio/wave", "audio/vnd.wave":
				return FormatWAV
			}
		}
	}

	data := m.Data
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG frame sync
		return FormatMP3
	}
	return ""
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
