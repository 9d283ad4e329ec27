package audio

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/19player/internal/app/playback"
)

type fakeObjects struct {
	objects map[string]string
}

func (f *fakeObjects) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	data, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.Newf("no such key: %s", key)
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func TestOpener_File(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "music"), 0o755))
	path := filepath.Join(dir, "music", "song.mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0o644))

	o := &Opener{BaseDir: dir}

	tests := []struct {
		name    string
		locator string
	}{
		{name: "relative path", locator: "music/song.mp3"},
		{name: "absolute path", locator: path},
		{name: "file url", locator: "file://" + filepath.ToSlash(path)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := o.Open(context.Background(), tt.locator)
			require.NoError(t, err)
			assert.Equal(t, []byte("audio"), m.Data)
			assert.Equal(t, path, m.Locator)
		})
	}
}

func TestOpener_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/songs/1/file" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3 bytes"))
	}))
	defer srv.Close()

	o := &Opener{Client: srv.Client()}

	m, err := o.Open(context.Background(), srv.URL+"/songs/1/file")
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", m.ContentType)
	assert.Equal(t, []byte("mp3 bytes"), m.Data)

	_, err = o.Open(context.Background(), srv.URL+"/songs/2/file")
	require.Error(t, err)
	assert.Equal(t, playback.KindSourceUnavailable, playback.KindOf(err))
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestOpener_Object(t *testing.T) {
	o := &Opener{Objects: &fakeObjects{objects: map[string]string{"music/albums/a.wav": "wav bytes"}}}

	m, err := o.Open(context.Background(), "s3://music/albums/a.wav")
	require.NoError(t, err)
	assert.Equal(t, []byte("wav bytes"), m.Data)
	assert.Equal(t, "albums/a.wav", m.Locator)

	_, err = o.Open(context.Background(), "s3://music/missing.wav")
	assert.Equal(t, playback.KindSourceUnavailable, playback.KindOf(err))
}

func TestOpener_Errors(t *testing.T) {
	o := &Opener{BaseDir: t.TempDir()}

	tests := []struct {
		name    string
		locator string
	}{
		{name: "empty", locator: "  "},
		{name: "missing file", locator: "nope.mp3"},
		{name: "unsupported scheme", locator: "ftp://example.com/a.mp3"},
		{name: "storage not configured", locator: "s3://bucket/a.mp3"},
		{name: "object without key", locator: "s3://bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Open(context.Background(), tt.locator)
			require.Error(t, err)
			assert.Equal(t, playback.KindSourceUnavailable, playback.KindOf(err))
		})
	}
}
