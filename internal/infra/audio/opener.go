// Package audio implements the audio resource: locating, decoding and
// playing sources on the sound card.
package audio

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/app/playback"
)

// ObjectGetter reads objects from S3 compatible storage.
type ObjectGetter interface {
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Media is the raw content behind a locator.
type Media struct {
	Locator     string
	ContentType string
	Data        []byte
}

// Opener resolves locators to media.
//
// Supported locators:
//   - plain paths and file:// URLs, relative paths resolved against BaseDir
//   - http:// and https:// URLs, fetched with Client
//   - s3://bucket/key, read from Objects
type Opener struct {
	BaseDir string
	Client  *http.Client
	Objects ObjectGetter
}

// Open reads the whole content of locator.
// Failures are reported as playback errors of kind KindSourceUnavailable.
func (o *Opener) Open(ctx context.Context, locator string) (*Media, error) {
	if strings.TrimSpace(locator) == "" {
		return nil, unavailable(errors.New("empty locator"))
	}

	u, err := url.Parse(locator)
	if err != nil || len(u.Scheme) <= 1 {
		// Not a URL, or a Windows drive letter
		return o.openFile(locator)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return o.openFile(u.Path)
	case "http", "https":
		return o.openHTTP(ctx, locator)
	case "s3":
		return o.openObject(ctx, locator, u.Host, strings.TrimPrefix(u.Path, "/"))
	default:
		return nil, unavailable(errors.Newf("unsupported locator scheme: %s", u.Scheme))
	}
}

func (o *Opener) openFile(path string) (*Media, error) {
	if !filepath.IsAbs(path) && o.BaseDir != "" {
		path = filepath.Join(o.BaseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, unavailable(errors.Wrapf(err, "failed to read %s", path))
	}
	return &Media{Locator: path, Data: data}, nil
}

func (o *Opener) openHTTP(ctx context.Context, locator string) (*Media, error) {
	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, unavailable(errors.Wrap(err, "failed to create request"))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, unavailable(errors.Wrapf(err, "failed to fetch %s", locator))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, unavailable(errors.Newf("fetch %s: unexpected status %d", locator, resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, unavailable(errors.Wrapf(err, "failed to read body of %s", locator))
	}

	zlog.Debug().Msgf("audio: fetched source: url=%s bytes=%d", locator, len(data))
	return &Media{Locator: locator, ContentType: resp.Header.Get("Content-Type"), Data: data}, nil
}

func (o *Opener) openObject(ctx context.Context, locator, bucket, key string) (*Media, error) {
	if o.Objects == nil {
		return nil, unavailable(errors.New("object storage is not configured"))
	}
	if bucket == "" || key == "" {
		return nil, unavailable(errors.Newf("invalid object locator: %s", locator))
	}

	r, err := o.Objects.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, unavailable(errors.Wrapf(err, "failed to get object %s", locator))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, unavailable(errors.Wrapf(err, "failed to read object %s", locator))
	}
	return &Media{Locator: key, Data: data}, nil
}

func unavailable(err error) error {
	return playback.NewError(playback.KindSourceUnavailable, err)
}
