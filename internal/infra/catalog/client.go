// Package catalog provides a client for the music catalog REST API.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/oauth2"

	"github.com/osa030/19player/internal/domain/playlist"
	"github.com/osa030/19player/internal/domain/track"
)

// ErrNotFound is returned when the catalog has no such resource.
var ErrNotFound = errors.New("not found")

// Config represents catalog client configuration.
type Config struct {
	BaseURL string        // e.g. http://localhost:8080/api
	Token   string        // Bearer token, optional
	Timeout time.Duration // Defaults to 10s
}

// Client is a catalog API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ID is a catalog identifier. The API sends either numbers or strings.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrapf(err, "invalid id %s", string(data))
	}
	*id = ID(n.String())
	return nil
}

// Song represents a song in the catalog.
type Song struct {
	ID     ID     `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Cover  string `json:"cover"`
}

// Playlist represents a playlist in the catalog.
type Playlist struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Songs []Song `json:"songs"`
}

// apiError represents an error body returned by the catalog.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("catalog base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, "invalid catalog base URL")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.Token != "" {
		httpClient = oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.Token,
			TokenType:   "Bearer",
		}))
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// HTTPClient returns the authenticated HTTP client, used to fetch song files.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// SongFileURL returns the URL of the audio file of a song.
func (c *Client) SongFileURL(id ID) string {
	return c.baseURL + "/songs/" + url.PathEscape(string(id)) + "/file"
}

// ListSongs retrieves all songs.
func (c *Client) ListSongs(ctx context.Context) ([]Song, error) {
	var songs []Song
	if err := c.get(ctx, "/songs", &songs); err != nil {
		return nil, errors.Wrap(err, "failed to list songs")
	}
	return songs, nil
}

// ListPlaylists retrieves all playlists.
func (c *Client) ListPlaylists(ctx context.Context) ([]Playlist, error) {
	var playlists []Playlist
	if err := c.get(ctx, "/playlists", &playlists); err != nil {
		return nil, errors.Wrap(err, "failed to list playlists")
	}
	return playlists, nil
}

// GetPlaylist retrieves a playlist with its songs.
func (c *Client) GetPlaylist(ctx context.Context, id ID) (*Playlist, error) {
	var p Playlist
	if err := c.get(ctx, "/playlists/"+url.PathEscape(string(id)), &p); err != nil {
		return nil, errors.Wrapf(err, "failed to get playlist %s", id)
	}
	return &p, nil
}

// Tracks returns the playable tracks of the catalog.
// With a playlist id only that playlist's songs are returned, in playlist order.
func (c *Client) Tracks(ctx context.Context, playlistID string) ([]track.Track, error) {
	if playlistID != "" {
		p, err := c.GetPlaylist(ctx, ID(playlistID))
		if err != nil {
			return nil, err
		}
		pl := c.toPlaylist(p)
		zlog.Debug().Msgf("catalog: loaded playlist: id=%s name=%q tracks=%v", pl.ID, pl.Name, pl.TrackIDs())
		return pl.Tracks, nil
	}

	songs, err := c.ListSongs(ctx)
	if err != nil {
		return nil, err
	}
	tracks := c.toTracks(songs)
	zlog.Debug().Msgf("catalog: loaded tracks: count=%d", len(tracks))
	return tracks, nil
}

func (c *Client) toPlaylist(p *Playlist) playlist.Playlist {
	return playlist.Playlist{
		ID:     string(p.ID),
		Name:   p.Name,
		Tracks: c.toTracks(p.Songs),
	}
}

func (c *Client) toTracks(songs []Song) []track.Track {
	songs = lo.Filter(songs, func(s Song, _ int) bool { return s.ID != "" })
	return lo.Map(songs, func(s Song, _ int) track.Track {
		return track.Track{
			ID:       string(s.ID),
			Title:    s.Title,
			Artist:   s.Artist,
			CoverURL: s.Cover,
			Source:   c.SongFileURL(s.ID),
		}
	})
}

// get fetches path and decodes the JSON body into out.
// Bodies wrapped as {"data": ...} are unwrapped.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "failed to read response body")
	}

	if resp.StatusCode == http.StatusNotFound {
		return errors.Wrapf(ErrNotFound, "GET %s", path)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && (apiErr.Error != "" || apiErr.Message != "") {
			return errors.Newf("catalog API error %d: %s", resp.StatusCode, lo.Ternary(apiErr.Error != "", apiErr.Error, apiErr.Message))
		}
		return errors.Newf("catalog API error %d", resp.StatusCode)
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
			body = envelope.Data
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to parse response")
	}
	return nil
}

// String returns the id as a string.
func (id ID) String() string {
	return string(id)
}
