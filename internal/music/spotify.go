package music

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultOEmbedEndpoint = "https://open.spotify.com/oembed"

var spotifyLinkPattern = regexp.MustCompile(`open\.spotify\.com/(?:intl-[a-z]+/)?(track|album|playlist)/([A-Za-z0-9]+)`)

type spotifyKind string

const (
	spotifyTrack    spotifyKind = "track"
	spotifyAlbum    spotifyKind = "album"
	spotifyPlaylist spotifyKind = "playlist"
)

// SpotifyClient turns Spotify links into search titles. With credentials it
// uses the Web API; without them, or when the API fails, it falls back to
// the public oEmbed endpoint which only knows the page title.
type SpotifyClient struct {
	api        *spotify.Client
	httpClient *http.Client
	oembedURL  string
}

func NewSpotifyClient(ctx context.Context, clientID, clientSecret string) *SpotifyClient {
	c := &SpotifyClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		oembedURL:  defaultOEmbedEndpoint,
	}

	if clientID != "" && clientSecret != "" {
		creds := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyauth.TokenURL,
		}
		c.api = spotify.New(creds.Client(ctx))
	}

	return c
}

func IsSpotifyLink(input string) bool {
	_, _, ok := parseSpotifyLink(input)
	return ok
}

func parseSpotifyLink(input string) (spotifyKind, spotify.ID, bool) {
	input = strings.TrimSpace(input)
	if id, ok := strings.CutPrefix(input, "spotify:track:"); ok && id != "" {
		return spotifyTrack, spotify.ID(id), true
	}

	m := spotifyLinkPattern.FindStringSubmatch(input)
	if m == nil {
		return "", "", false
	}
	return spotifyKind(m[1]), spotify.ID(m[2]), true
}

// Title returns a search phrase for a Spotify link: "name artists" for tracks
// when the API is available, the oEmbed page title otherwise.
func (c *SpotifyClient) Title(ctx context.Context, link string) (string, error) {
	kind, id, ok := parseSpotifyLink(link)
	if !ok {
		return "", errors.Newf("not a spotify link: %s", link)
	}

	if c.api != nil && kind == spotifyTrack {
		track, err := c.api.GetTrack(ctx, id)
		if err == nil {
			return trackPhrase(track.SimpleTrack), nil
		}
		zlog.Warn().Err(err).Str("spotify_id", string(id)).Msg("spotify api lookup failed, using oembed")
	}

	return c.oembedTitle(ctx, canonicalLink(kind, id))
}

// CollectionTitles lists search phrases for every track of an album or
// playlist. Track links yield a single phrase.
func (c *SpotifyClient) CollectionTitles(ctx context.Context, link string, limit int) ([]string, error) {
	kind, id, ok := parseSpotifyLink(link)
	if !ok {
		return nil, errors.Newf("not a spotify link: %s", link)
	}

	if c.api != nil && kind != spotifyTrack {
		titles, err := c.collectionFromAPI(ctx, kind, id, limit)
		if err == nil && len(titles) > 0 {
			return titles, nil
		}
		zlog.Warn().Err(err).Str("spotify_id", string(id)).Msg("spotify collection lookup failed, using oembed")
	}

	title, err := c.Title(ctx, link)
	if err != nil {
		return nil, err
	}
	return []string{title}, nil
}

func (c *SpotifyClient) collectionFromAPI(ctx context.Context, kind spotifyKind, id spotify.ID, limit int) ([]string, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	var titles []string
	switch kind {
	case spotifyAlbum:
		page, err := c.api.GetAlbumTracks(ctx, id, spotify.Limit(limit))
		if err != nil {
			return nil, errors.Wrap(err, "get album tracks")
		}
		for _, t := range page.Tracks {
			titles = append(titles, trackPhrase(t))
		}
	case spotifyPlaylist:
		page, err := c.api.GetPlaylistItems(ctx, id, spotify.Limit(limit))
		if err != nil {
			return nil, errors.Wrap(err, "get playlist items")
		}
		for _, item := range page.Items {
			// episodes have no track
			if item.Track.Track == nil {
				continue
			}
			titles = append(titles, trackPhrase(item.Track.Track.SimpleTrack))
		}
	}
	return titles, nil
}

func (c *SpotifyClient) oembedTitle(ctx context.Context, link string) (string, error) {
	endpoint := c.oembedURL + "?url=" + url.QueryEscape(link)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.Wrap(err, "build oembed request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "oembed request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Newf("oembed status %d", resp.StatusCode)
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", errors.Wrap(err, "decode oembed response")
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		return "", errors.New("oembed response has no title")
	}
	return title, nil
}

func trackPhrase(t spotify.SimpleTrack) string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	if len(names) == 0 {
		return t.Name
	}
	return t.Name + " " + strings.Join(names, ", ")
}

func canonicalLink(kind spotifyKind, id spotify.ID) string {
	return "https://open.spotify.com/" + string(kind) + "/" + string(id)
}
