package music

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOEmbedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://open.spotify.com/track/abc123", r.URL.Query().Get("url"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSpotifyTitleFromOEmbed(t *testing.T) {
	srv := newOEmbedServer(t, http.StatusOK, `{"title":"Song Name"}`)
	c := NewSpotifyClient(context.Background(), "", "")
	c.oembedURL = srv.URL

	title, err := c.Title(context.Background(), "https://open.spotify.com/track/abc123?si=zzz")
	require.NoError(t, err)
	assert.Equal(t, "Song Name", title)

	titles, err := c.CollectionTitles(context.Background(), "spotify:track:abc123", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Song Name"}, titles)
}

func TestSpotifyTitleOEmbedError(t *testing.T) {
	srv := newOEmbedServer(t, http.StatusNotFound, `{}`)
	c := NewSpotifyClient(context.Background(), "", "")
	c.oembedURL = srv.URL

	_, err := c.Title(context.Background(), "https://open.spotify.com/track/abc123")
	assert.Error(t, err)
}

func TestResolveSpotifyLinkSearchesByTitle(t *testing.T) {
	srv := newOEmbedServer(t, http.StatusOK, `{"title":"Song Name"}`)
	spot := NewSpotifyClient(context.Background(), "", "")
	spot.oembedURL = srv.URL

	f := &fakeExtractor{outputs: map[string]string{
		"ytsearch1:Song Name": "https://cdn.example/s\tSong Name (Official)\thttps://www.youtube.com/watch?v=s\t200\n",
	}}
	r := newTestResolver(f, WithSpotify(spot))

	track, err := r.Resolve(context.Background(), "https://open.spotify.com/track/abc123")
	require.NoError(t, err)
	assert.Equal(t, TrackSourceSpotify, track.Source)
	assert.Equal(t, "https://cdn.example/s", track.PlayableURL)
}
