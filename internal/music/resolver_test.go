package music

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	mu      sync.Mutex
	outputs map[string]string
	calls   []string
	// delay applies to single track extractions; hang ones never finish
	delay time.Duration
	hang  map[string]bool
}

func (f *fakeExtractor) run(ctx context.Context, target string, limit int) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, target)
	out, ok := f.outputs[target]
	delay, hang := f.delay, f.hang[target]
	f.mu.Unlock()

	if limit == 0 && (delay > 0 || hang) {
		var wait <-chan time.Time
		if !hang {
			wait = time.After(delay)
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if !ok {
		return "", errors.New("ERROR: unsupported url")
	}
	return out, nil
}

// playlist registers a listing of n entries that all resolve.
func (f *fakeExtractor) playlist(link string, n int) []string {
	var lines, entries []string
	for i := range n {
		entry := fmt.Sprintf("https://www.youtube.com/watch?v=%02d", i)
		lines = append(lines, entry+"\tT")
		entries = append(entries, entry)
		f.outputs[entry] = fmt.Sprintf("https://cdn.example/%02d\tTrack %02d\t%s\t10\n", i, i, entry)
	}
	f.outputs[link] = strings.Join(lines, "\n")
	return entries
}

func newTestResolver(f *fakeExtractor, opts ...ResolverOption) *Resolver {
	r := NewResolver(opts...)
	r.extract = f.run
	return r
}

func TestResolveSearchTerm(t *testing.T) {
	f := &fakeExtractor{outputs: map[string]string{
		"ytsearch1:never gonna": "https://cdn.example/audio\tNever Gonna Give You Up\thttps://www.youtube.com/watch?v=dQw4w9WgXcQ\t212.0\n",
	}}
	r := newTestResolver(f)

	track, err := r.Resolve(context.Background(), "  never gonna ")
	require.NoError(t, err)

	assert.Equal(t, "Never Gonna Give You Up", track.Title)
	assert.Equal(t, "https://cdn.example/audio", track.PlayableURL)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", track.SourceURL)
	assert.Equal(t, TrackSourceYouTube, track.Source)
	assert.Equal(t, 212, int(track.Duration.Seconds()))
}

func TestResolveDirectLinkIsNotSearched(t *testing.T) {
	link := "https://soundcloud.com/artist/song"
	f := &fakeExtractor{outputs: map[string]string{
		link: "https://cdn.example/sc\tSong\t" + link + "\tNA\n",
	}}
	r := newTestResolver(f)

	track, err := r.Resolve(context.Background(), link)
	require.NoError(t, err)
	assert.Equal(t, []string{link}, f.calls)
	assert.Equal(t, TrackSourceSoundCloud, track.Source)
	assert.Zero(t, track.Duration)
}

func TestResolveFailures(t *testing.T) {
	f := &fakeExtractor{outputs: map[string]string{
		"ytsearch1:empty": "",
	}}
	r := newTestResolver(f)

	_, err := r.Resolve(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.ErrorIs(t, err, ErrResolveFailed)

	_, err = r.Resolve(context.Background(), "empty")
	assert.ErrorIs(t, err, ErrResolveFailed)

	_, err = r.Resolve(context.Background(), "https://unknown.example/x")
	assert.ErrorIs(t, err, ErrResolveFailed)

	_, err = r.Resolve(context.Background(), "https://open.spotify.com/track/abc123")
	assert.ErrorIs(t, err, ErrResolveFailed, "spotify links need a spotify client")
}

func TestResolveUsesCache(t *testing.T) {
	f := &fakeExtractor{outputs: map[string]string{
		"ytsearch1:lofi": "https://cdn.example/a\tLofi\thttps://youtu.be/x\t60\n",
	}}
	r := newTestResolver(f, WithCache(NewResolveCache(nil, 0)))

	first, err := r.Resolve(context.Background(), "lofi")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "LOFI")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, f.calls, 1)
}

func TestResolvePlaylistSkipsBrokenEntries(t *testing.T) {
	list := "https://www.youtube.com/playlist?list=PL1"
	f := &fakeExtractor{outputs: map[string]string{
		list: strings.Join([]string{
			"https://www.youtube.com/watch?v=a\tA",
			"NA\tdeleted video",
			"https://www.youtube.com/watch?v=b\tB",
			"https://www.youtube.com/watch?v=c\tC",
		}, "\n"),
		"https://www.youtube.com/watch?v=a": "https://cdn.example/a\tA\thttps://www.youtube.com/watch?v=a\t10\n",
		"https://www.youtube.com/watch?v=c": "https://cdn.example/c\tC\thttps://www.youtube.com/watch?v=c\t30\n",
	}}
	r := newTestResolver(f)

	tracks, err := r.ResolvePlaylist(context.Background(), list)
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "A", tracks[0].Title)
	assert.Equal(t, "C", tracks[1].Title)
}

func TestResolvePlaylistNothingPlayable(t *testing.T) {
	list := "https://www.youtube.com/playlist?list=PL2"
	f := &fakeExtractor{outputs: map[string]string{list: "NA\tNA\n"}}
	r := newTestResolver(f)

	_, err := r.ResolvePlaylist(context.Background(), list)
	assert.ErrorIs(t, err, ErrResolveFailed)
}

func TestResolvePlaylistKeepsOrderUnderDeadline(t *testing.T) {
	list := "https://www.youtube.com/playlist?list=PL3"
	f := &fakeExtractor{outputs: map[string]string{}, delay: 30 * time.Millisecond}
	f.playlist(list, 10)
	r := newTestResolver(f)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	tracks, err := r.ResolvePlaylist(ctx, list)
	require.NoError(t, err)
	require.Len(t, tracks, 10)
	for i, track := range tracks {
		assert.Equal(t, fmt.Sprintf("Track %02d", i), track.Title)
	}
}

func TestResolvePlaylistReturnsPartialOnDeadline(t *testing.T) {
	list := "https://www.youtube.com/playlist?list=PL4"
	f := &fakeExtractor{outputs: map[string]string{}, hang: map[string]bool{}}
	entries := f.playlist(list, 10)
	for _, e := range entries[3:] {
		f.hang[e] = true
	}
	r := newTestResolver(f)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	tracks, err := r.ResolvePlaylist(ctx, list)
	require.NoError(t, err)
	require.Len(t, tracks, 3)
	assert.Equal(t, "Track 00", tracks[0].Title)
	assert.Equal(t, "Track 02", tracks[2].Title)
}

func TestResolvePlaylistDeadlineWithNothingResolved(t *testing.T) {
	list := "https://www.youtube.com/playlist?list=PL5"
	f := &fakeExtractor{outputs: map[string]string{}, hang: map[string]bool{}}
	for _, e := range f.playlist(list, 2) {
		f.hang[e] = true
	}
	r := newTestResolver(f)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := r.ResolvePlaylist(ctx, list)
	assert.ErrorIs(t, err, ErrResolveFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseSpotifyLink(t *testing.T) {
	tests := []struct {
		in   string
		kind spotifyKind
		id   string
		ok   bool
	}{
		{"https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=x", spotifyTrack, "4uLU6hMCjMI75M1A2tKUQC", true},
		{"https://open.spotify.com/intl-de/album/1DFixLWuPkv3KT3TnV35m3", spotifyAlbum, "1DFixLWuPkv3KT3TnV35m3", true},
		{"https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M", spotifyPlaylist, "37i9dQZF1DXcBWIGoYBM5M", true},
		{"spotify:track:abc", spotifyTrack, "abc", true},
		{"https://open.spotify.com/artist/xyz", "", "", false},
		{"some search words", "", "", false},
	}

	for _, tt := range tests {
		kind, id, ok := parseSpotifyLink(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.kind, kind, tt.in)
		assert.Equal(t, tt.id, string(id), tt.in)
	}
}
