package requests

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxnx/jukebot/internal/features/shared"
	"github.com/hxnx/jukebot/internal/music"
	"github.com/hxnx/jukebot/internal/playback"
)

type fakeResolver struct {
	track    music.Track
	playlist []music.Track
	err      error
	queries  []string
}

func (f *fakeResolver) Resolve(_ context.Context, query string) (music.Track, error) {
	f.queries = append(f.queries, query)
	return f.track, f.err
}

func (f *fakeResolver) ResolvePlaylist(_ context.Context, link string) ([]music.Track, error) {
	f.queries = append(f.queries, link)
	return f.playlist, f.err
}

type fakePlayer struct {
	got    []playback.EnqueueRequest
	result playback.EnqueueResult
	err    error
}

func (f *fakePlayer) Enqueue(_ context.Context, req playback.EnqueueRequest) (playback.EnqueueResult, error) {
	f.got = append(f.got, req)
	return f.result, f.err
}

func baseRequest() Request {
	return Request{
		GuildID:        "g",
		UserID:         "u",
		TextChannelID:  "text",
		VoiceChannelID: "voice",
		Query:          "  lofi beats ",
	}
}

func TestPlayQueuesResolvedTrack(t *testing.T) {
	resolver := &fakeResolver{track: music.Track{Title: "Lofi", PlayableURL: "https://a"}}
	player := &fakePlayer{result: playback.EnqueueResult{Position: 2, QueueLength: 2}}
	svc := NewService(resolver, player)

	out, err := svc.Play(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Equal(t, []string{"lofi beats"}, resolver.queries)
	require.Len(t, player.got, 1)
	assert.Equal(t, "voice", player.got[0].VoiceChannelID)
	assert.Equal(t, "text", player.got[0].TextChannelID)
	assert.Equal(t, "u", player.got[0].Tracks[0].RequestedBy)
	assert.Equal(t, "Queued: **Lofi** (position #2)", out.Message())
}

func TestPlayStartedMessage(t *testing.T) {
	svc := NewService(
		&fakeResolver{track: music.Track{Title: "Lofi", PlayableURL: "https://a"}},
		&fakePlayer{result: playback.EnqueueResult{Started: true}},
	)

	out, err := svc.Play(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Equal(t, "Now playing: **Lofi**", out.Message())
}

func TestPlayPlaylist(t *testing.T) {
	resolver := &fakeResolver{playlist: []music.Track{{Title: "A"}, {Title: "B"}}}
	player := &fakePlayer{result: playback.EnqueueResult{Position: 3}}
	svc := NewService(resolver, player)

	req := baseRequest()
	req.Query = "https://youtube.com/playlist?list=x"
	req.Playlist = true

	out, err := svc.Play(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, player.got[0].Tracks, 2)
	assert.Equal(t, "Queued 2 tracks starting at position #3.", out.Message())
}

func TestPlayUserErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Request)
		resolver *fakeResolver
		player   *fakePlayer
		want     string
	}{
		{
			name:     "empty query",
			mutate:   func(r *Request) { r.Query = "   " },
			resolver: &fakeResolver{},
			player:   &fakePlayer{},
			want:     MsgMissingQuery,
		},
		{
			name:     "not in voice",
			mutate:   func(r *Request) { r.VoiceChannelID = "" },
			resolver: &fakeResolver{},
			player:   &fakePlayer{},
			want:     MsgNotInVoice,
		},
		{
			name:     "resolution failure",
			mutate:   func(*Request) {},
			resolver: &fakeResolver{err: errors.Mark(errors.New("no results"), music.ErrResolveFailed)},
			player:   &fakePlayer{},
			want:     MsgNotFound,
		},
		{
			name:     "empty playlist",
			mutate:   func(r *Request) { r.Playlist = true },
			resolver: &fakeResolver{},
			player:   &fakePlayer{},
			want:     MsgEmptyPlaylist,
		},
		{
			name:     "join failure",
			mutate:   func(*Request) {},
			resolver: &fakeResolver{track: music.Track{Title: "x", PlayableURL: "https://a"}},
			player:   &fakePlayer{err: errors.Wrap(errors.New("missing permissions"), "join channel voice")},
			want:     "Failed to join voice channel: missing permissions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)

			_, err := NewService(tt.resolver, tt.player).Play(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, tt.want, shared.UserMessage(err, ""))
		})
	}
}

func TestResolutionFailureDoesNotEnqueue(t *testing.T) {
	player := &fakePlayer{}
	svc := NewService(&fakeResolver{err: music.ErrResolveFailed}, player)

	_, err := svc.Play(context.Background(), baseRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, music.ErrResolveFailed))
	assert.Empty(t, player.got)
}
