// Package requests turns a user's play request into queued tracks. Slash
// commands and prefix commands both go through it.
package requests

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/hxnx/jukebot/internal/features/shared"
	"github.com/hxnx/jukebot/internal/music"
	"github.com/hxnx/jukebot/internal/playback"
)

const (
	MsgMissingQuery   = "Please provide a search term or URL."
	MsgNotInVoice     = "You need to be in a voice channel."
	MsgNotFound       = "Could not find the requested track."
	MsgEmptyPlaylist  = "That playlist has no playable tracks."
	msgJoinFailedTmpl = "Failed to join voice channel: %v"
)

type TrackResolver interface {
	Resolve(ctx context.Context, query string) (music.Track, error)
	ResolvePlaylist(ctx context.Context, link string) ([]music.Track, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, req playback.EnqueueRequest) (playback.EnqueueResult, error)
}

type Service struct {
	resolver TrackResolver
	player   Enqueuer
}

func NewService(resolver TrackResolver, player Enqueuer) *Service {
	return &Service{resolver: resolver, player: player}
}

type Request struct {
	GuildID        string
	UserID         string
	TextChannelID  string
	VoiceChannelID string
	Query          string
	Playlist       bool
}

type Outcome struct {
	Tracks []music.Track
	Result playback.EnqueueResult
}

// Message is the confirmation shown to the requester.
func (o Outcome) Message() string {
	if len(o.Tracks) == 0 {
		return ""
	}
	if len(o.Tracks) > 1 {
		if o.Result.Started {
			return fmt.Sprintf("Queued %d tracks. Now playing: **%s**", len(o.Tracks), o.Tracks[0].DisplayTitle())
		}
		return fmt.Sprintf("Queued %d tracks starting at position #%d.", len(o.Tracks), o.Result.Position)
	}
	if o.Result.Started {
		return fmt.Sprintf("Now playing: **%s**", o.Tracks[0].DisplayTitle())
	}
	return fmt.Sprintf("Queued: **%s** (position #%d)", o.Tracks[0].DisplayTitle(), o.Result.Position)
}

// Play resolves the query and hands the tracks to the player. Every returned
// error carries a message for the requester.
func (s *Service) Play(ctx context.Context, req Request) (Outcome, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Outcome{}, shared.NewUserError(MsgMissingQuery, nil)
	}
	if req.VoiceChannelID == "" {
		return Outcome{}, shared.NewUserError(MsgNotInVoice, nil)
	}

	tracks, err := s.resolve(ctx, query, req.Playlist)
	if err != nil {
		zlog.Warn().Err(err).Str("guild_id", req.GuildID).Str("query", query).Msg("resolution failed")
		return Outcome{}, shared.NewUserError(MsgNotFound, err)
	}
	if len(tracks) == 0 {
		return Outcome{}, shared.NewUserError(MsgEmptyPlaylist, nil)
	}
	for i := range tracks {
		tracks[i].RequestedBy = req.UserID
	}

	res, err := s.player.Enqueue(ctx, playback.EnqueueRequest{
		GuildID:        req.GuildID,
		VoiceChannelID: req.VoiceChannelID,
		TextChannelID:  req.TextChannelID,
		Tracks:         tracks,
	})
	if err != nil {
		zlog.Warn().Err(err).Str("guild_id", req.GuildID).Str("channel_id", req.VoiceChannelID).Msg("enqueue failed")
		return Outcome{}, shared.NewUserError(fmt.Sprintf(msgJoinFailedTmpl, errors.UnwrapAll(err)), err)
	}

	zlog.Info().
		Str("guild_id", req.GuildID).
		Str("user_id", req.UserID).
		Int("tracks", len(tracks)).
		Bool("started", res.Started).
		Msg("tracks queued")

	return Outcome{Tracks: tracks, Result: res}, nil
}

func (s *Service) resolve(ctx context.Context, query string, playlist bool) ([]music.Track, error) {
	if playlist {
		return s.resolver.ResolvePlaylist(ctx, query)
	}
	track, err := s.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	return []music.Track{track}, nil
}
