package playback

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

func (c *Controller) view(g *guild) NowPlaying {
	st := &g.st
	v := NowPlaying{
		GuildID:      g.id,
		Paused:       st.phase == PhasePaused,
		Repeat:       st.repeat,
		SkipVotes:    len(st.votes),
		SkipRequired: st.required,
		QueueLength:  len(st.queue),
	}
	if st.current != nil {
		track := *st.current
		v.Track = &track
	}
	return v
}

func (c *Controller) refreshStatus(g *guild) {
	c.publishStatus(g, false)
}

// publishStatus edits the status message in place. When the edit fails the
// message is recreated in the same channel; with create set a missing
// message is sent to the guild's text channel.
func (c *Controller) publishStatus(g *guild, create bool) {
	if c.board == nil {
		return
	}
	st := &g.st

	ctx, cancel := context.WithTimeout(context.Background(), boardTimeout)
	defer cancel()

	view := c.view(g)
	channelID := st.textChannelID

	if st.status != nil {
		err := c.board.Edit(ctx, *st.status, view)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrStatusNotFound) {
			zlog.Debug().Err(err).Str("guild_id", g.id).Msg("status edit failed, recreating")
			if derr := c.board.Delete(ctx, *st.status); derr != nil {
				zlog.Debug().Err(derr).Str("guild_id", g.id).Msg("failed to delete old status message")
			}
		}
		channelID = st.status.ChannelID
		st.status = nil
	} else if !create {
		return
	}

	if channelID == "" {
		return
	}

	msg, err := c.board.Send(ctx, channelID, view)
	if err != nil {
		zlog.Warn().Err(err).Str("guild_id", g.id).Str("channel_id", channelID).Msg("failed to send status message")
		return
	}
	st.status = &msg
}

func (c *Controller) deleteStatus(g *guild) {
	st := &g.st
	if st.status == nil || c.board == nil {
		st.status = nil
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), boardTimeout)
	defer cancel()

	if err := c.board.Delete(ctx, *st.status); err != nil && !errors.Is(err, ErrStatusNotFound) {
		zlog.Warn().Err(err).Str("guild_id", g.id).Msg("failed to delete status message")
	}
	st.status = nil
}

func (c *Controller) announce(g *guild, content string) {
	if c.board == nil {
		return
	}
	channelID := g.st.textChannelID
	if g.st.status != nil {
		channelID = g.st.status.ChannelID
	}
	if channelID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), boardTimeout)
	defer cancel()

	if err := c.board.Announce(ctx, channelID, content); err != nil {
		zlog.Warn().Err(err).Str("guild_id", g.id).Msg("failed to post announcement")
	}
}
