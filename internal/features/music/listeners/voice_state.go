package listeners

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/hxnx/jukebot/internal/playback"
	"github.com/hxnx/jukebot/internal/voice"
)

const msgLeftAlone = "Everyone left the voice channel, so playback stopped."

type voiceAction int

const (
	voiceKeep voiceAction = iota
	// nobody but bots is left in the bot's channel
	voiceStopEmpty
	// the bot was disconnected from outside, e.g. by a moderator
	voiceStopDropped
)

// voiceActionFor decides what a voice state update means for playback.
// botChannelID is where the bot sits after the update, empty when it is not
// in voice; listeners counts the non-bot members of that channel.
func voiceActionFor(botID, updateUserID, botChannelID string, listeners int) voiceAction {
	if botChannelID == "" {
		if updateUserID == botID {
			return voiceStopDropped
		}
		return voiceKeep
	}
	if listeners > 0 {
		return voiceKeep
	}
	return voiceStopEmpty
}

// HandleVoiceStateUpdate stops playback when the bot is left without
// listeners, or when it was removed from its channel by someone else.
func (l *Listener) HandleVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if s == nil || vs == nil || vs.GuildID == "" {
		return
	}
	if s.State == nil || s.State.User == nil {
		return
	}

	botChannelID := voice.BotChannel(s, vs.GuildID)
	listeners := 0
	if botChannelID != "" {
		listeners = voice.ChannelListeners(s, vs.GuildID, botChannelID)
	}

	action := voiceActionFor(s.State.User.ID, vs.UserID, botChannelID, listeners)
	if action == voiceKeep {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), buttonTimeout)
	defer cancel()

	if channelID := l.stopFor(ctx, vs.GuildID, action); channelID != "" {
		l.send(s, channelID, msgLeftAlone)
	}
}

// stopFor stops a connected guild. For an empty channel it returns the
// channel of the status message, where the reason gets posted.
func (l *Listener) stopFor(ctx context.Context, guildID string, action voiceAction) string {
	snap, err := l.player.Snapshot(ctx, guildID)
	if err != nil || !snap.Connected {
		return ""
	}

	err = l.player.Stop(ctx, guildID)
	if action == voiceStopDropped {
		if err != nil && !errors.Is(err, playback.ErrNoSession) {
			zlog.Warn().Err(err).Str("guild_id", guildID).Msg("failed to clean up after external disconnect")
			return ""
		}
		zlog.Info().Str("guild_id", guildID).Msg("voice connection dropped, playback stopped")
		return ""
	}
	if err != nil {
		return ""
	}

	zlog.Info().Str("guild_id", guildID).Msg("voice channel empty, stopped playback")
	if snap.Status == nil {
		return ""
	}
	return snap.Status.ChannelID
}
