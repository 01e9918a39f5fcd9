// Package voice connects the playback controller to Discord voice channels.
package voice

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"

	"github.com/hxnx/jukebot/internal/playback"
)

var ErrNoVoiceChannel = errors.New("user is not in a voice channel")

// SessionResolver returns the gateway session that owns a guild.
type SessionResolver func(guildID string) *discordgo.Session

type Connector struct {
	sessionFor SessionResolver
	ffmpegPath string
}

func NewConnector(sessionFor SessionResolver, ffmpegPath string) *Connector {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Connector{sessionFor: sessionFor, ffmpegPath: ffmpegPath}
}

var _ playback.Voice = (*Connector)(nil)

func (c *Connector) Connect(ctx context.Context, guildID, channelID string) (playback.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := c.sessionFor(guildID)
	if s == nil {
		return nil, errors.Newf("no gateway session for guild %s", guildID)
	}
	if channelID == "" {
		return nil, ErrNoVoiceChannel
	}

	vc, err := s.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		return nil, errors.Wrapf(err, "join channel %s", channelID)
	}
	return newSession(guildID, channelID, c.ffmpegPath, vc), nil
}

func (c *Connector) CountListeners(guildID, channelID string) (int, error) {
	s := c.sessionFor(guildID)
	if s == nil || s.State == nil {
		return 0, errors.Newf("no gateway state for guild %s", guildID)
	}
	g, err := s.State.Guild(guildID)
	if err != nil {
		return 0, errors.Wrap(err, "guild state")
	}
	return countListeners(s.State, g, channelID), nil
}

// UserVoiceChannel returns the channel the user is connected to in guildID.
func UserVoiceChannel(s *discordgo.Session, guildID, userID string) (string, error) {
	if s == nil {
		return "", errors.New("discord session is nil")
	}

	var guild *discordgo.Guild
	if s.State != nil {
		if g, err := s.State.Guild(guildID); err == nil {
			guild = g
		}
	}
	if guild == nil {
		g, err := s.Guild(guildID)
		if err != nil {
			return "", errors.Wrap(err, "fetch guild")
		}
		guild = g
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return vs.ChannelID, nil
		}
	}
	return "", ErrNoVoiceChannel
}

// BotChannel returns the voice channel the bot itself sits in, if any.
func BotChannel(s *discordgo.Session, guildID string) string {
	if s == nil || s.State == nil || s.State.User == nil {
		return ""
	}
	g, err := s.State.Guild(guildID)
	if err != nil {
		return ""
	}
	for _, vs := range g.VoiceStates {
		if vs.UserID == s.State.User.ID {
			return vs.ChannelID
		}
	}
	return ""
}

// ChannelListeners counts the non-bot members in a voice channel using the
// gateway state cache.
func ChannelListeners(s *discordgo.Session, guildID, channelID string) int {
	if s == nil || s.State == nil {
		return 0
	}
	g, err := s.State.Guild(guildID)
	if err != nil {
		return 0
	}
	return countListeners(s.State, g, channelID)
}

func countListeners(state *discordgo.State, g *discordgo.Guild, channelID string) int {
	self := ""
	if state.User != nil {
		self = state.User.ID
	}

	n := 0
	for _, vs := range g.VoiceStates {
		if vs.ChannelID != channelID || vs.UserID == self {
			continue
		}
		if isBot(state, g.ID, vs) {
			continue
		}
		n++
	}
	return n
}

func isBot(state *discordgo.State, guildID string, vs *discordgo.VoiceState) bool {
	if vs.Member != nil && vs.Member.User != nil {
		return vs.Member.User.Bot
	}
	if m, err := state.Member(guildID, vs.UserID); err == nil && m.User != nil {
		return m.User.Bot
	}
	return false
}
