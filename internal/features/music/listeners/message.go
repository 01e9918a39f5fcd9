package listeners

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"

	musiccmd "github.com/hxnx/jukebot/internal/features/music/commands"
	"github.com/hxnx/jukebot/internal/features/music/requests"
	"github.com/hxnx/jukebot/internal/features/shared"
	"github.com/hxnx/jukebot/internal/voice"
)

const messagePlayTimeout = 90 * time.Second

var accentColor = 0xC9A0FF

// HandleMusicMessage runs text commands such as "!p never gonna give you up".
// Only the hello, help and play commands exist in text form.
func (l *Listener) HandleMusicMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if s == nil || m == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID == "" {
		return
	}

	name, args, ok := parsePrefixCommand(m.Content, l.cfg.Bot.Prefix)
	if !ok {
		return
	}
	command, ok := l.cfg.Lookup(name)
	if !ok {
		return
	}

	switch command {
	case "hello":
		l.send(s, m.ChannelID, "Hello!")
	case "help":
		l.send(s, m.ChannelID, "Available commands: "+strings.Join(l.primaryAliases(), ", "))
	case "play":
		l.playFromMessage(s, m, args)
	}
}

func (l *Listener) playFromMessage(s *discordgo.Session, m *discordgo.MessageCreate, query string) {
	voiceChannelID, err := voice.UserVoiceChannel(s, m.GuildID, m.Author.ID)
	if err != nil {
		zlog.Debug().Err(err).Str("guild_id", m.GuildID).Str("user_id", m.Author.ID).Msg("requester voice channel not found")
	}

	var loading *discordgo.Message
	if strings.TrimSpace(query) != "" {
		loading, _ = s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
			Components: statusComponents("Searching", "Looking for your track, one moment."),
			Flags:      discordgo.MessageFlagsIsComponentsV2,
			Reference:  &discordgo.MessageReference{MessageID: m.ID, ChannelID: m.ChannelID, GuildID: m.GuildID},
			AllowedMentions: &discordgo.MessageAllowedMentions{
				Parse:       []discordgo.AllowedMentionType{},
				RepliedUser: false,
			},
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), messagePlayTimeout)
	defer cancel()

	out, err := l.requests.Play(ctx, requests.Request{
		GuildID:        m.GuildID,
		UserID:         m.Author.ID,
		TextChannelID:  m.ChannelID,
		VoiceChannelID: voiceChannelID,
		Query:          query,
	})

	title, text := "Queued", out.Message()
	if err != nil {
		title, text = "Failed", shared.UserMessage(err, musiccmd.MsgUnknownFailed)
	}

	if loading == nil {
		l.send(s, m.ChannelID, text)
		return
	}
	components := statusComponents(title, text)
	if _, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         loading.ID,
		Channel:    m.ChannelID,
		Components: &components,
		Flags:      discordgo.MessageFlagsIsComponentsV2,
	}); err != nil {
		zlog.Warn().Err(err).Str("guild_id", m.GuildID).Msg("failed to update search message")
	}
}

func (l *Listener) send(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		zlog.Warn().Err(err).Str("channel_id", channelID).Msg("failed to send message")
	}
}

// primaryAliases returns the first alias of each command with the prefix.
func (l *Listener) primaryAliases() []string {
	names := make([]string, 0, len(l.cfg.Commands))
	for name := range l.cfg.Commands {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		aliases := l.cfg.Commands[name]
		if len(aliases) == 0 {
			continue
		}
		out = append(out, l.cfg.Bot.Prefix+aliases[0])
	}
	return out
}

// parsePrefixCommand splits "<prefix><name> <args>" into a lowercased name
// and the remaining text.
func parsePrefixCommand(content, prefix string) (name, args string, ok bool) {
	content = strings.TrimSpace(content)
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", "", false
	}

	rest := strings.TrimSpace(content[len(prefix):])
	if rest == "" {
		return "", "", false
	}

	name = strings.Fields(rest)[0]
	args = strings.TrimSpace(rest[len(name):])
	return strings.ToLower(name), args, true
}

func statusComponents(title, content string) []discordgo.MessageComponent {
	divider := true
	spacing := discordgo.SeparatorSpacingSizeSmall

	return []discordgo.MessageComponent{
		discordgo.Container{
			AccentColor: &accentColor,
			Components: []discordgo.MessageComponent{
				discordgo.TextDisplay{Content: title},
				discordgo.Separator{Divider: &divider, Spacing: &spacing},
				discordgo.TextDisplay{Content: content},
			},
		},
	}
}
