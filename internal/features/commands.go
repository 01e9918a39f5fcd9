package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	musiccmd "github.com/hxnx/jukebot/internal/features/music/commands"
	musiclisteners "github.com/hxnx/jukebot/internal/features/music/listeners"
	"github.com/hxnx/jukebot/internal/features/music/queueview"
	"github.com/hxnx/jukebot/internal/features/shared"
)

var CommandList = []*discordgo.ApplicationCommand{
	{
		Name:        "play",
		Description: "Search for a track or paste a link and queue it",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "query",
				Description: "Search term, YouTube/SoundCloud/Spotify link",
				Required:    true,
			},
		},
	},
	{
		Name:        "playlist",
		Description: "Queue every track of a playlist or album",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "url",
				Description: "Playlist or album link",
				Required:    true,
			},
		},
	},
	{
		Name:        "pause",
		Description: "Pause playback",
	},
	{
		Name:        "resume",
		Description: "Resume playback",
	},
	{
		Name:        "skip",
		Description: "Skip the current track",
	},
	{
		Name:        "queue",
		Description: "Show the queue",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "limit",
				Description: "Tracks per page",
				Required:    false,
				MaxValue:    queueview.MaxPerPage,
			},
		},
	},
	{
		Name:        "stop",
		Description: "Stop playback, clear the queue and leave the voice channel",
	},
	{
		Name:        "repeat",
		Description: "Toggle repeat for the current track",
	},
	{
		Name:        "help",
		Description: "List the available commands",
	},
	{
		Name:        "hello",
		Description: "Say hello",
	},
}

// Router dispatches gateway events to the music features.
type Router struct {
	handlers  map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)
	listeners *musiclisteners.Listener
}

func NewRouter(h *musiccmd.Handler, l *musiclisteners.Listener) *Router {
	return &Router{
		handlers: map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
			"play":     h.Play,
			"playlist": h.Playlist,
			"pause":    h.Pause,
			"resume":   h.Resume,
			"skip":     h.Skip,
			"queue":    h.Queue,
			"stop":     h.Stop,
			"repeat":   h.Repeat,
			"help":     h.Help,
			"hello":    h.Hello,
		},
		listeners: l,
	}
}

func RegisterCommands(s *discordgo.Session, appID string, guildID string) ([]*discordgo.ApplicationCommand, error) {
	scope := "global"
	if guildID != "" {
		scope = fmt.Sprintf("guild:%s", guildID)
	}

	zlog.Info().Int("count", len(CommandList)).Str("scope", scope).Msg("registering commands")

	cmds, err := s.ApplicationCommandBulkOverwrite(appID, guildID, CommandList)
	if err != nil {
		return nil, errors.Wrap(err, "cannot bulk overwrite commands")
	}
	return cmds, nil
}

// ClearCommands removes every command registered under guildID, or the global
// ones when guildID is empty.
func ClearCommands(s *discordgo.Session, appID string, guildID string) (int, error) {
	existing, err := s.ApplicationCommands(appID, guildID)
	if err != nil {
		return 0, errors.Wrap(err, "cannot list commands")
	}
	if len(existing) == 0 {
		return 0, nil
	}

	if _, err := s.ApplicationCommandBulkOverwrite(appID, guildID, []*discordgo.ApplicationCommand{}); err != nil {
		return 0, errors.Wrap(err, "cannot clear commands")
	}
	return len(existing), nil
}

func (r *Router) AddHandlers(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		r.listeners.HandleMusicMessage(s, m)
	})

	s.AddHandler(func(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
		r.listeners.HandleVoiceStateUpdate(s, vs)
	})

	s.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			data := i.ApplicationCommandData()
			if handler, ok := r.handlers[data.Name]; ok {
				handler(s, i)
				return
			}
			shared.RespondEphemeral(s, i, "Unknown command.")
		case discordgo.InteractionMessageComponent:
			if r.listeners.RouteMusicComponent(s, i) {
				return
			}
			shared.AcknowledgeComponent(s, i)
		default:
			return
		}
	})
}
