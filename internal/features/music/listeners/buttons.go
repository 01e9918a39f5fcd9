package listeners

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"

	musiccmd "github.com/hxnx/jukebot/internal/features/music/commands"
	"github.com/hxnx/jukebot/internal/features/music/queueview"
	"github.com/hxnx/jukebot/internal/features/nowplaying"
	"github.com/hxnx/jukebot/internal/features/shared"
)

const (
	buttonTimeout = 10 * time.Second
	msgSlowDown   = "Slow down a little, too many button presses."
)

// HandlePlayerButton answers one of the status message buttons.
func (l *Listener) HandlePlayerButton(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	if i.GuildID == "" {
		shared.RespondEphemeral(s, i, musiccmd.MsgGuildOnly)
		return
	}
	if !l.buttons.Allow(i.GuildID) {
		shared.RespondEphemeral(s, i, msgSlowDown)
		return
	}

	if customID == nowplaying.ButtonQueue {
		l.handler.RespondQueue(s, i, 1, queueview.DefaultPerPage)
		return
	}

	if !playerButtons[customID] {
		zlog.Debug().Str("custom_id", customID).Str("guild_id", i.GuildID).Msg("unknown player button")
		shared.AcknowledgeComponent(s, i)
		return
	}
	if !shared.DeferEphemeral(s, i) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), buttonTimeout)
	defer cancel()

	reply, _ := l.pressButton(ctx, customID, i.GuildID, shared.GetInteractionUserID(i))
	shared.FollowupEphemeral(s, i, reply)
}

var playerButtons = map[string]bool{
	nowplaying.ButtonPause:  true,
	nowplaying.ButtonSkip:   true,
	nowplaying.ButtonRepeat: true,
	nowplaying.ButtonStop:   true,
}

// pressButton runs the action behind a status message button and returns the
// reply for the presser.
func (l *Listener) pressButton(ctx context.Context, customID, guildID, userID string) (string, bool) {
	switch customID {
	case nowplaying.ButtonPause:
		return musiccmd.TogglePauseMessage(l.player.TogglePause(ctx, guildID)), true
	case nowplaying.ButtonSkip:
		return musiccmd.SkipMessage(l.player.RegisterSkipVote(ctx, guildID, userID)), true
	case nowplaying.ButtonRepeat:
		return musiccmd.RepeatMessage(l.player.ToggleRepeat(ctx, guildID)), true
	case nowplaying.ButtonStop:
		return musiccmd.StopMessage(l.player.Stop(ctx, guildID)), true
	default:
		return "", false
	}
}
