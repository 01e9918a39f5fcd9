package listeners

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/hxnx/jukebot/internal/features/music/queueview"
	"github.com/hxnx/jukebot/internal/features/nowplaying"
)

// RouteMusicComponent reports whether the component belonged to music.
func (l *Listener) RouteMusicComponent(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	if i.Type != discordgo.InteractionMessageComponent {
		return false
	}

	customID := i.MessageComponentData().CustomID
	switch {
	case strings.HasPrefix(customID, nowplaying.ButtonPrefix):
		l.HandlePlayerButton(s, i, customID)
	case strings.HasPrefix(customID, queueview.CustomIDPrefix):
		page, perPage, ok := queueview.ParseQueuePageCustomID(customID)
		if !ok {
			return false
		}
		l.handler.TurnQueuePage(s, i, page, perPage)
	default:
		return false
	}
	return true
}
