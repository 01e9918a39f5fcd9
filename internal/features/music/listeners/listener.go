package listeners

import (
	"time"

	"github.com/hxnx/jukebot/config"
	musiccmd "github.com/hxnx/jukebot/internal/features/music/commands"
	"github.com/hxnx/jukebot/internal/features/music/requests"
	"github.com/hxnx/jukebot/internal/features/shared"
)

const (
	buttonInterval = 500 * time.Millisecond
	buttonBurst    = 5
)

// Listener handles gateway events that are not slash commands: status
// message buttons, queue paging, text commands and voice state changes.
type Listener struct {
	cfg      *config.Config
	handler  *musiccmd.Handler
	player   musiccmd.Player
	requests *requests.Service
	buttons  *shared.GuildLimiter
}

func New(cfg *config.Config, handler *musiccmd.Handler, player musiccmd.Player, svc *requests.Service) *Listener {
	return &Listener{
		cfg:      cfg,
		handler:  handler,
		player:   player,
		requests: svc,
		buttons:  shared.NewGuildLimiter(buttonInterval, buttonBurst),
	}
}
