package bot

import (
	"fmt"
	"time"

	zlog "github.com/rs/zerolog/log"
)

const presenceUpdateInterval = 60 * time.Second

func (b *Bot) startPresenceUpdater() {
	if b.presenceStop != nil {
		return
	}
	b.presenceStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(presenceUpdateInterval)
		defer ticker.Stop()

		b.updatePresence()
		for {
			select {
			case <-b.presenceStop:
				return
			case <-ticker.C:
				b.updatePresence()
			}
		}
	}()
}

func (b *Bot) stopPresenceUpdater() {
	if b.presenceStop == nil {
		return
	}
	close(b.presenceStop)
	b.presenceStop = nil
}

func (b *Bot) updatePresence() {
	playing := 0
	if b.controller != nil {
		playing = b.controller.ActiveGuilds()
	}

	for _, s := range b.sessions {
		guildCount := 0
		if s.State != nil {
			guildCount = len(s.State.Guilds)
		}

		if err := s.UpdateGameStatus(0, presenceText(s.ShardID, guildCount, playing)); err != nil {
			zlog.Debug().Err(err).Int("shard", s.ShardID).Msg("failed to update presence")
		}
	}
}

func presenceText(shardID, guilds, playing int) string {
	shardNumber := max(1, shardID+1)
	if playing > 0 {
		return fmt.Sprintf("shard #%d · %d servers · playing in %d", shardNumber, guilds, playing)
	}
	return fmt.Sprintf("shard #%d · %d servers · /play", shardNumber, guilds)
}
