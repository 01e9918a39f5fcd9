package playback

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// lookup returns the guild entry, creating it and its goroutine on first use.
func (c *Controller) lookup(guildID string) *guild {
	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.guilds[guildID]; ok {
		return g
	}

	g := &guild{id: guildID, box: newMailbox()}
	g.st.phase = PhaseIdle
	g.st.votes = make(map[string]struct{})
	g.st.required = c.cfg.SkipRequired
	if c.settings != nil {
		g.box.post(func() { c.loadSettings(g) })
	}
	c.guilds[guildID] = g

	go c.run(g)
	return g
}

// submit posts op to the guild mailbox. A guild evicted between lookup and
// post is recreated.
func (c *Controller) submit(guildID string, op func(g *guild)) {
	for {
		g := c.lookup(guildID)
		if g.box.post(func() { op(g) }) {
			return
		}
	}
}

// call runs op on the guild goroutine and waits for its result.
func (c *Controller) call(ctx context.Context, guildID string, op func(g *guild) error) error {
	if guildID == "" {
		return errors.New("guild id is required")
	}

	done := make(chan error, 1)
	c.submit(guildID, func(g *guild) { done <- op(g) })

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) run(g *guild) {
	for {
		for {
			op, ok := g.box.next()
			if !ok {
				break
			}
			c.exec(g, op)
		}

		g.active.Store(g.st.current != nil)
		if g.evictable(c.settings != nil) && c.evict(g) {
			return
		}
		<-g.box.wake
	}
}

func (c *Controller) exec(g *guild, op func()) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Str("guild_id", g.id).Interface("panic", r).Msg("playback operation panicked")
		}
	}()
	op()
}

func (c *Controller) evict(g *guild) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !g.box.closeIfEmpty() {
		return false
	}
	if c.guilds[g.id] == g {
		delete(c.guilds, g.id)
	}
	zlog.Debug().Str("guild_id", g.id).Msg("guild state evicted")
	return true
}
