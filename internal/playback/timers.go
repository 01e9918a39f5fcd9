package playback

import (
	"time"

	zlog "github.com/rs/zerolog/log"
)

// timer identifies one scheduled callback. Its pointer is compared against
// the one stored in guildState so superseded timers are ignored.
type timer struct {
	t *time.Timer
}

func (tm *timer) stop() {
	if tm != nil && tm.t != nil {
		tm.t.Stop()
	}
}

func (c *Controller) schedule(g *guild, d time.Duration, fire func(g *guild, tm *timer)) *timer {
	tm := &timer{}
	guildID := g.id
	tm.t = time.AfterFunc(d, func() {
		c.submit(guildID, func(g *guild) { fire(g, tm) })
	})
	return tm
}

func (c *Controller) armIdle(g *guild) {
	c.cancelIdle(g)
	if c.cfg.IdleTimeout < 0 {
		return
	}
	g.st.idle = c.schedule(g, c.cfg.IdleTimeout, c.onIdleTimeout)
}

func (c *Controller) cancelIdle(g *guild) {
	g.st.idle.stop()
	g.st.idle = nil
}

func (c *Controller) armPause(g *guild) {
	c.cancelPause(g)
	if c.cfg.PauseIdleTimeout < 0 {
		return
	}
	g.st.pause = c.schedule(g, c.cfg.PauseIdleTimeout, c.onPauseTimeout)
}

func (c *Controller) cancelPause(g *guild) {
	g.st.pause.stop()
	g.st.pause = nil
}

func (c *Controller) onIdleTimeout(g *guild, tm *timer) {
	st := &g.st
	if st.idle != tm {
		return
	}
	st.idle = nil

	if st.current != nil || len(st.queue) > 0 {
		return
	}
	if st.session != nil && st.session.IsPlaying() {
		return
	}

	zlog.Info().Str("guild_id", g.id).Msg("idle timeout reached")
	c.teardown(g, "idle")
}

func (c *Controller) onPauseTimeout(g *guild, tm *timer) {
	st := &g.st
	if st.pause != tm {
		return
	}
	st.pause = nil

	if st.session == nil || st.phase != PhasePaused {
		return
	}
	if !st.session.IsPaused() || st.session.IsPlaying() {
		return
	}

	zlog.Info().Str("guild_id", g.id).Msg("pause timeout reached")
	c.teardown(g, "paused too long")
}
