package playback

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/hxnx/jukebot/internal/music"
)

const (
	boardTimeout    = 5 * time.Second
	settingsTimeout = 2 * time.Second
)

type guild struct {
	id     string
	box    *mailbox
	st     guildState
	active atomic.Bool
}

// guildState is only touched from the guild's mailbox goroutine.
type guildState struct {
	phase         Phase
	session       Session
	textChannelID string

	queue    []music.Track
	current  *music.Track
	playGen  uint64
	// set between a stop for a skip and the completion it triggers
	skipping bool

	votes    map[string]struct{}
	required int
	repeat   bool

	status *StatusMessage
	idle   *timer
	pause  *timer
}

func (g *guild) evictable(repeatPersisted bool) bool {
	st := &g.st
	return st.session == nil &&
		st.current == nil &&
		len(st.queue) == 0 &&
		st.idle == nil &&
		st.pause == nil &&
		st.status == nil &&
		(repeatPersisted || !st.repeat)
}

type Controller struct {
	cfg      Config
	voice    Voice
	board    StatusBoard
	settings SettingsStore

	mu     sync.Mutex
	guilds map[string]*guild
}

type Option func(*Controller)

func WithSettingsStore(store SettingsStore) Option {
	return func(c *Controller) { c.settings = store }
}

func NewController(cfg Config, voice Voice, board StatusBoard, opts ...Option) *Controller {
	if cfg.SkipRequired < 1 {
		cfg.SkipRequired = 1
	}
	c := &Controller{
		cfg:    cfg,
		voice:  voice,
		board:  board,
		guilds: make(map[string]*guild),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enqueue connects to the voice channel if needed, appends the tracks and
// starts playback when nothing is active.
func (c *Controller) Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueResult, error) {
	if len(req.Tracks) == 0 {
		return EnqueueResult{}, ErrNothingToEnqueue
	}
	tracks := append([]music.Track(nil), req.Tracks...)

	var res EnqueueResult
	err := c.call(ctx, req.GuildID, func(g *guild) error {
		if err := c.ensureSession(ctx, g, req.VoiceChannelID); err != nil {
			return err
		}
		if req.TextChannelID != "" {
			g.st.textChannelID = req.TextChannelID
		}

		g.st.queue = append(g.st.queue, tracks...)
		res.Position = len(g.st.queue) - len(tracks) + 1
		c.cancelIdle(g)

		if g.st.current == nil {
			c.advance(g)
			if g.st.current != nil {
				res.Started = true
				res.Position = 0
			}
		} else {
			c.refreshStatus(g)
		}

		res.QueueLength = len(g.st.queue)
		return nil
	})
	return res, err
}

// RegisterSkipVote records userID's vote against the active track and skips
// it once the threshold is met. Votes that arrive while the skip is still
// being carried out are counted but report the skip as already done.
func (c *Controller) RegisterSkipVote(ctx context.Context, guildID, userID string) (VoteResult, error) {
	var res VoteResult
	err := c.call(ctx, guildID, func(g *guild) error {
		st := &g.st
		if st.session == nil || st.current == nil {
			return ErrNotPlaying
		}

		st.required = c.requiredVotes(g)
		res.Required = st.required

		if _, ok := st.votes[userID]; ok {
			res.Votes = len(st.votes)
			res.Duplicate = true
			return nil
		}
		st.votes[userID] = struct{}{}
		res.Votes = len(st.votes)

		if st.skipping {
			res.Skipped = true
			return nil
		}

		c.refreshStatus(g)
		if res.Votes < res.Required {
			return nil
		}

		res.Skipped = true
		c.stopForSkip(g)
		c.announce(g, fmt.Sprintf("Skip passed (%d/%d), skipping.", res.Votes, res.Required))
		return nil
	})
	return res, err
}

// Skip ends the active track right away, without a vote. The next track
// starts from the completion callback, so repeat still applies.
func (c *Controller) Skip(ctx context.Context, guildID string) error {
	return c.call(ctx, guildID, func(g *guild) error {
		st := &g.st
		if st.session == nil {
			return ErrNoSession
		}
		if st.current == nil || st.phase != PhasePlaying {
			return ErrNotPlaying
		}
		if !st.skipping {
			c.stopForSkip(g)
		}
		return nil
	})
}

func (c *Controller) stopForSkip(g *guild) {
	g.st.skipping = true
	if err := g.st.session.Stop(); err != nil {
		// no completion is coming, so a later vote may try again
		g.st.skipping = false
		zlog.Warn().Err(err).Str("guild_id", g.id).Msg("failed to stop track for skip")
	}
}

func (c *Controller) Pause(ctx context.Context, guildID string) error {
	return c.call(ctx, guildID, c.pause)
}

func (c *Controller) Resume(ctx context.Context, guildID string) error {
	return c.call(ctx, guildID, c.resume)
}

// TogglePause resumes a paused guild and pauses a playing one. It reports
// whether the guild ends up paused.
func (c *Controller) TogglePause(ctx context.Context, guildID string) (bool, error) {
	var paused bool
	err := c.call(ctx, guildID, func(g *guild) error {
		if g.st.phase == PhasePaused {
			return c.resume(g)
		}
		if err := c.pause(g); err != nil {
			return err
		}
		paused = true
		return nil
	})
	return paused, err
}

// Stop clears everything for the guild and leaves the voice channel. The
// cleanup runs even without a session; ErrNoSession is still reported then.
func (c *Controller) Stop(ctx context.Context, guildID string) error {
	return c.call(ctx, guildID, func(g *guild) error {
		connected := g.st.session != nil
		c.teardown(g, "stopped")
		if !connected {
			return ErrNoSession
		}
		return nil
	})
}

func (c *Controller) ToggleRepeat(ctx context.Context, guildID string) (bool, error) {
	var on bool
	err := c.call(ctx, guildID, func(g *guild) error {
		g.st.repeat = !g.st.repeat
		on = g.st.repeat

		if c.settings != nil {
			sctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
			if err := c.settings.SetRepeat(sctx, g.id, on); err != nil {
				zlog.Warn().Err(err).Str("guild_id", g.id).Msg("failed to persist repeat")
			}
			cancel()
		}

		c.refreshStatus(g)
		return nil
	})
	return on, err
}

func (c *Controller) Snapshot(ctx context.Context, guildID string) (Snapshot, error) {
	var snap Snapshot
	err := c.call(ctx, guildID, func(g *guild) error {
		st := &g.st
		snap = Snapshot{
			GuildID:      g.id,
			Phase:        st.phase,
			Connected:    st.session != nil,
			Queue:        append([]music.Track(nil), st.queue...),
			SkipVotes:    len(st.votes),
			SkipRequired: st.required,
			Repeat:       st.repeat,
			IdlePending:  st.idle != nil,
			PausePending: st.pause != nil,
		}
		if st.current != nil {
			current := *st.current
			snap.Current = &current
		}
		if st.status != nil {
			status := *st.status
			snap.Status = &status
		}
		return nil
	})
	return snap, err
}

// ActiveGuilds counts guilds with a track loaded, paused ones included.
func (c *Controller) ActiveGuilds() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, g := range c.guilds {
		if g.active.Load() {
			n++
		}
	}
	return n
}

// Shutdown stops every known guild.
func (c *Controller) Shutdown(ctx context.Context) {
	c.mu.Lock()
	ids := make([]string, 0, len(c.guilds))
	for id := range c.guilds {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	for _, id := range ids {
		if err := c.Stop(ctx, id); err != nil && !errors.Is(err, ErrNoSession) {
			zlog.Warn().Err(err).Str("guild_id", id).Msg("failed to stop guild during shutdown")
		}
	}
}

func (c *Controller) ensureSession(ctx context.Context, g *guild, voiceChannelID string) error {
	if g.st.session != nil {
		return nil
	}
	if voiceChannelID == "" {
		return ErrNoSession
	}

	prev := g.st.phase
	g.st.phase = PhaseConnecting
	session, err := c.voice.Connect(ctx, g.id, voiceChannelID)
	if err != nil {
		g.st.phase = prev
		return errors.Wrap(err, "join voice channel")
	}

	zlog.Info().Str("guild_id", g.id).Str("channel_id", voiceChannelID).Msg("voice connected")
	g.st.session = session
	g.st.phase = PhaseIdle
	return nil
}

// advance pops tracks until one starts or the queue is empty.
func (c *Controller) advance(g *guild) {
	st := &g.st
	for {
		if st.session == nil {
			st.current = nil
			return
		}

		if len(st.queue) == 0 {
			st.current = nil
			st.phase = PhaseIdle
			c.armIdle(g)
			c.refreshStatus(g)
			return
		}

		next := st.queue[0]
		st.queue = st.queue[1:]
		if !next.Playable() {
			zlog.Warn().Str("guild_id", g.id).Str("title", next.DisplayTitle()).Msg("skipping track without a playable url")
			continue
		}

		c.cancelIdle(g)
		c.cancelPause(g)
		st.votes = make(map[string]struct{})
		st.skipping = false
		st.playGen++

		gen := st.playGen
		guildID := g.id
		err := st.session.Play(next.PlayableURL, func(err error) {
			c.submit(guildID, func(g *guild) { c.onTrackEnd(g, gen, err) })
		})
		if err != nil {
			zlog.Error().Err(err).Str("guild_id", g.id).Str("title", next.DisplayTitle()).Msg("failed to start playback")
			st.current = nil
			st.phase = PhaseIdle
			c.armIdle(g)
			c.refreshStatus(g)
			return
		}

		st.current = &next
		st.phase = PhasePlaying
		st.required = c.requiredVotes(g)
		zlog.Info().Str("guild_id", g.id).Str("title", next.DisplayTitle()).Msg("now playing")
		c.publishStatus(g, true)
		return
	}
}

func (c *Controller) onTrackEnd(g *guild, gen uint64, playErr error) {
	st := &g.st
	if st.current == nil || gen != st.playGen {
		return
	}

	finished := *st.current
	st.current = nil

	if playErr != nil {
		zlog.Warn().Err(playErr).Str("guild_id", g.id).Str("title", finished.DisplayTitle()).Msg("playback ended with error")
	}
	// skipped and failed tracks come back too; repeat off is the way out
	if st.repeat {
		st.queue = append([]music.Track{finished}, st.queue...)
	}

	st.skipping = false
	c.advance(g)
}

func (c *Controller) pause(g *guild) error {
	st := &g.st
	if st.session == nil || st.current == nil || st.phase != PhasePlaying {
		return ErrNotPlaying
	}
	if err := st.session.Pause(); err != nil {
		return errors.Wrap(err, "pause")
	}

	st.phase = PhasePaused
	c.armPause(g)
	c.refreshStatus(g)
	return nil
}

func (c *Controller) resume(g *guild) error {
	st := &g.st
	if st.session == nil || st.phase != PhasePaused {
		return ErrNotPaused
	}
	if err := st.session.Resume(); err != nil {
		return errors.Wrap(err, "resume")
	}

	c.cancelPause(g)
	st.phase = PhasePlaying
	c.refreshStatus(g)
	return nil
}

func (c *Controller) teardown(g *guild, reason string) {
	st := &g.st

	c.cancelIdle(g)
	c.cancelPause(g)
	st.queue = nil
	st.votes = make(map[string]struct{})
	st.skipping = false
	st.current = nil
	// completions of whatever was playing are stale from here on
	st.playGen++

	c.deleteStatus(g)

	if st.session != nil {
		if err := st.session.Stop(); err != nil {
			zlog.Debug().Err(err).Str("guild_id", g.id).Msg("stop during teardown")
		}
		if err := st.session.Disconnect(); err != nil {
			zlog.Warn().Err(err).Str("guild_id", g.id).Msg("failed to disconnect")
		}
		st.session = nil
		zlog.Info().Str("guild_id", g.id).Str("reason", reason).Msg("voice disconnected")
	}
	st.phase = PhaseDisconnected
}

func (c *Controller) requiredVotes(g *guild) int {
	required := c.cfg.SkipRequired
	if c.cfg.SkipUseMajority && g.st.session != nil {
		n, err := c.voice.CountListeners(g.id, g.st.session.ChannelID())
		if err != nil {
			zlog.Debug().Err(err).Str("guild_id", g.id).Msg("could not count listeners, using fixed threshold")
		} else {
			required = n/2 + 1
		}
	}
	if required < 1 {
		required = 1
	}
	return required
}

func (c *Controller) loadSettings(g *guild) {
	ctx, cancel := context.WithTimeout(context.Background(), settingsTimeout)
	defer cancel()

	on, err := c.settings.Repeat(ctx, g.id)
	if err != nil {
		zlog.Warn().Err(err).Str("guild_id", g.id).Msg("failed to load guild settings")
		return
	}
	g.st.repeat = on
}
