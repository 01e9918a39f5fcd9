package nowplaying

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/hxnx/jukebot/internal/database"
	"github.com/hxnx/jukebot/internal/features/shared"
	"github.com/hxnx/jukebot/internal/playback"
)

const (
	editInterval = time.Second
	editBurst    = 3
	editTimeout  = 5 * time.Second
)

type messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Store remembers where status messages live.
type Store interface {
	Upsert(ctx context.Context, guildID, channelID, messageID string) error
	Delete(ctx context.Context, guildID string) error
	List(ctx context.Context) ([]database.StatusEntry, error)
}

// Board is the discord side of playback.StatusBoard.
type Board struct {
	api      messenger
	store    Store
	limiter  *shared.GuildLimiter
	interval time.Duration

	mu      sync.Mutex
	pending map[string]*pendingEdit
}

// pendingEdit is the newest throttled view of a guild, flushed once the
// limiter has room again.
type pendingEdit struct {
	msg   playback.StatusMessage
	view  playback.NowPlaying
	timer *time.Timer
}

var _ playback.StatusBoard = (*Board)(nil)

func NewBoard(api messenger, store Store) *Board {
	return newBoard(api, store, editInterval)
}

func newBoard(api messenger, store Store, interval time.Duration) *Board {
	return &Board{
		api:      api,
		store:    store,
		limiter:  shared.NewGuildLimiter(interval, editBurst),
		interval: interval,
		pending:  make(map[string]*pendingEdit),
	}
}

func (b *Board) Send(ctx context.Context, channelID string, view playback.NowPlaying) (playback.StatusMessage, error) {
	embed, components := Render(view)
	msg, err := b.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return playback.StatusMessage{}, errors.Wrapf(err, "send status to %s", channelID)
	}

	status := playback.StatusMessage{GuildID: view.GuildID, ChannelID: channelID, MessageID: msg.ID}
	if b.store != nil {
		if err := b.store.Upsert(ctx, status.GuildID, status.ChannelID, status.MessageID); err != nil {
			zlog.Warn().Err(err).Str("guild_id", status.GuildID).Msg("failed to record status message")
		}
	}
	return status, nil
}

// Edit is throttled per guild and never waits for the limiter. Throttled
// edits collapse into one trailing edit that carries the newest view.
func (b *Board) Edit(ctx context.Context, msg playback.StatusMessage, view playback.NowPlaying) error {
	if !b.limiter.Allow(msg.GuildID) {
		b.postpone(msg, view)
		return nil
	}
	b.dropPending(msg.GuildID)
	return b.edit(ctx, msg, view)
}

func (b *Board) postpone(msg playback.StatusMessage, view playback.NowPlaying) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pending[msg.GuildID]; ok {
		p.msg, p.view = msg, view
		return
	}
	p := &pendingEdit{msg: msg, view: view}
	p.timer = time.AfterFunc(b.interval, func() { b.flush(msg.GuildID, p) })
	b.pending[msg.GuildID] = p
}

func (b *Board) flush(guildID string, p *pendingEdit) {
	b.mu.Lock()
	if b.pending[guildID] != p {
		b.mu.Unlock()
		return
	}
	if !b.limiter.Allow(guildID) {
		p.timer.Reset(b.interval)
		b.mu.Unlock()
		return
	}
	delete(b.pending, guildID)
	msg, view := p.msg, p.view
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), editTimeout)
	defer cancel()

	if err := b.edit(ctx, msg, view); err != nil {
		zlog.Debug().Err(err).Str("guild_id", guildID).Msg("trailing status edit failed")
	}
}

func (b *Board) dropPending(guildID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p, ok := b.pending[guildID]; ok {
		p.timer.Stop()
		delete(b.pending, guildID)
	}
}

func (b *Board) edit(ctx context.Context, msg playback.StatusMessage, view playback.NowPlaying) error {
	embed, components := Render(view)
	embeds := []*discordgo.MessageEmbed{embed}
	_, err := b.api.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         msg.MessageID,
		Channel:    msg.ChannelID,
		Embeds:     &embeds,
		Components: &components,
	}, discordgo.WithContext(ctx))
	return classify(err)
}

func (b *Board) Delete(ctx context.Context, msg playback.StatusMessage) error {
	b.dropPending(msg.GuildID)
	err := classify(b.api.ChannelMessageDelete(msg.ChannelID, msg.MessageID, discordgo.WithContext(ctx)))
	if err != nil && !errors.Is(err, playback.ErrStatusNotFound) {
		return errors.Wrapf(err, "delete status %s", msg.MessageID)
	}

	b.limiter.Forget(msg.GuildID)
	if b.store != nil {
		if serr := b.store.Delete(ctx, msg.GuildID); serr != nil {
			zlog.Warn().Err(serr).Str("guild_id", msg.GuildID).Msg("failed to forget status message")
		}
	}
	return err
}

func (b *Board) Announce(ctx context.Context, channelID, content string) error {
	_, err := b.api.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return errors.Wrapf(err, "announce to %s", channelID)
}

// CleanupStale deletes status messages recorded by a previous run. It returns
// how many records were cleared.
func (b *Board) CleanupStale(ctx context.Context) int {
	if b.store == nil {
		return 0
	}
	entries, err := b.store.List(ctx)
	if err != nil {
		zlog.Warn().Err(err).Msg("failed to list stale status messages")
		return 0
	}

	cleared := 0
	for _, e := range entries {
		msg := playback.StatusMessage{GuildID: e.GuildID, ChannelID: e.ChannelID, MessageID: e.MessageID}
		if err := b.Delete(ctx, msg); err != nil && !errors.Is(err, playback.ErrStatusNotFound) {
			zlog.Debug().Err(err).Str("guild_id", e.GuildID).Msg("stale status message not removed")
			continue
		}
		cleared++
	}
	return cleared
}

// classify maps "message or channel is gone" responses to ErrStatusNotFound.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		if restErr.Message != nil {
			switch restErr.Message.Code {
			case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
				return errors.Mark(err, playback.ErrStatusNotFound)
			}
		}
		if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return errors.Mark(err, playback.ErrStatusNotFound)
		}
	}
	return err
}
