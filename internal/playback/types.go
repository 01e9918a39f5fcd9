// Package playback owns the per-guild playback state machine: the queue, the
// active track, skip votes, repeat, the idle and pause timers and the single
// status message. Every transition for a guild runs on that guild's mailbox
// goroutine.
package playback

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/hxnx/jukebot/internal/music"
)

var (
	ErrNotPlaying       = errors.New("nothing is playing")
	ErrNotPaused        = errors.New("playback is not paused")
	ErrNoSession        = errors.New("not connected to a voice channel")
	ErrNothingToEnqueue = errors.New("no tracks to enqueue")
	ErrStatusNotFound   = errors.New("status message not found")
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhasePlaying
	PhasePaused
	PhaseDisconnected
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhasePlaying:
		return "playing"
	case PhasePaused:
		return "paused"
	case PhaseDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Voice opens voice sessions and inspects voice channel membership.
type Voice interface {
	Connect(ctx context.Context, guildID, channelID string) (Session, error)
	// CountListeners returns the number of non-bot members in the channel.
	CountListeners(guildID, channelID string) (int, error)
}

// Session is one live voice connection. onComplete passed to Play is called
// exactly once, from any goroutine, when the stream ends for any reason.
type Session interface {
	ChannelID() string
	Play(url string, onComplete func(error)) error
	Pause() error
	Resume() error
	Stop() error
	Disconnect() error
	IsPlaying() bool
	IsPaused() bool
}

type StatusMessage struct {
	GuildID   string
	ChannelID string
	MessageID string
}

// NowPlaying is everything the status message renders.
type NowPlaying struct {
	GuildID      string
	Track        *music.Track // nil once the queue ran dry
	Paused       bool
	Repeat       bool
	SkipVotes    int
	SkipRequired int
	QueueLength  int
}

type StatusBoard interface {
	Send(ctx context.Context, channelID string, view NowPlaying) (StatusMessage, error)
	// Edit returns an error matching ErrStatusNotFound when the message is gone.
	Edit(ctx context.Context, msg StatusMessage, view NowPlaying) error
	Delete(ctx context.Context, msg StatusMessage) error
	Announce(ctx context.Context, channelID, content string) error
}

// SettingsStore persists per-guild preferences across evictions and restarts.
type SettingsStore interface {
	Repeat(ctx context.Context, guildID string) (bool, error)
	SetRepeat(ctx context.Context, guildID string, on bool) error
}

type Config struct {
	// negative disables the timer
	IdleTimeout      time.Duration
	PauseIdleTimeout time.Duration
	SkipRequired     int
	SkipUseMajority  bool
}

type EnqueueRequest struct {
	GuildID        string
	VoiceChannelID string
	TextChannelID  string
	Tracks         []music.Track
}

type EnqueueResult struct {
	// Position is the 1-based queue position of the first track, 0 when it
	// started playing right away.
	Position    int
	Started     bool
	QueueLength int
}

type VoteResult struct {
	Votes     int
	Required  int
	Duplicate bool
	Skipped   bool
}

type Snapshot struct {
	GuildID      string
	Phase        Phase
	Connected    bool
	Current      *music.Track
	Queue        []music.Track
	SkipVotes    int
	SkipRequired int
	Repeat       bool
	Status       *StatusMessage
	IdlePending  bool
	PausePending bool
}
