package commands

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hxnx/jukebot/internal/features/music/requests"
	"github.com/hxnx/jukebot/internal/playback"
)

const (
	controlTimeout = 10 * time.Second
	playTimeout    = 90 * time.Second
)

// Player is the part of the playback controller the commands drive.
type Player interface {
	RegisterSkipVote(ctx context.Context, guildID, userID string) (playback.VoteResult, error)
	Skip(ctx context.Context, guildID string) error
	Pause(ctx context.Context, guildID string) error
	Resume(ctx context.Context, guildID string) error
	TogglePause(ctx context.Context, guildID string) (bool, error)
	Stop(ctx context.Context, guildID string) error
	ToggleRepeat(ctx context.Context, guildID string) (bool, error)
	Snapshot(ctx context.Context, guildID string) (playback.Snapshot, error)
}

// Handler answers the music slash commands.
type Handler struct {
	player   Player
	requests *requests.Service
	help     string
}

func NewHandler(player Player, svc *requests.Service, help string) *Handler {
	return &Handler{player: player, requests: svc, help: help}
}

func guildOnly(i *discordgo.InteractionCreate) bool {
	return i != nil && i.GuildID != ""
}
