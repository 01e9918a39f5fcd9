package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/hxnx/jukebot/internal/features/shared"
)

func (h *Handler) Pause(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.control(s, i, func(ctx context.Context) string {
		return PauseMessage(h.player.Pause(ctx, i.GuildID))
	})
}

func (h *Handler) Resume(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.control(s, i, func(ctx context.Context) string {
		return ResumeMessage(h.player.Resume(ctx, i.GuildID))
	})
}

// Skip ends the current track at once. The status message button is the
// vote based skip.
func (h *Handler) Skip(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.control(s, i, func(ctx context.Context) string {
		return SkipNowMessage(h.player.Skip(ctx, i.GuildID))
	})
}

func (h *Handler) Stop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.control(s, i, func(ctx context.Context) string {
		return StopMessage(h.player.Stop(ctx, i.GuildID))
	})
}

func (h *Handler) Repeat(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.control(s, i, func(ctx context.Context) string {
		return RepeatMessage(h.player.ToggleRepeat(ctx, i.GuildID))
	})
}

func (h *Handler) Help(s *discordgo.Session, i *discordgo.InteractionCreate) {
	shared.RespondEphemeral(s, i, h.help)
}

func (h *Handler) Hello(s *discordgo.Session, i *discordgo.InteractionCreate) {
	shared.RespondEphemeral(s, i, MsgHello)
}

func (h *Handler) control(s *discordgo.Session, i *discordgo.InteractionCreate, run func(ctx context.Context) string) {
	if !guildOnly(i) {
		shared.RespondEphemeral(s, i, MsgGuildOnly)
		return
	}

	// status edits can wait on the rate limiter, so answer within the
	// interaction window first
	if !shared.DeferEphemeral(s, i) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	shared.FollowupEphemeral(s, i, run(ctx))
}
