package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"

	"github.com/hxnx/jukebot/internal/features/music/queueview"
	"github.com/hxnx/jukebot/internal/features/shared"
)

// Queue shows the first page of the queue, limit tracks per page.
func (h *Handler) Queue(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !guildOnly(i) {
		shared.RespondEphemeral(s, i, MsgGuildOnly)
		return
	}

	perPage := int(shared.GetOptionInt64(i.ApplicationCommandData().Options, "limit"))
	h.RespondQueue(s, i, 1, perPage)
}

// RespondQueue answers i with one page of the guild's queue. It serves the
// slash command and the queue button alike.
func (h *Handler) RespondQueue(s *discordgo.Session, i *discordgo.InteractionCreate, page, perPage int) {
	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	snap, err := h.player.Snapshot(ctx, i.GuildID)
	if err != nil {
		zlog.Warn().Err(err).Str("guild_id", i.GuildID).Msg("queue snapshot failed")
		shared.RespondEphemeral(s, i, MsgUnknownFailed)
		return
	}
	if snap.Current == nil && len(snap.Queue) == 0 {
		shared.RespondEphemeral(s, i, "The queue is empty.")
		return
	}

	components, _ := queueview.BuildQueueComponents(snap.Current, snap.Queue, page, perPage)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Components: components,
			Flags:      discordgo.MessageFlagsIsComponentsV2 | discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		zlog.Warn().Err(err).Str("guild_id", i.GuildID).Msg("queue respond failed")
	}
}

// TurnQueuePage replaces an open queue view with another page.
func (h *Handler) TurnQueuePage(s *discordgo.Session, i *discordgo.InteractionCreate, page, perPage int) {
	ctx, cancel := context.WithTimeout(context.Background(), controlTimeout)
	defer cancel()

	snap, err := h.player.Snapshot(ctx, i.GuildID)
	if err != nil {
		zlog.Warn().Err(err).Str("guild_id", i.GuildID).Msg("queue snapshot failed")
		shared.AcknowledgeComponent(s, i)
		return
	}

	components, _ := queueview.BuildQueueComponents(snap.Current, snap.Queue, page, perPage)
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Components: components,
			Flags:      discordgo.MessageFlagsIsComponentsV2,
		},
	}); err != nil {
		zlog.Warn().Err(err).Str("guild_id", i.GuildID).Msg("queue page update failed")
	}
}
