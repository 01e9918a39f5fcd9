package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"
	zlog "github.com/rs/zerolog/log"

	"github.com/hxnx/jukebot/internal/features/music/requests"
	"github.com/hxnx/jukebot/internal/features/shared"
	"github.com/hxnx/jukebot/internal/voice"
)

func (h *Handler) Play(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.enqueue(s, i, "query", false)
}

func (h *Handler) Playlist(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.enqueue(s, i, "url", true)
}

func (h *Handler) enqueue(s *discordgo.Session, i *discordgo.InteractionCreate, option string, playlist bool) {
	if !guildOnly(i) {
		shared.RespondEphemeral(s, i, MsgGuildOnly)
		return
	}

	userID := shared.GetInteractionUserID(i)
	query := shared.GetOptionString(i.ApplicationCommandData().Options, option)

	// resolution can take longer than the 3 second response window
	if !shared.DeferEphemeral(s, i) {
		return
	}

	voiceChannelID, err := voice.UserVoiceChannel(s, i.GuildID, userID)
	if err != nil {
		zlog.Debug().Err(err).Str("guild_id", i.GuildID).Str("user_id", userID).Msg("requester voice channel not found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), playTimeout)
	defer cancel()

	out, err := h.requests.Play(ctx, requests.Request{
		GuildID:        i.GuildID,
		UserID:         userID,
		TextChannelID:  i.ChannelID,
		VoiceChannelID: voiceChannelID,
		Query:          query,
		Playlist:       playlist,
	})
	if err != nil {
		shared.FollowupEphemeral(s, i, shared.UserMessage(err, MsgUnknownFailed))
		return
	}
	shared.FollowupEphemeral(s, i, out.Message())
}
