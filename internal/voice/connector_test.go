package voice

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newState(t *testing.T, voiceStates ...*discordgo.VoiceState) (*discordgo.State, *discordgo.Guild) {
	t.Helper()
	state := discordgo.NewState()
	state.User = &discordgo.User{ID: "bot"}

	g := &discordgo.Guild{ID: "g1", VoiceStates: voiceStates}
	require.NoError(t, state.GuildAdd(g))
	got, err := state.Guild("g1")
	require.NoError(t, err)
	return state, got
}

func member(id string, bot bool) *discordgo.Member {
	return &discordgo.Member{User: &discordgo.User{ID: id, Bot: bot}}
}

func TestCountListenersSkipsBots(t *testing.T) {
	state, g := newState(t,
		&discordgo.VoiceState{UserID: "bot", ChannelID: "vc", Member: member("bot", true)},
		&discordgo.VoiceState{UserID: "u1", ChannelID: "vc", Member: member("u1", false)},
		&discordgo.VoiceState{UserID: "u2", ChannelID: "vc", Member: member("u2", false)},
		&discordgo.VoiceState{UserID: "other-bot", ChannelID: "vc", Member: member("other-bot", true)},
		&discordgo.VoiceState{UserID: "u3", ChannelID: "elsewhere", Member: member("u3", false)},
	)

	assert.Equal(t, 2, countListeners(state, g, "vc"))
	assert.Equal(t, 1, countListeners(state, g, "elsewhere"))
	assert.Equal(t, 0, countListeners(state, g, "empty"))
}

func TestCountListenersWithoutMemberData(t *testing.T) {
	state, g := newState(t, &discordgo.VoiceState{UserID: "u1", ChannelID: "vc"})
	assert.Equal(t, 1, countListeners(state, g, "vc"), "unknown members count as listeners")
}
