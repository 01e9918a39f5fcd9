package nowplaying

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxnx/jukebot/internal/music"
	"github.com/hxnx/jukebot/internal/playback"
)

func TestRenderPlaying(t *testing.T) {
	view := playback.NowPlaying{
		GuildID: "g",
		Track: &music.Track{
			Title:       "Song",
			SourceURL:   "https://youtu.be/x",
			Duration:    3*time.Minute + 5*time.Second,
			RequestedBy: "42",
		},
		SkipVotes:    1,
		SkipRequired: 2,
		QueueLength:  3,
	}

	embed, _ := Render(view)

	want := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Color:       colorPlaying,
		Description: "[Song](https://youtu.be/x)\nRequested by <@42>\nSkip votes: 1/2",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Queue", Value: "3 tracks", Inline: true},
			{Name: "Duration", Value: "3:05", Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "Repeat: OFF"},
	}
	if diff := cmp.Diff(want, embed); diff != "" {
		t.Errorf("embed mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderPausedWithRepeat(t *testing.T) {
	view := playback.NowPlaying{
		Track:        &music.Track{Title: "Song"},
		Paused:       true,
		Repeat:       true,
		SkipRequired: 1,
		QueueLength:  1,
	}

	embed, components := Render(view)

	assert.Equal(t, "Paused", embed.Title)
	assert.Equal(t, "**Song**\nSkip votes: 0/1", embed.Description)
	assert.Equal(t, "Repeat: ON", embed.Footer.Text)
	assert.Equal(t, "1 track", embed.Fields[0].Value)

	row := components[0].(discordgo.ActionsRow)
	pause := row.Components[0].(discordgo.Button)
	repeat := row.Components[3].(discordgo.Button)
	assert.Equal(t, "Resume", pause.Label)
	assert.Equal(t, discordgo.SuccessButton, repeat.Style)
}

func TestRenderIdle(t *testing.T) {
	embed, components := Render(playback.NowPlaying{})

	assert.Equal(t, "Nothing Playing", embed.Title)
	assert.Equal(t, "empty", embed.Fields[0].Value)
	require.Len(t, embed.Fields, 1)

	row := components[0].(discordgo.ActionsRow)
	ids := make([]string, 0, len(row.Components))
	disabled := map[string]bool{}
	for _, c := range row.Components {
		b := c.(discordgo.Button)
		ids = append(ids, b.CustomID)
		disabled[b.CustomID] = b.Disabled
	}

	if diff := cmp.Diff([]string{ButtonPause, ButtonSkip, ButtonQueue, ButtonRepeat, ButtonStop}, ids); diff != "" {
		t.Errorf("button ids mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, disabled[ButtonPause])
	assert.True(t, disabled[ButtonSkip])
	assert.False(t, disabled[ButtonStop])
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Second, "0:45"},
		{10*time.Minute + 2*time.Second, "10:02"},
		{time.Hour + time.Minute + time.Second, "1:01:01"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}
