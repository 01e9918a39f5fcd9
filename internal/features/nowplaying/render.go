// Package nowplaying renders and maintains the per-guild status message.
package nowplaying

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hxnx/jukebot/internal/playback"
)

const (
	ButtonPause  = "player_pause"
	ButtonSkip   = "player_skip"
	ButtonQueue  = "player_queue"
	ButtonRepeat = "player_repeat"
	ButtonStop   = "player_stop"

	// ButtonPrefix is shared by every status message button.
	ButtonPrefix = "player_"
)

const (
	colorPlaying = 0xC9A0FF
	colorPaused  = 0xF1C40F
	colorIdle    = 0x95A5A6
)

// Render builds the embed and buttons for one state of the status message.
func Render(view playback.NowPlaying) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	embed := &discordgo.MessageEmbed{
		Footer: &discordgo.MessageEmbedFooter{Text: "Repeat: " + onOff(view.Repeat)},
	}

	switch {
	case view.Track == nil:
		embed.Title = "Nothing Playing"
		embed.Color = colorIdle
		embed.Description = "The queue is empty. Use /play to add a track."
	case view.Paused:
		embed.Title = "Paused"
		embed.Color = colorPaused
		embed.Description = describe(view)
	default:
		embed.Title = "Now Playing"
		embed.Color = colorPlaying
		embed.Description = describe(view)
	}

	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Queue", Value: queueLabel(view.QueueLength), Inline: true},
	}
	if view.Track != nil && view.Track.Duration > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Duration", Value: formatDuration(view.Track.Duration), Inline: true,
		})
	}

	return embed, buttons(view)
}

func describe(view playback.NowPlaying) string {
	t := view.Track
	var b strings.Builder
	if t.SourceURL != "" {
		fmt.Fprintf(&b, "[%s](%s)", t.DisplayTitle(), t.SourceURL)
	} else {
		fmt.Fprintf(&b, "**%s**", t.DisplayTitle())
	}
	if t.RequestedBy != "" {
		fmt.Fprintf(&b, "\nRequested by <@%s>", t.RequestedBy)
	}
	fmt.Fprintf(&b, "\nSkip votes: %d/%d", view.SkipVotes, view.SkipRequired)
	return b.String()
}

func buttons(view playback.NowPlaying) []discordgo.MessageComponent {
	idle := view.Track == nil

	pauseLabel := "Pause"
	if view.Paused {
		pauseLabel = "Resume"
	}
	repeatStyle := discordgo.SecondaryButton
	if view.Repeat {
		repeatStyle = discordgo.SuccessButton
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{Label: pauseLabel, Style: discordgo.PrimaryButton, CustomID: ButtonPause, Disabled: idle},
				discordgo.Button{Label: "Skip", Style: discordgo.SecondaryButton, CustomID: ButtonSkip, Disabled: idle},
				discordgo.Button{Label: "Queue", Style: discordgo.SecondaryButton, CustomID: ButtonQueue},
				discordgo.Button{Label: "Repeat", Style: repeatStyle, CustomID: ButtonRepeat},
				discordgo.Button{Label: "Stop", Style: discordgo.DangerButton, CustomID: ButtonStop},
			},
		},
	}
}

func queueLabel(n int) string {
	switch n {
	case 0:
		return "empty"
	case 1:
		return "1 track"
	default:
		return fmt.Sprintf("%d tracks", n)
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func formatDuration(d time.Duration) string {
	total := int(d.Round(time.Second).Seconds())
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
