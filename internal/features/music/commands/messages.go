package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/hxnx/jukebot/config"
	"github.com/hxnx/jukebot/internal/playback"
)

const (
	MsgGuildOnly     = "This command can only be used in a server."
	MsgNothing       = "Nothing is playing."
	MsgNotPaused     = "Nothing is paused."
	MsgNotConnected  = "I'm not in a voice channel."
	MsgStopped       = "Stopped playback and left the voice channel."
	MsgPaused        = "Paused."
	MsgResumed       = "Resumed."
	MsgSkipped       = "Skipped."
	MsgUnknownFailed = "Something went wrong. Please try again."
	MsgHello         = "Hello! Use /play to queue a track."
)

// SkipMessage answers a skip vote.
func SkipMessage(res playback.VoteResult, err error) string {
	if err != nil {
		return controlError(err)
	}
	switch {
	case res.Skipped:
		return fmt.Sprintf("Skip passed (%d/%d), skipping.", res.Votes, res.Required)
	case res.Duplicate:
		return fmt.Sprintf("You already voted to skip (%d/%d).", res.Votes, res.Required)
	default:
		return fmt.Sprintf("Skip vote registered (%d/%d).", res.Votes, res.Required)
	}
}

func SkipNowMessage(err error) string {
	if err != nil {
		return controlError(err)
	}
	return MsgSkipped
}

func PauseMessage(err error) string {
	if err != nil {
		return controlError(err)
	}
	return MsgPaused
}

func ResumeMessage(err error) string {
	if err != nil {
		return controlError(err)
	}
	return MsgResumed
}

func TogglePauseMessage(paused bool, err error) string {
	if err != nil {
		return controlError(err)
	}
	if paused {
		return MsgPaused
	}
	return MsgResumed
}

func StopMessage(err error) string {
	if err != nil {
		return controlError(err)
	}
	return MsgStopped
}

func RepeatMessage(on bool, err error) string {
	if err != nil {
		return controlError(err)
	}
	if on {
		return "Repeat is now ON."
	}
	return "Repeat is now OFF."
}

func controlError(err error) string {
	switch {
	case errors.Is(err, playback.ErrNotPlaying):
		return MsgNothing
	case errors.Is(err, playback.ErrNotPaused):
		return MsgNotPaused
	case errors.Is(err, playback.ErrNoSession):
		return MsgNotConnected
	default:
		return MsgUnknownFailed
	}
}

// HelpText lists the slash commands and, when any are configured, the text
// command aliases.
func HelpText(prefix string, aliases map[string]config.Aliases) string {
	var b strings.Builder
	b.WriteString("**Slash commands**\n")
	b.WriteString("`/play <query>` queue a track by search or link\n")
	b.WriteString("`/playlist <url>` queue every track of a playlist\n")
	b.WriteString("`/pause`, `/resume` pause or resume playback\n")
	b.WriteString("`/skip` skip the current track (the Skip button votes)\n")
	b.WriteString("`/queue` show the queue\n")
	b.WriteString("`/repeat` toggle repeat\n")
	b.WriteString("`/stop` stop and leave the voice channel\n")

	if len(aliases) == 0 {
		return b.String()
	}

	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteString("\n**Text commands**\n")
	for _, name := range names {
		forms := make([]string, 0, len(aliases[name]))
		for _, a := range aliases[name] {
			forms = append(forms, "`"+prefix+a+"`")
		}
		fmt.Fprintf(&b, "%s: %s\n", name, strings.Join(forms, ", "))
	}
	return b.String()
}
