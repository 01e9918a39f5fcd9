package commands

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/hxnx/jukebot/config"
	"github.com/hxnx/jukebot/internal/playback"
)

func TestSkipMessage(t *testing.T) {
	tests := []struct {
		name string
		res  playback.VoteResult
		err  error
		want string
	}{
		{"registered", playback.VoteResult{Votes: 1, Required: 3}, nil, "Skip vote registered (1/3)."},
		{"duplicate", playback.VoteResult{Votes: 1, Required: 3, Duplicate: true}, nil, "You already voted to skip (1/3)."},
		{"passed", playback.VoteResult{Votes: 2, Required: 2, Skipped: true}, nil, "Skip passed (2/2), skipping."},
		{"nothing playing", playback.VoteResult{}, playback.ErrNotPlaying, MsgNothing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SkipMessage(tt.res, tt.err))
		})
	}
}

func TestControlMessages(t *testing.T) {
	assert.Equal(t, MsgSkipped, SkipNowMessage(nil))
	assert.Equal(t, MsgNothing, SkipNowMessage(playback.ErrNotPlaying))
	assert.Equal(t, MsgNotConnected, SkipNowMessage(playback.ErrNoSession))
	assert.Equal(t, MsgPaused, PauseMessage(nil))
	assert.Equal(t, MsgNothing, PauseMessage(playback.ErrNotPlaying))
	assert.Equal(t, MsgResumed, ResumeMessage(nil))
	assert.Equal(t, MsgNotPaused, ResumeMessage(errors.Wrap(playback.ErrNotPaused, "resume")))
	assert.Equal(t, MsgPaused, TogglePauseMessage(true, nil))
	assert.Equal(t, MsgResumed, TogglePauseMessage(false, nil))
	assert.Equal(t, MsgStopped, StopMessage(nil))
	assert.Equal(t, MsgNotConnected, StopMessage(playback.ErrNoSession))
	assert.Equal(t, "Repeat is now ON.", RepeatMessage(true, nil))
	assert.Equal(t, "Repeat is now OFF.", RepeatMessage(false, nil))
	assert.Equal(t, MsgUnknownFailed, RepeatMessage(false, errors.New("context deadline exceeded")))
}

func TestHelpText(t *testing.T) {
	text := HelpText("!", map[string]config.Aliases{
		"play":  {"play", "p"},
		"hello": {"hello"},
	})

	assert.Contains(t, text, "`/play <query>`")
	assert.Contains(t, text, "hello: `!hello`\nplay: `!play`, `!p`\n")

	assert.NotContains(t, HelpText("!", nil), "Text commands")
}
