package voice

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

var (
	ErrNotConnected       = errors.New("voice connection not established")
	ErrPlaybackInProgress = errors.New("playback already in progress")
)

const (
	frameDuration   = 20 * time.Millisecond
	opusSendTimeout = time.Second
)

// Session streams one track at a time into a discordgo voice connection.
// ffmpeg transcodes the source into Ogg/Opus on stdout and the pages are
// unpacked into opus frames for OpusSend.
type Session struct {
	guildID    string
	channelID  string
	ffmpegPath string
	vc         *discordgo.VoiceConnection

	mu      sync.Mutex
	active  bool
	paused  bool
	cancel  context.CancelFunc
	resumed chan struct{}
}

func newSession(guildID, channelID, ffmpegPath string, vc *discordgo.VoiceConnection) *Session {
	return &Session{
		guildID:    guildID,
		channelID:  channelID,
		ffmpegPath: ffmpegPath,
		vc:         vc,
		resumed:    make(chan struct{}, 1),
	}
}

func (s *Session) ChannelID() string {
	return s.channelID
}

// Play starts ffmpeg and returns once it is running. onComplete is called
// once the stream ends; a stream ended by Stop completes with a nil error.
func (s *Session) Play(url string, onComplete func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vc == nil {
		return ErrNotConnected
	}
	if s.active {
		return ErrPlaybackInProgress
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, s.ffmpegPath, ffmpegArgs(url)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return errors.Wrap(err, "ffmpeg stdout pipe")
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return errors.Wrap(err, "start ffmpeg")
	}

	s.active = true
	s.paused = false
	s.cancel = cancel
	vc := s.vc

	go func() {
		streamErr := s.stream(ctx, vc, stdout)
		stopped := ctx.Err() != nil
		if streamErr != nil {
			// ffmpeg would block on a full pipe once nobody reads it
			cancel()
		}
		waitErr := cmd.Wait()
		cancel()

		s.mu.Lock()
		s.active = false
		s.paused = false
		s.cancel = nil
		s.mu.Unlock()

		var err error
		switch {
		case stopped:
		case streamErr != nil:
			err = streamErr
		case waitErr != nil:
			err = errors.Wrapf(waitErr, "ffmpeg: %s", strings.TrimSpace(stderr.String()))
		}
		if onComplete != nil {
			onComplete(err)
		}
	}()

	return nil
}

func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return errors.New("nothing is playing")
	}
	s.paused = true
	return nil
}

func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || !s.paused {
		return errors.New("playback is not paused")
	}
	s.paused = false
	select {
	case s.resumed <- struct{}{}:
	default:
	}
	return nil
}

func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func (s *Session) Disconnect() error {
	_ = s.Stop()

	s.mu.Lock()
	vc := s.vc
	s.vc = nil
	s.mu.Unlock()

	if vc == nil {
		return nil
	}
	return vc.Disconnect()
}

func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && !s.paused
}

func (s *Session) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && s.paused
}

func (s *Session) isPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// waitWhilePaused blocks until the session resumes or ctx ends.
func (s *Session) waitWhilePaused(ctx context.Context, vc *discordgo.VoiceConnection) bool {
	if !s.isPaused() {
		return true
	}
	setSpeaking(vc, false)
	for s.isPaused() {
		select {
		case <-ctx.Done():
			return false
		case <-s.resumed:
		}
	}
	setSpeaking(vc, true)
	return true
}

func (s *Session) stream(ctx context.Context, vc *discordgo.VoiceConnection, r io.Reader) error {
	reader := bufio.NewReaderSize(r, 64*1024)
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	setSpeaking(vc, true)
	defer setSpeaking(vc, false)

	frames := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		page, err := readOggPage(reader)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				zlog.Debug().Str("guild_id", s.guildID).Int("frames", frames).Msg("audio stream ended")
				return nil
			}
			return err
		}
		if page.header {
			continue
		}

		for _, packet := range page.packets {
			if !s.waitWhilePaused(ctx, vc) {
				return nil
			}

			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}

			select {
			case vc.OpusSend <- packet:
				frames++
			case <-ctx.Done():
				return nil
			case <-time.After(opusSendTimeout):
				zlog.Warn().Str("guild_id", s.guildID).Int("frame", frames).Msg("timed out sending opus frame")
			}
		}
	}
}

func ffmpegArgs(url string) []string {
	return []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", url,
		"-vn",
		"-c:a", "libopus",
		"-ar", "48000",
		"-ac", "2",
		"-b:a", "96k",
		"-vbr", "on",
		"-frame_duration", "20",
		"-application", "audio",
		"-f", "ogg",
		"-loglevel", "warning",
		"pipe:1",
	}
}

func setSpeaking(vc *discordgo.VoiceConnection, speaking bool) {
	if vc == nil || !vc.Ready {
		return
	}
	_ = vc.Speaking(speaking)
}
