package playback

import (
	"context"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/hxnx/jukebot/internal/music"
)

type fakeSession struct {
	mu          sync.Mutex
	channelID   string
	playErr     error
	played      []string
	onComplete  func(error)
	playing     bool
	paused      bool
	stops       int
	disconnects int
	// holdStops leaves the completion pending until finish is called
	holdStops bool
}

func (s *fakeSession) ChannelID() string { return s.channelID }

func (s *fakeSession) Play(url string, onComplete func(error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playErr != nil {
		return s.playErr
	}
	s.played = append(s.played, url)
	s.onComplete = onComplete
	s.playing = true
	s.paused = false
	return nil
}

// finish ends the current stream the way the audio goroutine would.
func (s *fakeSession) finish(err error) {
	s.mu.Lock()
	done := s.onComplete
	s.onComplete = nil
	s.playing = false
	s.paused = false
	s.mu.Unlock()

	if done != nil {
		done(err)
	}
}

func (s *fakeSession) Stop() error {
	s.mu.Lock()
	s.stops++
	if s.holdStops {
		s.mu.Unlock()
		return nil
	}
	done := s.onComplete
	s.onComplete = nil
	s.playing = false
	s.paused = false
	s.mu.Unlock()

	if done != nil {
		go done(nil)
	}
	return nil
}

func (s *fakeSession) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return errors.New("not playing")
	}
	s.playing = false
	s.paused = true
	return nil
}

func (s *fakeSession) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return errors.New("not paused")
	}
	s.playing = true
	s.paused = false
	return nil
}

func (s *fakeSession) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disconnects++
	return nil
}

func (s *fakeSession) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

func (s *fakeSession) IsPaused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *fakeSession) Played() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.played...)
}

func (s *fakeSession) Stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *fakeSession) Disconnects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disconnects
}

type fakeVoice struct {
	mu         sync.Mutex
	sessions   []*fakeSession
	connectErr error
	playErr    error
	holdStops  bool
	listeners  int
}

func (v *fakeVoice) Connect(_ context.Context, _ string, channelID string) (Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.connectErr != nil {
		return nil, v.connectErr
	}
	s := &fakeSession{channelID: channelID, playErr: v.playErr, holdStops: v.holdStops}
	v.sessions = append(v.sessions, s)
	return s, nil
}

func (v *fakeVoice) CountListeners(_, _ string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.listeners, nil
}

func (v *fakeVoice) session(i int) *fakeSession {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i >= len(v.sessions) {
		return nil
	}
	return v.sessions[i]
}

func (v *fakeVoice) connects() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.sessions)
}

type fakeBoard struct {
	mu            sync.Mutex
	nextID        int
	editErr       error
	sent          []NowPlaying
	edits         []NowPlaying
	deleted       []StatusMessage
	announcements []string
}

func (b *fakeBoard) Send(_ context.Context, channelID string, view NowPlaying) (StatusMessage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.sent = append(b.sent, view)
	return StatusMessage{GuildID: view.GuildID, ChannelID: channelID, MessageID: strconv.Itoa(b.nextID)}, nil
}

func (b *fakeBoard) Edit(_ context.Context, _ StatusMessage, view NowPlaying) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.editErr != nil {
		return b.editErr
	}
	b.edits = append(b.edits, view)
	return nil
}

func (b *fakeBoard) Delete(_ context.Context, msg StatusMessage) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, msg)
	return nil
}

func (b *fakeBoard) Announce(_ context.Context, _ string, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.announcements = append(b.announcements, content)
	return nil
}

func (b *fakeBoard) setEditErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.editErr = err
}

func (b *fakeBoard) sentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

func (b *fakeBoard) deletedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.deleted)
}

func (b *fakeBoard) lastEdit() (NowPlaying, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.edits) == 0 {
		return NowPlaying{}, false
	}
	return b.edits[len(b.edits)-1], true
}

func (b *fakeBoard) Announcements() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.announcements...)
}

type fakeSettings struct {
	mu     sync.Mutex
	repeat map[string]bool
}

func (f *fakeSettings) Repeat(_ context.Context, guildID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.repeat[guildID], nil
}

func (f *fakeSettings) SetRepeat(_ context.Context, guildID string, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repeat[guildID] = on
	return nil
}

func (f *fakeSettings) get(guildID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.repeat[guildID]
}

func track(name string) music.Track {
	return music.Track{Title: name, PlayableURL: "https://audio.example/" + name}
}

func urls(names ...string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "https://audio.example/" + n
	}
	return out
}
