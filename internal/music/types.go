package music

import (
	"net/url"
	"strings"
	"time"
)

type TrackSource string

const (
	TrackSourceYouTube    TrackSource = "youtube"
	TrackSourceSpotify    TrackSource = "spotify"
	TrackSourceSoundCloud TrackSource = "soundcloud"
	TrackSourceUnknown    TrackSource = "unknown"
)

// Track is immutable once resolved. PlayableURL is what the transcoder reads;
// SourceURL is the page a user would open. Either may be empty.
type Track struct {
	Title       string        `json:"title"`
	PlayableURL string        `json:"playable_url"`
	SourceURL   string        `json:"source_url"`
	Source      TrackSource   `json:"source"`
	Duration    time.Duration `json:"duration"`
	RequestedBy string        `json:"requested_by,omitempty"`
}

func (t Track) DisplayTitle() string {
	if title := strings.TrimSpace(t.Title); title != "" {
		return title
	}
	return unknownTitle
}

func (t Track) Playable() bool {
	return strings.TrimSpace(t.PlayableURL) != ""
}

const unknownTitle = "Unknown Title"

func looksLikeURL(value string) bool {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return true
	}

	u, err := url.Parse(value)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func detectSourceFromURL(raw string) TrackSource {
	u, err := url.Parse(raw)
	if err != nil {
		return TrackSourceUnknown
	}

	host := strings.ToLower(u.Host)
	switch {
	case strings.Contains(host, "youtube.com"), strings.Contains(host, "youtu.be"):
		return TrackSourceYouTube
	case strings.Contains(host, "soundcloud.com"):
		return TrackSourceSoundCloud
	case strings.Contains(host, "spotify.com"):
		return TrackSourceSpotify
	default:
		return TrackSourceUnknown
	}
}
