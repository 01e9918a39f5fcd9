package music

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lrstanley/go-ytdlp"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	ErrResolveFailed = errors.New("failed to resolve track")
	// ErrMissingInput also matches ErrResolveFailed.
	ErrMissingInput = errors.Mark(errors.New("input is required"), ErrResolveFailed)
)

const (
	defaultPlaylistLimit  = 50
	defaultResolveTimeout = 60 * time.Second
	// yt-dlp processes running at once for one playlist
	playlistWorkers = 4

	// fields are tab separated, yt-dlp prints NA for missing values
	trackPrintTemplate = "%(url)s\t%(title)s\t%(webpage_url)s\t%(duration)s"
	entryPrintTemplate = "%(url)s\t%(title)s"
)

// extractFunc runs one yt-dlp extraction and returns its stdout. A positive
// limit means a flat playlist listing of at most limit entries.
type extractFunc func(ctx context.Context, target string, limit int) (string, error)

type Resolver struct {
	extract       extractFunc
	spotify       *SpotifyClient
	cache         *ResolveCache
	playlistLimit int
	timeout       time.Duration
}

type ResolverOption func(*Resolver)

func WithSpotify(client *SpotifyClient) ResolverOption {
	return func(r *Resolver) { r.spotify = client }
}

func WithCache(cache *ResolveCache) ResolverOption {
	return func(r *Resolver) { r.cache = cache }
}

func WithPlaylistLimit(limit int) ResolverOption {
	return func(r *Resolver) {
		if limit > 0 {
			r.playlistLimit = limit
		}
	}
}

func WithTimeout(timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		extract:       runYTDLP,
		playlistLimit: defaultPlaylistLimit,
		timeout:       defaultResolveTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve turns a search term, a media page link or a Spotify track link into
// a single Track. Every failure matches ErrResolveFailed.
func (r *Resolver) Resolve(ctx context.Context, query string) (Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Track{}, ErrMissingInput
	}

	if track, ok := r.cache.Get(ctx, query); ok {
		return track, nil
	}

	target := query
	source := TrackSourceUnknown
	switch {
	case IsSpotifyLink(query):
		if r.spotify == nil {
			return Track{}, errors.Wrap(ErrResolveFailed, "spotify lookups are not configured")
		}
		title, err := r.spotify.Title(ctx, query)
		if err != nil {
			return Track{}, errors.Mark(errors.Wrap(err, "spotify title lookup"), ErrResolveFailed)
		}
		target = searchTarget(title)
		source = TrackSourceSpotify
	case !looksLikeURL(query):
		target = searchTarget(query)
	}

	track, err := r.extractTrack(ctx, target)
	if err != nil {
		return Track{}, err
	}
	if source == TrackSourceSpotify {
		track.Source = source
	}

	r.cache.Set(ctx, query, track)
	return track, nil
}

// ResolvePlaylist expands a playlist or album link into tracks, in playlist
// order. Entries that fail to resolve are skipped. When ctx runs out part way
// the entries resolved so far are returned.
func (r *Resolver) ResolvePlaylist(ctx context.Context, link string) ([]Track, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return nil, ErrMissingInput
	}

	var targets []string
	if IsSpotifyLink(link) {
		if r.spotify == nil {
			return nil, errors.Wrap(ErrResolveFailed, "spotify lookups are not configured")
		}
		titles, err := r.spotify.CollectionTitles(ctx, link, r.playlistLimit)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "spotify collection lookup"), ErrResolveFailed)
		}
		for _, title := range titles {
			targets = append(targets, searchTarget(title))
		}
	} else {
		entries, err := r.listEntries(ctx, link)
		if err != nil {
			return nil, err
		}
		targets = entries
	}

	resolved := make([]*Track, len(targets))
	var g errgroup.Group
	g.SetLimit(playlistWorkers)
	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			track, err := r.extractTrack(ctx, target)
			if err != nil {
				zlog.Debug().Err(err).Str("target", target).Msg("skipping playlist entry")
				return nil
			}
			resolved[i] = &track
			return nil
		})
	}
	_ = g.Wait()

	tracks := make([]Track, 0, len(targets))
	for _, track := range resolved {
		if track != nil {
			tracks = append(tracks, *track)
		}
	}

	if err := ctx.Err(); err != nil {
		if len(tracks) == 0 {
			return nil, errors.Mark(err, ErrResolveFailed)
		}
		zlog.Warn().Err(err).Str("link", link).Int("resolved", len(tracks)).Int("entries", len(targets)).
			Msg("playlist resolve cut short")
		return tracks, nil
	}
	if len(tracks) == 0 {
		return nil, errors.Wrapf(ErrResolveFailed, "no playable entries in %s", link)
	}
	return tracks, nil
}

func (r *Resolver) extractTrack(ctx context.Context, target string) (Track, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.extract(ctx, target, 0)
	if err != nil {
		return Track{}, errors.Mark(errors.Wrapf(err, "yt-dlp %s", target), ErrResolveFailed)
	}

	track, ok := parseTrackLine(out)
	if !ok {
		return Track{}, errors.Wrapf(ErrResolveFailed, "no result for %s", target)
	}
	return track, nil
}

func (r *Resolver) listEntries(ctx context.Context, link string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	out, err := r.extract(ctx, link, r.playlistLimit)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "yt-dlp playlist %s", link), ErrResolveFailed)
	}

	entries := parseEntryLines(out, r.playlistLimit)
	if len(entries) == 0 {
		return nil, errors.Wrapf(ErrResolveFailed, "playlist %s has no entries", link)
	}
	return entries, nil
}

func runYTDLP(ctx context.Context, target string, limit int) (string, error) {
	cmd := ytdlp.New().
		NoWarnings().
		IgnoreConfig()

	if limit > 0 {
		cmd = cmd.
			FlatPlaylist().
			PlaylistItems(fmt.Sprintf("1-%d", limit)).
			Print(entryPrintTemplate)
	} else {
		cmd = cmd.
			Format("bestaudio/best").
			NoPlaylist().
			Print(trackPrintTemplate)
	}

	res, err := cmd.Run(ctx, target)
	if err != nil {
		if res != nil && strings.TrimSpace(res.Stderr) != "" {
			return "", errors.Wrap(err, strings.TrimSpace(res.Stderr))
		}
		return "", err
	}
	return res.Stdout, nil
}

func searchTarget(query string) string {
	return "ytsearch1:" + query
}

func parseTrackLine(out string) (Track, bool) {
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.Split(line, "\t")
		if len(parts) < 4 {
			continue
		}

		playable := field(parts[0])
		page := field(parts[2])
		if playable == "" && page == "" {
			continue
		}

		title := field(parts[1])
		if title == "" {
			title = unknownTitle
		}

		var duration time.Duration
		if secs, err := strconv.ParseFloat(field(parts[3]), 64); err == nil && secs > 0 {
			duration = time.Duration(secs * float64(time.Second))
		}

		return Track{
			Title:       title,
			PlayableURL: playable,
			SourceURL:   page,
			Source:      detectSourceFromURL(page),
			Duration:    duration,
		}, true
	}
	return Track{}, false
}

func parseEntryLines(out string, limit int) []string {
	var entries []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		link, _, _ := strings.Cut(line, "\t")
		if link = field(link); link == "" {
			continue
		}
		entries = append(entries, link)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries
}

func field(s string) string {
	s = strings.TrimSpace(s)
	if s == "NA" {
		return ""
	}
	return s
}
