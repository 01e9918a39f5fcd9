package bot

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/hxnx/jukebot/config"
	"github.com/hxnx/jukebot/internal/database"
	commands "github.com/hxnx/jukebot/internal/features"
	musiccmd "github.com/hxnx/jukebot/internal/features/music/commands"
	musiclisteners "github.com/hxnx/jukebot/internal/features/music/listeners"
	"github.com/hxnx/jukebot/internal/features/music/requests"
	"github.com/hxnx/jukebot/internal/features/nowplaying"
	"github.com/hxnx/jukebot/internal/music"
	"github.com/hxnx/jukebot/internal/playback"
	"github.com/hxnx/jukebot/internal/redis"
	"github.com/hxnx/jukebot/internal/voice"
)

const (
	shutdownTimeout = 15 * time.Second
	cleanupTimeout  = 30 * time.Second
)

type Bot struct {
	config     *config.Config
	sessions   []*discordgo.Session
	controller *playback.Controller
	board      *nowplaying.Board
	router     *commands.Router

	started      bool
	cleanupOnce  sync.Once
	presenceStop chan struct{}
}

func New(cfg *config.Config) (*Bot, error) {
	if cfg.Database.Enabled() {
		dbConfig := &database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
		}
		if err := database.Initialize(dbConfig); err != nil {
			zlog.Warn().Err(err).Msg("database initialization failed, status messages will not survive restarts")
		}
	}

	if cfg.Redis.Enabled() {
		redisConfig := redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}
		if _, err := redis.Init(redisConfig); err != nil {
			zlog.Warn().Err(err).Msg("redis initialization failed, falling back to in-memory cache")
		}
	}

	sessions, err := openShards(cfg)
	if err != nil {
		return nil, err
	}

	b := &Bot{config: cfg, sessions: sessions}
	b.wire()
	return b, nil
}

func openShards(cfg *config.Config) ([]*discordgo.Session, error) {
	shardCount := cfg.Bot.ShardCount
	if shardCount < 1 {
		s, err := discordgo.New("Bot " + cfg.Bot.Token)
		if err != nil {
			return nil, errors.Wrap(err, "create discord session")
		}

		if gw, err := s.GatewayBot(); err == nil && gw.Shards > 0 {
			shardCount = gw.Shards
		} else {
			zlog.Warn().Err(err).Msg("failed to auto-detect shard count, defaulting to 1")
			shardCount = 1
		}
	}

	sessions := make([]*discordgo.Session, 0, shardCount)
	for shard := 0; shard < shardCount; shard++ {
		s, err := discordgo.New("Bot " + cfg.Bot.Token)
		if err != nil {
			return nil, errors.Wrap(err, "create discord session")
		}

		s.Identify.Intents = discordgo.IntentsGuilds |
			discordgo.IntentsGuildVoiceStates |
			discordgo.IntentsGuildMessages |
			discordgo.IntentsMessageContent

		if shardCount > 1 {
			s.Identify.Shard = &[2]int{shard, shardCount}
			s.ShardCount = shardCount
		}

		sessions = append(sessions, s)
	}
	return sessions, nil
}

// wire builds the playback stack on top of the gateway sessions.
func (b *Bot) wire() {
	cfg := b.config
	rdb := redis.Client()

	resolver := music.NewResolver(
		music.WithSpotify(music.NewSpotifyClient(context.Background(), cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)),
		music.WithCache(music.NewResolveCache(rdb, music.DefaultResolveCacheTTL)),
		music.WithPlaylistLimit(cfg.YTDLP.PlaylistLimit),
		music.WithTimeout(cfg.YTDLP.TimeoutDuration()),
	)

	b.board = nowplaying.NewBoard(b.sessions[0], database.NewStatusMessageRepository(database.GetDB()))

	var opts []playback.Option
	if rdb != nil {
		opts = append(opts, playback.WithSettingsStore(redis.NewSettingsStore(rdb)))
	}

	b.controller = playback.NewController(playback.Config{
		IdleTimeout:      cfg.Bot.IdleTimeoutDuration(),
		PauseIdleTimeout: cfg.Bot.PauseIdleTimeoutDuration(),
		SkipRequired:     cfg.Bot.SkipRequired,
		SkipUseMajority:  cfg.Bot.SkipUseMajority,
	}, voice.NewConnector(b.sessionFor, cfg.Bot.FFmpegPath), b.board, opts...)

	svc := requests.NewService(resolver, b.controller)
	handler := musiccmd.NewHandler(b.controller, svc, musiccmd.HelpText(cfg.Bot.Prefix, cfg.Commands))
	b.router = commands.NewRouter(handler, musiclisteners.New(cfg, handler, b.controller, svc))
}

// sessionFor picks the shard that owns guildID.
func (b *Bot) sessionFor(guildID string) *discordgo.Session {
	if len(b.sessions) == 1 {
		return b.sessions[0]
	}
	id, err := strconv.ParseUint(guildID, 10, 64)
	if err != nil {
		return b.sessions[0]
	}
	return b.sessions[shardFor(id, len(b.sessions))]
}

func shardFor(guildID uint64, shardCount int) int {
	return int((guildID >> 22) % uint64(shardCount))
}

func (b *Bot) Start() error {
	if b.started {
		return nil
	}

	if len(b.sessions) == 0 {
		return nil
	}

	for _, s := range b.sessions {
		b.registerHandlers(s)
		b.router.AddHandlers(s)
	}

	if _, err := commands.RegisterCommands(b.sessions[0], b.config.Bot.ApplicationID, b.config.Bot.TestGuildID); err != nil {
		zlog.Warn().Err(err).Msg("failed to register slash commands")
	}

	for _, s := range b.sessions {
		if err := s.Open(); err != nil {
			return errors.Wrapf(err, "open shard %d", s.ShardID)
		}
	}

	b.startPresenceUpdater()
	b.started = true
	zlog.Info().Int("shards", len(b.sessions)).Msg("bot session opened")
	return nil
}

func (b *Bot) registerHandlers(s *discordgo.Session) {
	s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		if s.State != nil && s.State.User != nil {
			zlog.Info().Str("user", s.State.User.Username).Int("shard", s.ShardID).Msg("bot ready")
		} else {
			zlog.Info().Int("shard", s.ShardID).Msg("bot ready")
		}
		b.cleanupOnce.Do(func() { go b.cleanupStale() })
		b.updatePresence()
	})
}

// cleanupStale removes status messages a previous run left behind.
func (b *Bot) cleanupStale() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if n := b.board.CleanupStale(ctx); n > 0 {
		zlog.Info().Int("count", n).Msg("removed stale status messages")
	}
}

func (b *Bot) Stop() error {
	if !b.started {
		return nil
	}

	b.started = false
	b.stopPresenceUpdater()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	b.controller.Shutdown(ctx)
	cancel()

	for _, s := range b.sessions {
		if err := s.Close(); err != nil {
			return errors.Wrapf(err, "close shard %d", s.ShardID)
		}
	}

	if err := database.Close(); err != nil {
		zlog.Warn().Err(err).Msg("failed to close database")
	}

	if err := redis.Close(); err != nil {
		zlog.Warn().Err(err).Msg("failed to close redis")
	}

	zlog.Info().Int("shards", len(b.sessions)).Msg("bot session closed")
	return nil
}

// ClearCommands removes the slash commands registered for the configured
// test guild, or the global ones without it.
func ClearCommands(cfg *config.Config) (int, error) {
	s, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		return 0, errors.Wrap(err, "create discord session")
	}
	return commands.ClearCommands(s, cfg.Bot.ApplicationID, cfg.Bot.TestGuildID)
}
