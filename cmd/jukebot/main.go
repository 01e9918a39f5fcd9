package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	zlog "github.com/rs/zerolog/log"

	"github.com/hxnx/jukebot/config"
	"github.com/hxnx/jukebot/internal/bot"
	"github.com/hxnx/jukebot/internal/logger"
)

var (
	app        = kingpin.New("jukebot", "Discord music bot")
	configPath = app.Flag("config", "Path to the settings file").Default(config.DefaultPath).String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	clearCommandsCmd = app.Command("clear-commands", "Remove the registered slash commands and exit")
)

func init() {
	app.Command("run", "Run the bot (default)").Default()
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n\n", err)
		printUsageHints()
		os.Exit(1)
	}

	logConfig := logger.Config{Output: cfg.Log.Output, Level: cfg.Log.Level, File: cfg.Log.File}
	if *verbose {
		logConfig.Level = "debug"
	}
	if *logfile != "" {
		logConfig.Output = "file"
		logConfig.File = *logfile
	}
	if err := logger.Init(logConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	if command == clearCommandsCmd.FullCommand() {
		n, err := bot.ClearCommands(cfg)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to clear commands")
		}
		zlog.Info().Int("count", n).Str("guild_id", cfg.Bot.TestGuildID).Msg("commands cleared")
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Err(err).Msg("bot error")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logSettings(cfg)

	b, err := bot.New(cfg)
	if err != nil {
		return err
	}

	zlog.Info().Msg("starting bot")
	if err := b.Start(); err != nil {
		return err
	}
	defer func() {
		zlog.Info().Msg("shutting down")
		if err := b.Stop(); err != nil {
			zlog.Error().Err(err).Msg("failed to stop bot")
		}
	}()

	zlog.Info().Msg("bot is running, press CTRL+C to exit")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	return nil
}

func logSettings(cfg *config.Config) {
	mode := "production (global commands)"
	if cfg.IsDevelopment() {
		mode = "development (guild " + cfg.Bot.TestGuildID + ")"
	}

	zlog.Info().
		Str("mode", mode).
		Str("prefix", cfg.Bot.Prefix).
		Int("idle_timeout", cfg.Bot.IdleTimeout).
		Int("pause_idle_timeout", cfg.Bot.PauseIdleTimeout).
		Int("skip_required", cfg.Bot.SkipRequired).
		Bool("skip_use_majority", cfg.Bot.SkipUseMajority).
		Int("shard_count", cfg.Bot.ShardCount).
		Msg("configuration loaded")

	zlog.Info().
		Bool("database", cfg.Database.Enabled()).
		Bool("redis", cfg.Redis.Enabled()).
		Bool("spotify_api", cfg.Spotify.Enabled()).
		Int("playlist_limit", cfg.YTDLP.PlaylistLimit).
		Int("ytdlp_timeout", cfg.YTDLP.Timeout).
		Msg("integrations")
}

func printUsageHints() {
	fmt.Fprintln(os.Stderr, "Please ensure you have set the following environment variables:")
	fmt.Fprintln(os.Stderr, "  DISCORD_TOKEN          - Your Discord bot token (required)")
	fmt.Fprintln(os.Stderr, "  DISCORD_APPLICATION_ID - Your Discord application ID (required)")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Optional environment variables:")
	fmt.Fprintln(os.Stderr, "  DISCORD_GUILD_ID       - Guild ID for development (registers commands to that guild)")
	fmt.Fprintln(os.Stderr, "  BOT_PREFIX             - Prefix for text commands (default: /)")
	fmt.Fprintln(os.Stderr, "  SHARD_COUNT            - Number of shards (0 = auto-detect)")
	fmt.Fprintln(os.Stderr, "  IDLE_TIMEOUT           - Seconds before leaving an idle channel (-1 = never, default: 120)")
	fmt.Fprintln(os.Stderr, "  PAUSE_IDLE_TIMEOUT     - Seconds before leaving while paused (-1 = never, default: 300)")
	fmt.Fprintln(os.Stderr, "  SKIP_REQUIRED          - Votes needed to skip (default: 1)")
	fmt.Fprintln(os.Stderr, "  SKIP_USE_MAJORITY      - Require a majority of listeners instead")
	fmt.Fprintln(os.Stderr, "  LOG_LEVEL              - Log level (debug, info, warn, error)")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Database configuration:")
	fmt.Fprintln(os.Stderr, "  DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Redis configuration:")
	fmt.Fprintln(os.Stderr, "  REDIS_HOST, REDIS_PORT, REDIS_PASSWORD, REDIS_DB")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Spotify configuration:")
	fmt.Fprintln(os.Stderr, "  SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "yt-dlp configuration:")
	fmt.Fprintln(os.Stderr, "  YTDLP_PLAYLIST_LIMIT, YTDLP_TIMEOUT (seconds per lookup)")
}
