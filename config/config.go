package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "settings.yaml"

type Config struct {
	Bot      BotConfig          `yaml:"bot"`
	Commands map[string]Aliases `yaml:"commands"`
	Log      LogConfig          `yaml:"log"`
	Database DatabaseConfig     `yaml:"database"`
	Redis    RedisConfig        `yaml:"redis"`
	Spotify  SpotifyConfig      `yaml:"spotify"`
	YTDLP    YTDLPConfig        `yaml:"ytdlp"`
}

type BotConfig struct {
	Token         string `yaml:"token" validate:"required"`
	ApplicationID string `yaml:"application_id" validate:"required"`
	TestGuildID   string `yaml:"test_guild_id"`
	Prefix        string `yaml:"prefix" default:"/" validate:"required"`
	ShardCount    int    `yaml:"shard_count" validate:"gte=0"`

	// seconds, -1 disables the timer
	IdleTimeout      int  `yaml:"idle_timeout" default:"120" validate:"gte=-1"`
	PauseIdleTimeout int  `yaml:"pause_idle_timeout" default:"300" validate:"gte=-1"`
	SkipRequired     int  `yaml:"skip_required" default:"1" validate:"gte=1"`
	SkipUseMajority  bool `yaml:"skip_use_majority"`

	FFmpegPath string `yaml:"ffmpeg_path" default:"ffmpeg"`
}

type LogConfig struct {
	Output string `yaml:"output" default:"stdout" validate:"oneof=stdout stderr file"`
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn warning error"`
	File   string `yaml:"file" validate:"required_if=Output file"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" default:"5432"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name" default:"jukebot"`
	SSLMode  string `yaml:"sslmode" default:"disable" validate:"oneof=disable require verify-ca verify-full"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0"`
}

type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret" validate:"required_with=ClientID"`
}

type YTDLPConfig struct {
	PlaylistLimit int `yaml:"playlist_limit" default:"50" validate:"gte=1,lte=500"`
	// seconds per extraction
	Timeout int `yaml:"timeout" default:"60" validate:"gte=1"`
}

// Load reads .env, the optional YAML settings file at path and the environment,
// in increasing order of precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	// defaults go first so that explicit zero values in the file survive
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, errors.Wrapf(err, "failed to parse %s", path)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
	}

	cfg.overrideFromEnv()

	if len(cfg.Commands) == 0 {
		cfg.Commands = DefaultCommands()
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

func (c *Config) IsDevelopment() bool {
	return c.Bot.TestGuildID != ""
}

func (c *Config) overrideFromEnv() {
	setString(&c.Bot.Token, "DISCORD_TOKEN")
	setString(&c.Bot.ApplicationID, "DISCORD_APPLICATION_ID")
	setString(&c.Bot.TestGuildID, "DISCORD_GUILD_ID")
	setString(&c.Bot.Prefix, "BOT_PREFIX")
	setInt(&c.Bot.ShardCount, "SHARD_COUNT")
	setInt(&c.Bot.IdleTimeout, "IDLE_TIMEOUT")
	setInt(&c.Bot.PauseIdleTimeout, "PAUSE_IDLE_TIMEOUT")
	setInt(&c.Bot.SkipRequired, "SKIP_REQUIRED")
	setBool(&c.Bot.SkipUseMajority, "SKIP_USE_MAJORITY")
	setString(&c.Bot.FFmpegPath, "FFMPEG_PATH")

	setString(&c.Log.Level, "LOG_LEVEL")

	setString(&c.Database.Host, "DB_HOST")
	setInt(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")

	setString(&c.Redis.Host, "REDIS_HOST")
	setInt(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")

	setString(&c.Spotify.ClientID, "SPOTIFY_CLIENT_ID")
	setString(&c.Spotify.ClientSecret, "SPOTIFY_CLIENT_SECRET")

	setInt(&c.YTDLP.PlaylistLimit, "YTDLP_PLAYLIST_LIMIT")
	setInt(&c.YTDLP.Timeout, "YTDLP_TIMEOUT")
}

// IdleTimeoutDuration returns a negative duration when the timer is disabled.
func (b BotConfig) IdleTimeoutDuration() time.Duration {
	return seconds(b.IdleTimeout)
}

func (b BotConfig) PauseIdleTimeoutDuration() time.Duration {
	return seconds(b.PauseIdleTimeout)
}

func seconds(n int) time.Duration {
	if n < 0 {
		return -1
	}
	return time.Duration(n) * time.Second
}

func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

func (y YTDLPConfig) TimeoutDuration() time.Duration {
	return time.Duration(y.Timeout) * time.Second
}

func setString(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) {
	if value, ok := os.LookupEnv(key); ok {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			*dst = intValue
		}
	}
}

func setBool(dst *bool, key string) {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			*dst = boolValue
		}
	}
}
