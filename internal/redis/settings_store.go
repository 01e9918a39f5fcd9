package redis

import (
	"context"
	"strconv"

	"github.com/cockroachdb/errors"
	redislib "github.com/redis/go-redis/v9"
)

// SettingsStore keeps per-guild playback preferences in a hash per guild.
type SettingsStore struct {
	client *redislib.Client
}

func NewSettingsStore(client *redislib.Client) *SettingsStore {
	return &SettingsStore{client: client}
}

func (s *SettingsStore) Repeat(ctx context.Context, guildID string) (bool, error) {
	if guildID == "" {
		return false, errors.New("guild id is required")
	}

	v, err := s.client.HGet(ctx, SettingsKey(guildID), "repeat").Result()
	if errors.Is(err, redislib.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "read repeat setting")
	}

	on, err := strconv.ParseBool(v)
	if err != nil {
		return false, nil
	}
	return on, nil
}

func (s *SettingsStore) SetRepeat(ctx context.Context, guildID string, on bool) error {
	if guildID == "" {
		return errors.New("guild id is required")
	}
	if err := s.client.HSet(ctx, SettingsKey(guildID), "repeat", strconv.FormatBool(on)).Err(); err != nil {
		return errors.Wrap(err, "write repeat setting")
	}
	return nil
}
