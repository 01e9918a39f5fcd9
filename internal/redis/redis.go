// Package redis holds the optional shared state of the bot: guild settings
// and the query resolve cache. Everything degrades to process memory when
// no server is configured or reachable.
package redis

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	redislib "github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"
)

const (
	pingAttempts = 5
	pingBackoff  = 200 * time.Millisecond
	pingTimeout  = 3 * time.Second
)

var (
	client *redislib.Client
	once   sync.Once
)

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Init connects once. A server that does not answer after the retries leaves
// Client returning nil, which callers treat as "use memory".
func Init(cfg Config) (*redislib.Client, error) {
	var initErr error

	once.Do(func() {
		c := redislib.NewClient(&redislib.Options{
			Addr:     cfg.Addr(),
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		ping := func(ctx context.Context) error { return c.Ping(ctx).Err() }
		if initErr = waitReady(ping, pingAttempts, pingBackoff); initErr != nil {
			_ = c.Close()
			return
		}

		client = c
		zlog.Info().Str("addr", cfg.Addr()).Int("db", cfg.DB).Msg("redis connected")
	})

	if client == nil && initErr == nil {
		return nil, errors.New("redis client not initialized")
	}
	return client, initErr
}

// waitReady pings until the server answers, doubling the pause between
// attempts.
func waitReady(ping func(context.Context) error, attempts int, backoff time.Duration) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		err = ping(ctx)
		cancel()
		if err == nil {
			return nil
		}

		zlog.Debug().Err(err).Int("attempt", attempt).Msg("redis not ready")
		if attempt < attempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return errors.Wrapf(err, "ping redis (%d attempts)", attempts)
}

func Client() *redislib.Client {
	return client
}

func Close() error {
	if client == nil {
		return nil
	}
	return client.Close()
}
