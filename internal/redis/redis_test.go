package redis

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "jukebot:settings:42", SettingsKey("42"))
	assert.Equal(t, "jukebot:resolve:lofi beats", ResolveKey("lofi beats"))
	assert.Equal(t, "jukebot:a:b", Key("a", "b"))
}

func TestConfigAddr(t *testing.T) {
	assert.Equal(t, "localhost:6379", Config{Host: "localhost", Port: 6379}.Addr())
	assert.Equal(t, "[::1]:6380", Config{Host: "::1", Port: 6380}.Addr())
}

func TestWaitReadyRetries(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	require.NoError(t, waitReady(ping, 5, time.Millisecond))
	assert.Equal(t, 3, calls)
}

func TestWaitReadyGivesUp(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		return errors.New("connection refused")
	}

	err := waitReady(ping, 3, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 attempts")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 3, calls)
}
