package music

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Never   Gonna ", "never gonna"},
		{"https://youtu.be/AbCdEf", "https://youtu.be/AbCdEf"},
		{"HTTPS://YouTu.be/AbCdEf?t=1", "https://youtu.be/AbCdEf?t=1"},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeQuery(tt.in), tt.in)
	}
}

func TestResolveCacheKeepsLinkCase(t *testing.T) {
	c := NewResolveCache(nil, time.Minute)
	ctx := context.Background()

	c.Set(ctx, "https://youtu.be/AbCdEf", Track{Title: "First"})
	c.Set(ctx, "https://youtu.be/abcdef", Track{Title: "Second"})

	first, ok := c.Get(ctx, "https://YOUTU.BE/AbCdEf")
	assert.True(t, ok)
	assert.Equal(t, "First", first.Title)

	second, ok := c.Get(ctx, "https://youtu.be/abcdef")
	assert.True(t, ok)
	assert.Equal(t, "Second", second.Title)
}

func TestResolveCacheDropsExpiredEntries(t *testing.T) {
	c := NewResolveCache(nil, 20*time.Millisecond)
	ctx := context.Background()

	c.Set(ctx, "one", Track{Title: "One"})
	c.Set(ctx, "two", Track{Title: "Two"})
	assert.Equal(t, 2, c.local.Len())

	assert.Eventually(t, func() bool { return c.local.Len() == 0 }, time.Second, 5*time.Millisecond,
		"entries nobody reads again still expire")

	_, ok := c.Get(ctx, "one")
	assert.False(t, ok)
}

func TestResolveCacheIsBounded(t *testing.T) {
	c := newResolveCache(nil, time.Minute, 2)
	ctx := context.Background()

	c.Set(ctx, "a", Track{Title: "A"})
	c.Set(ctx, "b", Track{Title: "B"})
	c.Set(ctx, "c", Track{Title: "C"})

	assert.Equal(t, 2, c.local.Len())
	_, ok := c.Get(ctx, "a")
	assert.False(t, ok, "the oldest entry is evicted")
	_, ok = c.Get(ctx, "c")
	assert.True(t, ok)
}

func TestNilResolveCache(t *testing.T) {
	var c *ResolveCache
	c.Set(context.Background(), "q", Track{Title: "Q"})
	_, ok := c.Get(context.Background(), "q")
	assert.False(t, ok)
}
