package shared

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// GuildLimiter hands out one token bucket per guild.
type GuildLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    time.Duration
	burst    int
}

func NewGuildLimiter(every time.Duration, burst int) *GuildLimiter {
	if burst < 1 {
		burst = 1
	}
	return &GuildLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    every,
		burst:    burst,
	}
}

func (l *GuildLimiter) get(guildID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[guildID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.every), l.burst)
		l.limiters[guildID] = lim
	}
	return lim
}

func (l *GuildLimiter) Allow(guildID string) bool {
	return l.get(guildID).Allow()
}

// Forget drops the bucket of a guild that went quiet.
func (l *GuildLimiter) Forget(guildID string) {
	l.mu.Lock()
	delete(l.limiters, guildID)
	l.mu.Unlock()
}
