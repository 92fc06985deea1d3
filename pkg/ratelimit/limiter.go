package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// MultiLimiter manages multiple rate limiters for different services
type MultiLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewMultiLimiter creates a new multi-limiter
func NewMultiLimiter() *MultiLimiter {
	return &MultiLimiter{
		limiters: make(map[string]*rate.Limiter),
	}
}

// AddLimiter adds a new rate limiter for a service
// requestsPerSecond: the rate limit (e.g., 10 means 10 requests per second)
// burst: maximum burst size
func (m *MultiLimiter) AddLimiter(name string, requestsPerSecond float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Wait blocks until the limiter allows an event
func (m *MultiLimiter) Wait(ctx context.Context, name string) error {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("limiter %s not found", name)
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event may happen now
func (m *MultiLimiter) Allow(name string) bool {
	m.mu.RLock()
	limiter, ok := m.limiters[name]
	m.mu.RUnlock()

	if !ok {
		return false
	}

	return limiter.Allow()
}

// Rate limiter names
const (
	LimiterAnthropic = "anthropic"
	LimiterSearch    = "search"
	LimiterRSS       = "rss"
)

// Limits configures the per-service budgets used by NewLimiter
type Limits struct {
	AnthropicRequestsPerMinute int
	SearchRequestsPerMinute    int
}

// NewLimiter creates a limiter from configured per-minute budgets
// Zero values fall back to the defaults of NewDefaultLimiter
func NewLimiter(l Limits) *MultiLimiter {
	m := NewMultiLimiter()

	anthropicRPM := l.AnthropicRequestsPerMinute
	if anthropicRPM <= 0 {
		anthropicRPM = 10
	}
	searchRPM := l.SearchRequestsPerMinute
	if searchRPM <= 0 {
		searchRPM = 30
	}

	m.AddLimiter(LimiterAnthropic, float64(anthropicRPM)/60, 2)
	m.AddLimiter(LimiterSearch, float64(searchRPM)/60, 5)

	// RSS: no strict limit, but be polite - 1 per second, burst 10
	m.AddLimiter(LimiterRSS, 1, 10)

	return m
}

// NewDefaultLimiter creates a limiter with default rate limits
func NewDefaultLimiter() *MultiLimiter {
	return NewLimiter(Limits{})
}
