package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimitType string

const (
	RateLimitTypeDefault         RateLimitType = "default"
	RateLimitTypePublic          RateLimitType = "public"
	RateLimitTypeBooking         RateLimitType = "booking"
	RateLimitTypeBookingCritical RateLimitType = "booking_critical"
	RateLimitTypeAdmin           RateLimitType = "admin"
)

// Config holds rate limiting configuration per endpoint tier
type Config struct {
	Enabled                 bool          `json:"enabled"`
	WindowDuration          time.Duration `json:"window_duration"`
	DefaultRequests         int           `json:"default_requests"`
	PublicRequests          int           `json:"public_requests"`
	BookingRequests         int           `json:"booking_requests"`
	BookingCriticalRequests int           `json:"booking_critical_requests"`
	AdminRequests           int           `json:"admin_requests"`
	WhitelistedIPs          []string      `json:"whitelisted_ips"`
}

// Result represents rate limit check result
type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// RateLimiter handles rate limiting using Redis fixed windows
type RateLimiter struct {
	client *redis.Client
	config *Config
}

func NewRateLimiter(client *redis.Client, config *Config) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// limitFor maps a tier to its per-window request budget
func (rl *RateLimiter) limitFor(limitType RateLimitType) int {
	switch limitType {
	case RateLimitTypePublic:
		return rl.config.PublicRequests
	case RateLimitTypeBooking:
		return rl.config.BookingRequests
	case RateLimitTypeBookingCritical:
		return rl.config.BookingCriticalRequests
	case RateLimitTypeAdmin:
		return rl.config.AdminRequests
	default:
		return rl.config.DefaultRequests
	}
}

// IsWhitelisted checks whether an IP bypasses rate limiting
func (rl *RateLimiter) IsWhitelisted(ip string) bool {
	for _, whitelisted := range rl.config.WhitelistedIPs {
		if whitelisted == ip {
			return true
		}
	}
	return false
}

// Check increments the caller's counter for the current window and reports
// whether the request is allowed. Redis unavailability fails open: blocking
// traffic because the limiter store is down would be worse than not limiting.
func (rl *RateLimiter) Check(ctx context.Context, identifier string, limitType RateLimitType) (*Result, error) {
	limit := rl.limitFor(limitType)
	window := rl.config.WindowDuration
	windowStart := time.Now().Truncate(window)

	key := fmt.Sprintf("ratelimit:%s:%s:%d", limitType, identifier, windowStart.Unix())

	pipe := rl.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: windowStart.Add(window).Unix(),
		}, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: windowStart.Add(window).Unix(),
	}, nil
}
