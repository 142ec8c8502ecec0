package http

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RequestLogger registra cada petición con request id, status y latencia.
// Debe montarse después del middleware requestid.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		ev := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			ev = log.Error()
		case status >= fiber.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Interface("request_id", c.Locals("requestid")).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.IP()).
			Str("company_id", GetCompanyID(c)).
			Msg("http request")
		return err
	}
}

// RequestTimeout acota el contexto de usuario de cada petición.
// Los handlers deben usar c.UserContext() para propagarlo.
func RequestTimeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// TenantRateLimiter limita peticiones por empresa con un token bucket por tenant.
type TenantRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	entryTTL time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTenantRateLimiter crea el limitador y arranca la limpieza de entradas inactivas.
func NewTenantRateLimiter(rps float64, burst int) *TenantRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	rl := &TenantRateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(rps),
		burst:    burst,
		entryTTL: 10 * time.Minute,
		stop:     make(chan struct{}),
	}
	go rl.cleanupLoop(5 * time.Minute)
	return rl
}

// Stop detiene la limpieza en segundo plano.
func (rl *TenantRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *TenantRateLimiter) limiterFor(companyID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	entry, exists := rl.limiters[companyID]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[companyID] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

func (rl *TenantRateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now().Add(-rl.entryTTL))
		case <-rl.stop:
			return
		}
	}
}

func (rl *TenantRateLimiter) cleanup(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for id, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, id)
		}
	}
}

// Middleware aplica el límite del tenant del token. Debe ir después de AuthMiddleware.
func (rl *TenantRateLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID := GetCompanyID(c)
		if companyID == "" {
			return c.Next()
		}
		limiter := rl.limiterFor(companyID)
		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		if !limiter.Allow() {
			c.Set("X-RateLimit-Remaining", "0")
			c.Set("Retry-After", "1")
			return fail(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "demasiadas peticiones, intente más tarde")
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
		return c.Next()
	}
}
