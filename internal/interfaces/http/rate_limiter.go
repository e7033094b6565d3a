package http

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/jhoicas/clinica-api/internal/application/dto"
)

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiterStore token bucket por cliente. Lo crea y posee quien arma el router:
// no hay estado de paquete.
type RateLimiterStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

// NewRateLimiterStore rps peticiones por segundo con ráfaga burst por cliente.
func NewRateLimiterStore(rps float64, burst int) *RateLimiterStore {
	return &RateLimiterStore{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		ttl:     5 * time.Minute,
		now:     time.Now,
	}
}

// Allow consume un token del cliente key.
func (s *RateLimiterStore) Allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(s.limit, s.burst)}
		s.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}

// Sweep elimina los clientes inactivos por más de ttl. Devuelve cuántos quitó.
func (s *RateLimiterStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for k, b := range s.buckets {
		if now.Sub(b.seen) > s.ttl {
			delete(s.buckets, k)
			n++
		}
	}
	return n
}

// RunSweeper ejecuta Sweep cada interval hasta que ctx se cancele.
func (s *RateLimiterStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len clientes con bucket vivo.
func (s *RateLimiterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// RateLimit responde 429 cuando el cliente (IP) agota su bucket.
func RateLimit(store *RateLimiterStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.IP()
		if key == "" {
			key = "unknown"
		}
		if !store.Allow(key) {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas peticiones"})
		}
		return c.Next()
	}
}
