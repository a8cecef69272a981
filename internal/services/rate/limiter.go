package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const signInWindow = time.Minute

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter throttles sign-in attempts per client address. One fixed window
// per address; the counter lives in redis so every instance shares it.
type Limiter struct {
	store     WindowStore
	perMinute int
}

func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
	}
}

// AllowSignIn reports whether another attempt from addr is allowed and, when
// blocked, how many seconds to wait before retrying. A zero limit disables
// throttling.
func (l *Limiter) AllowSignIn(ctx context.Context, addr string) (int64, bool, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return 0, false, fmt.Errorf("invalid client address")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}
	if l.perMinute == 0 {
		return 0, true, nil
	}

	count, ttl, err := l.store.IncrementWindow(ctx, signInKey(addr), signInWindow)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.perMinute) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

func signInKey(addr string) string {
	return "rate:signin:" + addr
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	secs := int64(d / time.Second)
	if d%time.Second > 0 {
		secs++
	}
	return secs
}
