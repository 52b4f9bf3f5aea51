package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter giữ một token bucket cho mỗi key (user id hoặc IP)
type KeyedLimiter struct {
	visitors map[string]*visitor
	mtx      sync.Mutex
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

// NewPerMinute tạo limiter cho phép perMinute requests/phút, burst tối đa
func NewPerMinute(perMinute, burst int) *KeyedLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	return &KeyedLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow tiêu thụ một token của key, false nếu bucket đã cạn
func (l *KeyedLimiter) Allow(key string) bool {
	now := l.now()

	l.mtx.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.mtx.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Cleanup xoá visitor không hoạt động quá idleTTL
func (l *KeyedLimiter) Cleanup() {
	cutoff := l.now().Add(-l.idleTTL)

	l.mtx.Lock()
	defer l.mtx.Unlock()
	for key, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, key)
		}
	}
}

// RunCleanup chạy Cleanup định kỳ cho đến khi stop bị đóng
func (l *KeyedLimiter) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-stop:
			return
		}
	}
}
