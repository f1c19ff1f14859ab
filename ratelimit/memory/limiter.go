package memorylimiter

import (
	"fmt"
	"sync"
	"time"
)

// Limit defines window and max count for a bucket. Limit <= 0 disables the bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// PerMinute is shorthand for n requests per minute.
func PerMinute(n int) Limit { return Limit{Limit: n, Window: time.Minute} }

// Limiter is an in-memory sliding-window rate limiter keyed by bucket and caller.
// Buckets without a configured limit are not limited.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	windows map[string][]time.Time
	now     func() time.Time
}

func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{limits: limits, windows: make(map[string][]time.Time), now: time.Now}
}

// AllowNamed records one request for key in bucket and reports whether it fits the window.
// Denied requests are not recorded.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}
	lim, ok := l.limits[bucket]
	if !ok || lim.Limit <= 0 || lim.Window <= 0 {
		return true, nil
	}

	now := l.now()
	cutoff := now.Add(-lim.Window)
	k := bucket + ":" + key

	l.mu.Lock()
	defer l.mu.Unlock()

	valid := l.windows[k][:0]
	for _, t := range l.windows[k] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) >= lim.Limit {
		l.windows[k] = valid
		return false, nil
	}
	l.windows[k] = append(valid, now)
	return true, nil
}

// Prune drops windows with no request newer than their bucket window.
func (l *Limiter) Prune() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for k, ts := range l.windows {
		if len(ts) == 0 {
			delete(l.windows, k)
			continue
		}
		newest := ts[len(ts)-1]
		if now.Sub(newest) > l.maxWindow() {
			delete(l.windows, k)
		}
	}
}

func (l *Limiter) maxWindow() time.Duration {
	var m time.Duration
	for _, lim := range l.limits {
		if lim.Window > m {
			m = lim.Window
		}
	}
	return m
}
