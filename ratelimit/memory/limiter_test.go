package memorylimiter

import (
	"testing"
	"time"
)

func TestAllowNamedWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(map[string]Limit{"update_vip": {Limit: 2, Window: time.Minute}})
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, err := l.AllowNamed("update_vip", "10.0.0.1"); !ok || err != nil {
			t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := l.AllowNamed("update_vip", "10.0.0.1"); ok {
		t.Fatal("third request inside window must be denied")
	}
	if ok, _ := l.AllowNamed("update_vip", "10.0.0.2"); !ok {
		t.Fatal("other callers are independent")
	}

	now = now.Add(61 * time.Second)
	if ok, _ := l.AllowNamed("update_vip", "10.0.0.1"); !ok {
		t.Fatal("window should have slid")
	}
}

func TestUnconfiguredAndDisabledBuckets(t *testing.T) {
	l := New(map[string]Limit{"get_role": PerMinute(0)})
	for i := 0; i < 100; i++ {
		if ok, _ := l.AllowNamed("get_role", "u"); !ok {
			t.Fatal("disabled bucket must allow")
		}
		if ok, _ := l.AllowNamed("other", "u"); !ok {
			t.Fatal("unconfigured bucket must allow")
		}
	}
}

func TestAllowNamedRequiresKey(t *testing.T) {
	if _, err := New(nil).AllowNamed("get_role", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
	var nilLimiter *Limiter
	if ok, _ := nilLimiter.AllowNamed("a", "b"); !ok {
		t.Fatal("nil limiter allows")
	}
}

func TestPrune(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(map[string]Limit{"get_role": PerMinute(5)})
	l.now = func() time.Time { return now }
	_, _ = l.AllowNamed("get_role", "u1")
	now = now.Add(2 * time.Minute)
	l.Prune()
	if len(l.windows) != 0 {
		t.Fatalf("expected pruned windows, got %d", len(l.windows))
	}
}
