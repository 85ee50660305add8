package cache

import (
	"testing"
	"time"

	"github.com/crlsmrls/lixservice/internal/domain"
)

func TestTTLFor_SizeClasses(t *testing.T) {
	cases := map[domain.SizeClass]time.Duration{
		domain.SizeSmall:  7200 * time.Second,
		domain.SizeMedium: 3600 * time.Second,
		domain.SizeLarge:  1800 * time.Second,
		domain.SizeHuge:   1800 * time.Second,
	}
	for class, want := range cases {
		if got := TTLFor(class); got != want {
			t.Errorf("TTLFor(%v) = %v, want %v", class, got, want)
		}
	}
}

func TestNew_DoesNotDialEagerly(t *testing.T) {
	// Dialing is lazy in redigo: constructing a Cache against an
	// unreachable host must not block or panic.
	c := New(Config{Host: "127.0.0.1", Port: "1"})
	defer c.Close()

	if c.Stats() != (Stats{}) {
		t.Errorf("expected zero stats on a fresh cache, got %+v", c.Stats())
	}
}

func TestGetAnalysis_DegradesOnUnreachableRedis(t *testing.T) {
	c := New(Config{Host: "127.0.0.1", Port: "1"})
	defer c.Close()

	_, ok := c.GetAnalysis("deadbeef")
	if ok {
		t.Fatalf("expected a miss-shaped failure against an unreachable host")
	}
	if c.Stats().Errors == 0 {
		t.Errorf("expected error counter to increment on dependency failure")
	}
}
