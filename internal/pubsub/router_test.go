package pubsub

import (
	"context"
	"testing"
	"time"
)

func TestNew_DoesNotDialEagerly(t *testing.T) {
	r := New(Config{Host: "127.0.0.1", Port: "1"}, "lixservice", "lix")
	if r.Snapshot().ConnState != ConnUnknown {
		t.Errorf("expected unknown connection state before any operation")
	}
}

func TestPublish_DegradesOnUnreachableRedis(t *testing.T) {
	r := New(Config{Host: "127.0.0.1", Port: "1"}, "lixservice", "lix")
	err := r.Publish(context.Background(), "lix", []byte(`{}`))
	if err == nil {
		t.Fatal("expected publish against an unreachable redis to fail")
	}
	snap := r.Snapshot()
	if snap.Errors == 0 {
		t.Errorf("expected error counter incremented")
	}
	if snap.LastError == nil || snap.LastError.Type != "publish" {
		t.Errorf("expected last error recorded as a publish failure, got %+v", snap.LastError)
	}
}

func TestRegisterHandler_DispatchesToMatchingChannel(t *testing.T) {
	r := New(Config{Host: "127.0.0.1", Port: "1"}, "lixservice", "lix")

	called := false
	r.RegisterHandler("lix", func(ctx context.Context, env Envelope) (any, error) {
		called = true
		return map[string]any{"lix": 42.0}, nil
	})

	raw := []byte(`{"clientId":"c1","requestId":"r1","text":"hallo"}`)
	r.dispatch(context.Background(), "lix", raw)

	if !called {
		t.Fatal("expected registered handler to be invoked")
	}
	// Reply attempt goes through Publish against an unreachable redis, so it
	// degrades to a recorded error rather than panicking.
	if r.Snapshot().Consumed != 1 {
		t.Errorf("expected consumed counter incremented")
	}
}

func TestDispatch_UnregisteredChannelIsInert(t *testing.T) {
	r := New(Config{Host: "127.0.0.1", Port: "1"}, "lixservice", "lix")
	raw := []byte(`{"clientId":"c1","requestId":"r1","text":"hallo"}`)
	r.dispatch(context.Background(), "grammar", raw)
	if r.Snapshot().Errors != 0 {
		t.Errorf("expected no errors for an unregistered channel")
	}
}

func TestHandleHeartbeat_IgnoresNonPing(t *testing.T) {
	r := New(Config{Host: "127.0.0.1", Port: "1"}, "lixservice", "lix")
	r.handleHeartbeat(context.Background(), []byte(`{"action":"pong"}`))
	if r.Snapshot().Published != 0 {
		t.Errorf("expected non-ping heartbeat messages to be ignored")
	}
}

func TestNextBackoff_CapsAtMax(t *testing.T) {
	d := reconnectBase
	for i := 0; i < 20; i++ {
		d = nextBackoff(d)
	}
	if d != reconnectMax {
		t.Errorf("expected backoff to cap at %v, got %v", reconnectMax, d)
	}
}

func TestWithMetricsFunc_UsedInHeartbeatPong(t *testing.T) {
	r := New(Config{Host: "127.0.0.1", Port: "1"}, "lixservice", "lix")
	called := false
	r.WithMetricsFunc(func() map[string]any {
		called = true
		return map[string]any{"cache_hit_ratio": 0.9}
	})
	r.handleHeartbeat(context.Background(), []byte(`{"action":"ping"}`))
	if !called {
		t.Fatal("expected metrics func to be consulted when answering a ping")
	}
}

func TestStop_IsIdempotent(t *testing.T) {
	r := New(Config{Host: "127.0.0.1", Port: "1"}, "lixservice", "lix")
	done := make(chan struct{})
	go func() {
		r.Stop(context.Background())
		r.Stop(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected Stop to be idempotent and return promptly")
	}
}
