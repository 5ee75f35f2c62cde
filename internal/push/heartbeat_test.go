package push

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestHeartbeatBroadcastsOnInterval(t *testing.T) {
	registry := newTestRegistry(3)
	ch := newFakeChannel()
	registry.Register("u1", ch)

	heartbeat := NewHeartbeat(registry, 10*time.Millisecond, zerolog.Nop())
	heartbeat.Start()
	defer heartbeat.Stop()

	waitFrames(t, ch, 2)

	for i, frame := range ch.sentFrames()[:2] {
		hb, ok := frame.(HeartbeatFrame)
		if !ok {
			t.Fatalf("frame %d: expected HeartbeatFrame, got %T", i, frame)
		}
		if hb.Type != FrameTypeHeartbeat {
			t.Fatalf("frame %d: unexpected type %q", i, hb.Type)
		}
	}
}

func TestHeartbeatStopTerminatesLoop(t *testing.T) {
	registry := newTestRegistry(3)
	heartbeat := NewHeartbeat(registry, time.Millisecond, zerolog.Nop())
	heartbeat.Start()

	done := make(chan struct{})
	go func() {
		heartbeat.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
