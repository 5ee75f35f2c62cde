package push

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// scriptedFeedSource returns one prepared result per call, repeating the last
// entry when the script runs out.
type scriptedFeedSource struct {
	mu      sync.Mutex
	results []feedResult
	calls   int
}

type feedResult struct {
	feed models.NotificationFeed
	err  error
}

func (s *scriptedFeedSource) Feed(_ context.Context, _ string, _ int) (models.NotificationFeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.calls
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	s.calls++
	r := s.results[idx]
	return r.feed, r.err
}

func feedWith(total int, ids ...string) models.NotificationFeed {
	notifications := make([]models.NotificationSummary, 0, len(ids))
	for _, id := range ids {
		notifications = append(notifications, models.NotificationSummary{ID: id, CreatedAt: time.Now()})
	}
	return models.NotificationFeed{Notifications: notifications, Total: total}
}

func runSession(t *testing.T, feeds FeedSource, channel Channel, pollInterval time.Duration) (*Registry, context.CancelFunc, chan struct{}) {
	t.Helper()
	registry := newTestRegistry(3)
	session := NewSession(registry, feeds, "u1", channel, SessionConfig{PollInterval: pollInterval, FeedLimit: 5}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		session.Run(ctx)
		close(finished)
	}()
	return registry, cancel, finished
}

func waitFrames(t *testing.T, ch *fakeChannel, n int) []interface{} {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		frames := ch.sentFrames()
		if len(frames) >= n {
			return frames
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d frames, have %d", n, len(ch.sentFrames()))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSessionEmitsConnectionThenInitial(t *testing.T) {
	feeds := &scriptedFeedSource{results: []feedResult{{feed: feedWith(1, "n1")}}}
	channel := newFakeChannel()
	registry, cancel, finished := runSession(t, feeds, channel, time.Hour)
	defer cancel()

	frames := waitFrames(t, channel, 2)

	conn, ok := frames[0].(ConnectionFrame)
	if !ok {
		t.Fatalf("first frame should be ConnectionFrame, got %T", frames[0])
	}
	if conn.Status != "connected" || conn.ConnectionCount != 1 {
		t.Fatalf("unexpected connection frame %+v", conn)
	}

	initial, ok := frames[1].(FeedFrame)
	if !ok {
		t.Fatalf("second frame should be FeedFrame, got %T", frames[1])
	}
	if initial.Type != FrameTypeInitial || initial.Total != 1 || len(initial.Notifications) != 1 {
		t.Fatalf("unexpected initial frame %+v", initial)
	}

	if got := registry.ConnectionCount("u1"); got != 1 {
		t.Fatalf("session should be registered, count = %d", got)
	}

	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop on context cancel")
	}
	if got := registry.ConnectionCount("u1"); got != 0 {
		t.Fatalf("session should unregister on close, count = %d", got)
	}
}

func TestSessionPushesUpdatesOnlyWhenUnread(t *testing.T) {
	feeds := &scriptedFeedSource{results: []feedResult{
		{feed: feedWith(0)},           // initial snapshot: empty but always sent
		{feed: feedWith(0)},           // first poll: nothing unread, suppressed
		{feed: feedWith(2, "a", "b")}, // second poll: pushed
	}}
	channel := newFakeChannel()
	_, cancel, _ := runSession(t, feeds, channel, 10*time.Millisecond)
	defer cancel()

	frames := waitFrames(t, channel, 3)

	initial := frames[1].(FeedFrame)
	if initial.Type != FrameTypeInitial || initial.Total != 0 {
		t.Fatalf("unexpected initial frame %+v", initial)
	}

	update, ok := frames[2].(FeedFrame)
	if !ok {
		t.Fatalf("expected FeedFrame update, got %T", frames[2])
	}
	if update.Type != FrameTypeUpdate || update.Total != 2 {
		t.Fatalf("unexpected update frame %+v", update)
	}
}

func TestSessionSurvivesTransientFeedErrors(t *testing.T) {
	feeds := &scriptedFeedSource{results: []feedResult{
		{feed: feedWith(1, "n1")},
		{err: errors.New("db down")},
		{feed: feedWith(1, "n1")},
	}}
	channel := newFakeChannel()
	_, cancel, _ := runSession(t, feeds, channel, 10*time.Millisecond)
	defer cancel()

	frames := waitFrames(t, channel, 4)

	errFrame, ok := frames[2].(ErrorFrame)
	if !ok {
		t.Fatalf("expected ErrorFrame after feed failure, got %T", frames[2])
	}
	if errFrame.Type != FrameTypeError || errFrame.Message == "" {
		t.Fatalf("unexpected error frame %+v", errFrame)
	}

	// the session keeps polling after the error
	update, ok := frames[3].(FeedFrame)
	if !ok {
		t.Fatalf("expected FeedFrame after recovery, got %T", frames[3])
	}
	if update.Type != FrameTypeUpdate {
		t.Fatalf("unexpected frame type %q", update.Type)
	}
}

func TestSessionStopsWhenChannelClosed(t *testing.T) {
	feeds := &scriptedFeedSource{results: []feedResult{{feed: feedWith(0)}}}
	channel := newFakeChannel()
	registry, cancel, finished := runSession(t, feeds, channel, time.Hour)
	defer cancel()

	waitFrames(t, channel, 2)

	// eviction path: the registry closes the channel out from under the session
	channel.Close()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop when its channel closed")
	}
	if got := registry.ConnectionCount("u1"); got != 0 {
		t.Fatalf("session should unregister after eviction, count = %d", got)
	}
}

func TestSessionEvictionScenario(t *testing.T) {
	feeds := &scriptedFeedSource{results: []feedResult{{feed: feedWith(0)}}}
	registry := newTestRegistry(3)

	open := func() (*fakeChannel, chan struct{}) {
		ch := newFakeChannel()
		session := NewSession(registry, feeds, "u1", ch, SessionConfig{PollInterval: time.Hour, FeedLimit: 5}, zerolog.Nop())
		finished := make(chan struct{})
		go func() {
			session.Run(context.Background())
			close(finished)
		}()
		waitFrames(t, ch, 2)
		return ch, finished
	}

	c1, f1 := open()
	c2, _ := open()
	c3, _ := open()
	c4, _ := open()

	select {
	case <-f1:
	case <-time.After(2 * time.Second):
		t.Fatal("oldest session did not end after eviction")
	}
	if got := registry.ConnectionCount("u1"); got != 3 {
		t.Fatalf("expected 3 connections after eviction, got %d", got)
	}
	if !c1.isClosed() {
		t.Fatal("first channel should be closed")
	}
	for i, ch := range []*fakeChannel{c2, c3, c4} {
		if ch.isClosed() {
			t.Fatalf("channel %d should still be open", i+2)
		}
	}
}
