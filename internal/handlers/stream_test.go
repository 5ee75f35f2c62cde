package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/civicdesk/civicdesk-api/internal/config"
	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/civicdesk/civicdesk-api/internal/push"
	"github.com/rs/zerolog"
)

// safeRecorder is an http.ResponseWriter the test can read while the
// session goroutine is still writing.
type safeRecorder struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	header http.Header
	code   int
}

func newSafeRecorder() *safeRecorder {
	return &safeRecorder{header: make(http.Header), code: http.StatusOK}
}

func (r *safeRecorder) Header() http.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header
}

func (r *safeRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *safeRecorder) WriteHeader(code int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.code = code
}

func (r *safeRecorder) Flush() {}

func (r *safeRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func (r *safeRecorder) contentType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header.Get("Content-Type")
}

func newStreamHandler(svc *fakeNotificationService) (*StreamHandler, *push.Registry) {
	registry := push.NewRegistry(3, zerolog.Nop())
	cfg := config.PushConfig{PollInterval: time.Hour, FeedLimit: 5}
	return NewStreamHandler(registry, svc, cfg, zerolog.Nop()), registry
}

func TestStreamRejectsUnauthenticated(t *testing.T) {
	h, registry := newStreamHandler(&fakeNotificationService{})

	rec := httptest.NewRecorder()
	h.Stream(rec, httptest.NewRequest(http.MethodGet, "/api/notifications/stream", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before any registry interaction, got %d", rec.Code)
	}
	if registry.TotalConnections() != 0 {
		t.Fatal("an unauthenticated request must never register a channel")
	}
}

func TestStreamEmitsConnectionAndInitialFrames(t *testing.T) {
	svc := &fakeNotificationService{feed: models.NotificationFeed{
		Notifications: []models.NotificationSummary{{ID: "n1", Subject: "Pothole", TrackingNumber: "CMP-12345678"}},
		Total:         1,
	}}
	h, registry := newStreamHandler(svc)

	req := authedRequest(http.MethodGet, "/api/notifications/stream", nil)
	ctx, cancel := context.WithCancel(req.Context())
	req = req.WithContext(ctx)

	rec := newSafeRecorder()
	done := make(chan struct{})
	go func() {
		h.Stream(rec, req)
		close(done)
	}()

	waitFor(t, func() bool { return registry.ConnectionCount("user-1") == 1 })
	waitFor(t, func() bool { return strings.Count(rec.body(), "data: ") >= 2 })

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client disconnect")
	}
	if registry.TotalConnections() != 0 {
		t.Fatal("channel should be unregistered after disconnect")
	}

	if ct := rec.contentType(); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	frames := decodeFrames(t, rec.body())
	if len(frames) < 2 {
		t.Fatalf("expected at least 2 frames, got %d", len(frames))
	}
	if frames[0]["type"] != "connection" {
		t.Fatalf("first frame should be connection, got %v", frames[0]["type"])
	}
	if frames[0]["connectionCount"] != float64(1) {
		t.Fatalf("unexpected connection count %v", frames[0]["connectionCount"])
	}
	if frames[1]["type"] != "initial" {
		t.Fatalf("second frame should be initial, got %v", frames[1]["type"])
	}
	if frames[1]["total"] != float64(1) {
		t.Fatalf("unexpected total %v", frames[1]["total"])
	}
}

func decodeFrames(t *testing.T, body string) []map[string]interface{} {
	t.Helper()
	var frames []map[string]interface{}
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame map[string]interface{}
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("invalid frame %q: %v", line, err)
		}
		frames = append(frames, frame)
	}
	return frames
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
