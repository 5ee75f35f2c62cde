// Package bell is the client side of the notification push stream: it
// consumes the server-sent event feed, reconnects with backoff when the
// stream drops, and keeps a deduplicated local view of the notification bell.
package bell

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Notification mirrors the summary entries pushed over the stream.
type Notification struct {
	ID             string    `json:"id"`
	ComplaintID    string    `json:"complaintId"`
	Subject        string    `json:"subject"`
	TrackingNumber string    `json:"trackingNumber"`
	Priority       string    `json:"priority"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	IsRead         bool      `json:"isRead"`
}

// Event is one decoded frame from the stream. Which fields are set depends on
// Type; unknown types are dropped before they reach the consumer.
type Event struct {
	Type            string         `json:"type"`
	Status          string         `json:"status,omitempty"`
	ConnectionCount int            `json:"connectionCount,omitempty"`
	Notifications   []Notification `json:"notifications,omitempty"`
	Total           int            `json:"total,omitempty"`
	Timestamp       string         `json:"timestamp,omitempty"`
	Message         string         `json:"message,omitempty"`
	Reason          string         `json:"reason,omitempty"`
}

const (
	eventConnection = "connection"
	eventInitial    = "initial"
	eventUpdate     = "update"
	eventHeartbeat  = "heartbeat"
	eventError      = "error"
	eventDisconnect = "disconnect"
)

// ErrEvicted is returned by Run after the server sends a disconnect frame,
// which it does when the user opened newer connections past the cap. The
// client must not reconnect: every reconnect would just evict another of the
// user's own channels.
var ErrEvicted = errors.New("bell: connection evicted by server")

// Bell maintains the local notification state for one user session.
type Bell struct {
	baseURL    string
	token      string
	httpClient *http.Client

	initialBackoff time.Duration
	maxBackoff     time.Duration

	mu     sync.Mutex
	items  []Notification
	unread int
	// read holds ids the user marked read locally, so a stale snapshot
	// arriving before the server observed the mutation cannot flip an item
	// back to unread.
	read map[string]struct{}

	events chan Event
}

// New creates a bell client. The token authenticates the stream and the
// mutation calls.
func New(baseURL, token string) *Bell {
	return &Bell{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		initialBackoff: time.Second,
		maxBackoff:     30 * time.Second,
		read:           make(map[string]struct{}),
		events:         make(chan Event, 16),
	}
}

// Events exposes decoded frames as they arrive. The channel is closed when
// Run returns.
func (b *Bell) Events() <-chan Event {
	return b.events
}

// Snapshot returns the current deduplicated notification list.
func (b *Bell) Snapshot() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := make([]Notification, len(b.items))
	copy(items, b.items)
	return items
}

// Unread returns the server-reported unread total, adjusted for local reads
// the server has not confirmed yet.
func (b *Bell) Unread() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unread
}

// Run consumes the stream until ctx is cancelled, reconnecting with
// exponential backoff after every drop. A healthy connection resets the
// backoff. An eviction disconnect ends Run with ErrEvicted instead of
// reconnecting.
func (b *Bell) Run(ctx context.Context) error {
	defer close(b.events)

	backoff := b.initialBackoff
	for {
		healthy, err := b.stream(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrEvicted) {
			return err
		}
		if healthy {
			backoff = b.initialBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > b.maxBackoff {
			backoff = b.maxBackoff
		}
	}
}

// stream opens one connection and pumps events until it drops. The healthy
// return reports whether at least one frame was received.
func (b *Bell) stream(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/notifications/stream", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	req.Header.Set("Accept", "text/event-stream")

	// The stream client deliberately has no timeout; the server's heartbeat
	// keeps the connection from idling out.
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, &HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	healthy := false
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var event Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
			continue
		}
		healthy = true

		switch event.Type {
		case eventInitial, eventUpdate:
			b.apply(event)
		case eventConnection, eventHeartbeat, eventError:
			// surfaced to the consumer as-is
		case eventDisconnect:
			b.emit(event)
			return healthy, ErrEvicted
		default:
			// unknown future frame type, ignore
			continue
		}

		b.emit(event)
	}
	return healthy, scanner.Err()
}

// apply merges a snapshot into the local state, deduplicating by id and
// preserving local read marks.
func (b *Bell) apply(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[string]struct{}, len(event.Notifications))
	items := make([]Notification, 0, len(event.Notifications))
	unread := event.Total
	for _, n := range event.Notifications {
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		if _, read := b.read[n.ID]; read && !n.IsRead {
			n.IsRead = true
			if unread > 0 {
				unread--
			}
		}
		items = append(items, n)
	}
	b.items = items
	b.unread = unread
}

func (b *Bell) emit(event Event) {
	select {
	case b.events <- event:
	default:
		// consumer is not keeping up; drop rather than stall the stream
	}
}

// MarkRead flags one notification read locally, then confirms to the server.
func (b *Bell) MarkRead(ctx context.Context, id string) error {
	b.mu.Lock()
	b.read[id] = struct{}{}
	for i := range b.items {
		if b.items[i].ID == id && !b.items[i].IsRead {
			b.items[i].IsRead = true
			if b.unread > 0 {
				b.unread--
			}
		}
	}
	b.mu.Unlock()

	return b.post(ctx, fmt.Sprintf("/api/notifications/%s/read", id))
}

// MarkAllRead clears the unread state locally and on the server.
func (b *Bell) MarkAllRead(ctx context.Context) error {
	b.mu.Lock()
	for i := range b.items {
		b.read[b.items[i].ID] = struct{}{}
		b.items[i].IsRead = true
	}
	b.unread = 0
	b.mu.Unlock()

	return b.post(ctx, "/api/notifications/read-all")
}

// Delete removes the notification locally and soft-deletes it on the server.
func (b *Bell) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	for i := range b.items {
		if b.items[i].ID == id {
			if !b.items[i].IsRead && b.unread > 0 {
				b.unread--
			}
			b.items = append(b.items[:i], b.items[i+1:]...)
			break
		}
	}
	b.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, b.baseURL+"/api/notifications/"+id, nil)
	if err != nil {
		return err
	}
	return b.do(req)
}

func (b *Bell) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(nil))
	if err != nil {
		return err
	}
	return b.do(req)
}

func (b *Bell) do(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+b.token)
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}
	return nil
}
