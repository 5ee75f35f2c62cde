package push

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/pkg/errors"
)

// ErrChannelClosed is returned by Send after a channel has been closed.
var ErrChannelClosed = errors.New("channel closed")

// Channel is one open server-to-client push connection. Send must be safe to
// call from multiple goroutines: the session's poll loop and the heartbeat
// scheduler both write to the same channel.
type Channel interface {
	Send(frame interface{}) error
	// Close signals the owning session to stop. Idempotent.
	Close()
	Done() <-chan struct{}
}

// sseChannel writes frames in the text/event-stream format, one
// "data: <json>\n\n" event per frame.
type sseChannel struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	done    chan struct{}
	closed  bool
}

func NewSSEChannel(w io.Writer, flusher http.Flusher) Channel {
	return &sseChannel{
		w:       w,
		flusher: flusher,
		done:    make(chan struct{}),
	}
}

func (c *sseChannel) Send(frame interface{}) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return errors.Wrap(err, "marshal frame")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	if _, err := fmt.Fprintf(c.w, "data: %s\n\n", payload); err != nil {
		return errors.Wrap(err, "write frame")
	}
	c.flusher.Flush()
	return nil
}

func (c *sseChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
}

func (c *sseChannel) Done() <-chan struct{} {
	return c.done
}
