package push

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry tracks the open push channels per user and fans messages out to
// them. It is constructed once at startup and shared by every stream handler,
// so all map access is mutex-guarded. Channels are kept in registration order;
// the slice head is always the oldest, which is the eviction victim when a
// user exceeds the connection cap.
type Registry struct {
	mu         sync.Mutex
	conns      map[string][]Channel
	maxPerUser int
	logger     zerolog.Logger
}

func NewRegistry(maxPerUser int, logger zerolog.Logger) *Registry {
	if maxPerUser <= 0 {
		maxPerUser = 3
	}
	return &Registry{
		conns:      make(map[string][]Channel),
		maxPerUser: maxPerUser,
		logger:     logger.With().Str("component", "push_registry").Logger(),
	}
}

// Register admits a channel for the user. If the user is at the cap, the
// oldest channel is told to disconnect and closed first, so registration
// always succeeds. Victims are spliced out under the lock but notified after
// it is released; a victim with a stalled write must not block the registry.
func (r *Registry) Register(userID string, ch Channel) {
	r.mu.Lock()
	conns := r.conns[userID]
	var evicted []Channel
	for len(conns) >= r.maxPerUser {
		evicted = append(evicted, conns[0])
		conns = conns[1:]
	}
	r.conns[userID] = append(conns, ch)
	r.mu.Unlock()

	for _, victim := range evicted {
		// Best effort: the victim may already be broken.
		_ = victim.Send(DisconnectFrame{Type: FrameTypeDisconnect, Reason: "connection limit reached"})
		victim.Close()
		r.logger.Info().Str("user_id", userID).Msg("evicted oldest push channel")
	}
}

// Unregister removes the channel. Users with no channels left are dropped
// from the map entirely.
func (r *Registry) Unregister(userID string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conns := r.conns[userID]
	for i, c := range conns {
		if c == ch {
			conns = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(conns) == 0 {
		delete(r.conns, userID)
	} else {
		r.conns[userID] = conns
	}
}

// Send delivers the frame to every channel registered for the user. Channels
// that fail are unregistered after the loop finishes.
func (r *Registry) Send(userID string, frame interface{}) {
	r.mu.Lock()
	conns := make([]Channel, len(r.conns[userID]))
	copy(conns, r.conns[userID])
	r.mu.Unlock()

	var broken []Channel
	for _, ch := range conns {
		if err := ch.Send(frame); err != nil {
			broken = append(broken, ch)
		}
	}
	for _, ch := range broken {
		ch.Close()
		r.Unregister(userID, ch)
	}
}

// BroadcastHeartbeat sends a heartbeat frame to every registered channel
// across all users, defeating idle timeouts on intermediary proxies.
func (r *Registry) BroadcastHeartbeat() {
	frame := NewHeartbeatFrame(time.Now())

	r.mu.Lock()
	snapshot := make(map[string][]Channel, len(r.conns))
	for userID, conns := range r.conns {
		copied := make([]Channel, len(conns))
		copy(copied, conns)
		snapshot[userID] = copied
	}
	r.mu.Unlock()

	for userID, conns := range snapshot {
		var broken []Channel
		for _, ch := range conns {
			if err := ch.Send(frame); err != nil {
				broken = append(broken, ch)
			}
		}
		for _, ch := range broken {
			ch.Close()
			r.Unregister(userID, ch)
		}
	}
}

func (r *Registry) ConnectionCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns[userID])
}

func (r *Registry) TotalConnections() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, conns := range r.conns {
		total += len(conns)
	}
	return total
}
