package push

import (
	"time"

	"github.com/rs/zerolog"
)

// Heartbeat broadcasts keepalive frames to every registered channel on a
// fixed interval. One instance runs for the lifetime of the process; Stop
// exists for tests and shutdown.
type Heartbeat struct {
	registry *Registry
	interval time.Duration
	logger   zerolog.Logger
	stop     chan struct{}
	done     chan struct{}
}

func NewHeartbeat(registry *Registry, interval time.Duration, logger zerolog.Logger) *Heartbeat {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Heartbeat{
		registry: registry,
		interval: interval,
		logger:   logger.With().Str("component", "heartbeat").Logger(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (h *Heartbeat) Start() {
	go func() {
		defer close(h.done)
		ticker := time.NewTicker(h.interval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				h.registry.BroadcastHeartbeat()
			}
		}
	}()
	h.logger.Info().Dur("interval", h.interval).Msg("heartbeat scheduler started")
}

func (h *Heartbeat) Stop() {
	close(h.stop)
	<-h.done
}
