package push

import (
	"context"
	"time"

	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/rs/zerolog"
)

// FeedSource computes the per-user notification snapshot. The notification
// service satisfies it.
type FeedSource interface {
	Feed(ctx context.Context, userID string, limit int) (models.NotificationFeed, error)
}

type SessionConfig struct {
	PollInterval time.Duration
	FeedLimit    int
}

// Session drives one push channel through its lifetime: register, snapshot,
// then poll-and-diff until the client goes away. There is no reconnect state;
// a reconnecting client starts a brand-new session.
type Session struct {
	registry *Registry
	feeds    FeedSource
	userID   string
	channel  Channel
	cfg      SessionConfig
	logger   zerolog.Logger
}

func NewSession(registry *Registry, feeds FeedSource, userID string, channel Channel, cfg SessionConfig, logger zerolog.Logger) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Second
	}
	if cfg.FeedLimit <= 0 {
		cfg.FeedLimit = 5
	}
	return &Session{
		registry: registry,
		feeds:    feeds,
		userID:   userID,
		channel:  channel,
		cfg:      cfg,
		logger:   logger.With().Str("component", "push_session").Str("user_id", userID).Logger(),
	}
}

// Run blocks until the context is cancelled (client disconnect), the channel
// is closed (eviction), or a write fails. The channel is unregistered on the
// way out.
func (s *Session) Run(ctx context.Context) {
	s.registry.Register(s.userID, s.channel)
	defer s.registry.Unregister(s.userID, s.channel)

	err := s.channel.Send(ConnectionFrame{
		Type:            FrameTypeConnection,
		Status:          "connected",
		ConnectionCount: s.registry.ConnectionCount(s.userID),
	})
	if err != nil {
		return
	}

	if !s.emitSnapshot(ctx, FrameTypeInitial, true) {
		return
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug().Msg("client disconnected")
			return
		case <-s.channel.Done():
			return
		case <-ticker.C:
			// Update frames are suppressed when nothing is unread; the
			// heartbeat scheduler keeps the connection alive regardless.
			if !s.emitSnapshot(ctx, FrameTypeUpdate, false) {
				return
			}
		}
	}
}

// emitSnapshot recomputes the feed and pushes it. Snapshot failures are
// transient: an error frame goes out and the session keeps running. Only a
// failed channel write ends the session, reported by the false return.
func (s *Session) emitSnapshot(ctx context.Context, frameType string, always bool) bool {
	feed, err := s.feeds.Feed(ctx, s.userID, s.cfg.FeedLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to compute notification feed")
		return s.channel.Send(ErrorFrame{Type: FrameTypeError, Message: "failed to load notifications"}) == nil
	}
	if !always && feed.Total == 0 {
		return true
	}
	return s.channel.Send(NewFeedFrame(frameType, feed)) == nil
}
