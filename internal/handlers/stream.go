package handlers

import (
	"net/http"

	"github.com/civicdesk/civicdesk-api/internal/authz"
	"github.com/civicdesk/civicdesk-api/internal/config"
	"github.com/civicdesk/civicdesk-api/internal/notification"
	"github.com/civicdesk/civicdesk-api/internal/push"
	"github.com/rs/zerolog"
)

type StreamHandler struct {
	registry      *push.Registry
	notifications notification.Service
	cfg           config.PushConfig
	logger        zerolog.Logger
}

func NewStreamHandler(registry *push.Registry, notifications notification.Service, cfg config.PushConfig, logger zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		registry:      registry,
		notifications: notifications,
		cfg:           cfg,
		logger:        logger.With().Str("handler", "stream").Logger(),
	}
}

// Stream opens the per-tab server-push connection. The handler blocks for the
// lifetime of the session and returns when the client disconnects or the
// registry evicts the channel.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	channel := push.NewSSEChannel(w, flusher)
	session := push.NewSession(h.registry, h.notifications, userID, channel, push.SessionConfig{
		PollInterval: h.cfg.PollInterval,
		FeedLimit:    h.cfg.FeedLimit,
	}, h.logger)

	session.Run(r.Context())
}
