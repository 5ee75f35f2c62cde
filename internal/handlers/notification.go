package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/civicdesk/civicdesk-api/internal/authz"
	"github.com/civicdesk/civicdesk-api/internal/notification"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type NotificationHandler struct {
	service   notification.Service
	feedLimit int
	logger    zerolog.Logger
}

func NewNotificationHandler(service notification.Service, feedLimit int, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		feedLimit: feedLimit,
		logger:    logger.With().Str("handler", "notification").Logger(),
	}
}

// Feed returns the caller's current notification snapshot. The same shape the
// stream pushes, for clients catching up after a reconnect.
func (h *NotificationHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	limit := h.feedLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	feed, err := h.service.Feed(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load notification feed")
		http.Error(w, "Failed to load notifications", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, feed)
}

// MarkRead flags one notification read. A mismatched owner is an
// acknowledged no-op; the caller cannot tell whether the id exists under
// another account.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	notifID := strings.TrimSpace(mux.Vars(r)["notificationID"])
	if notifID == "" {
		http.Error(w, "Notification ID is required", http.StatusBadRequest)
		return
	}

	if err := h.service.MarkRead(r.Context(), userID, notifID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("notification_id", notifID).Msg("failed to mark notification as read")
		http.Error(w, "Failed to update notification", http.StatusInternalServerError)
		return
	}

	writeAck(w)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if err := h.service.MarkAllRead(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).Msg("failed to mark all notifications as read")
		http.Error(w, "Failed to update notifications", http.StatusInternalServerError)
		return
	}

	writeAck(w)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	notifID := strings.TrimSpace(mux.Vars(r)["notificationID"])
	if notifID == "" {
		http.Error(w, "Notification ID is required", http.StatusBadRequest)
		return
	}

	if err := h.service.SoftDelete(r.Context(), userID, notifID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Notification not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Str("notification_id", notifID).Msg("failed to delete notification")
		http.Error(w, "Failed to delete notification", http.StatusInternalServerError)
		return
	}

	writeAck(w)
}
