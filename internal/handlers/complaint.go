package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/civicdesk/civicdesk-api/internal/notification"
	"github.com/civicdesk/civicdesk-api/internal/repository"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type ComplaintHandler struct {
	repo          repository.ComplaintRepository
	notifications notification.Service
	logger        zerolog.Logger
}

func NewComplaintHandler(repo repository.ComplaintRepository, notifications notification.Service, logger zerolog.Logger) *ComplaintHandler {
	return &ComplaintHandler{
		repo:          repo,
		notifications: notifications,
		logger:        logger.With().Str("handler", "complaint").Logger(),
	}
}

type submitComplaintRequest struct {
	Subject     string                   `json:"subject"`
	Description string                   `json:"description"`
	Category    string                   `json:"category"`
	Priority    models.ComplaintPriority `json:"priority"`
}

// Submit files an anonymous complaint and returns the tracking number the
// submitter uses to follow up.
func (h *ComplaintHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		http.Error(w, "Subject is required", http.StatusBadRequest)
		return
	}

	complaint, err := h.repo.Create(r.Context(), req.Subject, req.Description, req.Category, req.Priority)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create complaint")
		http.Error(w, "Failed to submit complaint", http.StatusInternalServerError)
		return
	}

	h.notifications.ComplaintSubmitted(r.Context(), complaint)

	writeJSON(w, http.StatusCreated, complaint)
}

// Track is the public status lookup by tracking number. Only the fields a
// submitter needs come back.
func (h *ComplaintHandler) Track(w http.ResponseWriter, r *http.Request) {
	trackingNumber := strings.TrimSpace(mux.Vars(r)["trackingNumber"])
	if trackingNumber == "" {
		http.Error(w, "Tracking number is required", http.StatusBadRequest)
		return
	}

	complaint, err := h.repo.GetByTrackingNumber(r.Context(), trackingNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Complaint not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("failed to look up complaint")
		http.Error(w, "Failed to look up complaint", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tracking_number": complaint.TrackingNumber,
		"subject":         complaint.Subject,
		"status":          complaint.Status,
		"created_at":      complaint.CreatedAt,
		"updated_at":      complaint.UpdatedAt,
	})
}

func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.ComplaintStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !models.IsValidStatus(status) {
		http.Error(w, "Invalid status filter", http.StatusBadRequest)
		return
	}

	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	complaints, err := h.repo.List(r.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list complaints")
		http.Error(w, "Failed to list complaints", http.StatusInternalServerError)
		return
	}
	if complaints == nil {
		complaints = []models.Complaint{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"complaints": complaints})
}

func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	complaintID := strings.TrimSpace(mux.Vars(r)["complaintID"])

	complaint, err := h.repo.GetByID(r.Context(), complaintID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Complaint not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("failed to get complaint")
		http.Error(w, "Failed to get complaint", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, complaint)
}

// UpdateStatus moves a complaint one step along the pipeline, or archives it.
func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	complaintID := strings.TrimSpace(mux.Vars(r)["complaintID"])

	var payload struct {
		Status models.ComplaintStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	complaint, err := h.repo.UpdateStatus(r.Context(), complaintID, payload.Status)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			http.Error(w, "Complaint not found", http.StatusNotFound)
		case errors.Is(err, repository.ErrInvalidTransition):
			http.Error(w, "Invalid status transition: "+err.Error(), http.StatusUnprocessableEntity)
		default:
			h.logger.Error().Err(err).Str("complaint_id", complaintID).Msg("failed to update status")
			http.Error(w, "Failed to update complaint", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, complaint)
}
