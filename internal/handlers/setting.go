package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/civicdesk/civicdesk-api/internal/repository"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type SettingHandler struct {
	repo   repository.SettingRepository
	logger zerolog.Logger
}

func NewSettingHandler(repo repository.SettingRepository, logger zerolog.Logger) *SettingHandler {
	return &SettingHandler{
		repo:   repo,
		logger: logger.With().Str("handler", "setting").Logger(),
	}
}

func (h *SettingHandler) List(w http.ResponseWriter, r *http.Request) {
	settings, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list settings")
		http.Error(w, "Failed to list settings", http.StatusInternalServerError)
		return
	}
	if settings == nil {
		settings = []models.Setting{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"settings": settings})
}

func (h *SettingHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(mux.Vars(r)["key"])

	setting, err := h.repo.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Setting not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("failed to get setting")
		http.Error(w, "Failed to get setting", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, setting)
}

func (h *SettingHandler) Update(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(mux.Vars(r)["key"])
	if key == "" {
		http.Error(w, "Setting key is required", http.StatusBadRequest)
		return
	}

	var payload struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	setting, err := h.repo.Upsert(r.Context(), key, payload.Value)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to update setting")
		http.Error(w, "Failed to update setting", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, setting)
}
