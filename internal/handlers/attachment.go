package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/civicdesk/civicdesk-api/internal/config"
	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/civicdesk/civicdesk-api/internal/repository"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type AttachmentHandler struct {
	attachments repository.AttachmentRepository
	complaints  repository.ComplaintRepository
	cfg         config.UploadConfig
	logger      zerolog.Logger
}

func NewAttachmentHandler(attachments repository.AttachmentRepository, complaints repository.ComplaintRepository, cfg config.UploadConfig, logger zerolog.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		attachments: attachments,
		complaints:  complaints,
		cfg:         cfg,
		logger:      logger.With().Str("handler", "attachment").Logger(),
	}
}

// Upload accepts one multipart file and binds it to the complaint. The bytes
// land on disk under a uuid storage key; the metadata row points back at them.
func (h *AttachmentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	complaintID := strings.TrimSpace(mux.Vars(r)["complaintID"])

	if _, err := h.complaints.GetByID(r.Context(), complaintID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Complaint not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("failed to load complaint")
		http.Error(w, "Failed to load complaint", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxSizeBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "A file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !h.typeAllowed(contentType) {
		http.Error(w, "File type not allowed", http.StatusUnsupportedMediaType)
		return
	}

	storageKey := uuid.NewString()
	if err := os.MkdirAll(h.cfg.Dir, 0o755); err != nil {
		h.logger.Error().Err(err).Msg("failed to create upload dir")
		http.Error(w, "Failed to store file", http.StatusInternalServerError)
		return
	}

	path := filepath.Join(h.cfg.Dir, storageKey)
	dst, err := os.Create(path)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create upload file")
		http.Error(w, "Failed to store file", http.StatusInternalServerError)
		return
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		os.Remove(path)
		http.Error(w, "Failed to store file", http.StatusInternalServerError)
		return
	}

	attachment, err := h.attachments.Create(r.Context(), models.Attachment{
		ComplaintID: complaintID,
		FileName:    filepath.Base(header.Filename),
		ContentType: contentType,
		SizeBytes:   size,
		StorageKey:  storageKey,
	})
	if err != nil {
		os.Remove(path)
		h.logger.Error().Err(err).Msg("failed to record attachment")
		http.Error(w, "Failed to store file", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, attachment)
}

func (h *AttachmentHandler) List(w http.ResponseWriter, r *http.Request) {
	complaintID := strings.TrimSpace(mux.Vars(r)["complaintID"])

	attachments, err := h.attachments.ListByComplaint(r.Context(), complaintID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list attachments")
		http.Error(w, "Failed to list attachments", http.StatusInternalServerError)
		return
	}
	if attachments == nil {
		attachments = []models.Attachment{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"attachments": attachments})
}

func (h *AttachmentHandler) Download(w http.ResponseWriter, r *http.Request) {
	attachmentID := strings.TrimSpace(mux.Vars(r)["attachmentID"])

	attachment, err := h.attachments.GetByID(r.Context(), attachmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Attachment not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Msg("failed to load attachment")
		http.Error(w, "Failed to load attachment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachment.FileName))
	http.ServeFile(w, r, filepath.Join(h.cfg.Dir, attachment.StorageKey))
}

func (h *AttachmentHandler) typeAllowed(contentType string) bool {
	for _, allowed := range h.cfg.AllowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return true
		}
	}
	return false
}
