package routes

import (
	"net/http"

	"github.com/civicdesk/civicdesk-api/internal/authz"
	"github.com/civicdesk/civicdesk-api/internal/handlers"
	"github.com/civicdesk/civicdesk-api/internal/models"
	"github.com/gorilla/mux"
)

// NewRouter sets up the API routes.
func NewRouter(
	auth *handlers.AuthHandler,
	complaint *handlers.ComplaintHandler,
	attachment *handlers.AttachmentHandler,
	notification *handlers.NotificationHandler,
	stream *handlers.StreamHandler,
	setting *handlers.SettingHandler,
	export *handlers.ExportHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public endpoints: anonymous intake and tracking
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/complaints", complaint.Submit).Methods(http.MethodPost)
	router.HandleFunc("/api/complaints/{complaintID}/attachments", attachment.Upload).Methods(http.MethodPost)
	router.HandleFunc("/api/track/{trackingNumber}", complaint.Track).Methods(http.MethodGet)

	// Staff endpoints
	staff := router.PathPrefix("/api").Subrouter()
	staff.Use(auth.JWTMiddleware, authz.RequireRole(models.RoleStaff))

	staff.HandleFunc("/complaints", complaint.List).Methods(http.MethodGet)
	staff.HandleFunc("/complaints/{complaintID}", complaint.Get).Methods(http.MethodGet)
	staff.HandleFunc("/complaints/{complaintID}/status", complaint.UpdateStatus).Methods(http.MethodPut)
	staff.HandleFunc("/complaints/{complaintID}/attachments", attachment.List).Methods(http.MethodGet)
	staff.HandleFunc("/attachments/{attachmentID}", attachment.Download).Methods(http.MethodGet)

	staff.HandleFunc("/notifications", notification.Feed).Methods(http.MethodGet)
	staff.HandleFunc("/notifications/stream", stream.Stream).Methods(http.MethodGet)
	staff.HandleFunc("/notifications/read-all", notification.MarkAllRead).Methods(http.MethodPost)
	staff.HandleFunc("/notifications/{notificationID}/read", notification.MarkRead).Methods(http.MethodPost)
	staff.HandleFunc("/notifications/{notificationID}", notification.Delete).Methods(http.MethodDelete)

	// Admin endpoints
	admin := router.PathPrefix("/api/admin").Subrouter()
	admin.Use(auth.JWTMiddleware, authz.RequireRole(models.RoleAdmin))

	admin.HandleFunc("/users", auth.CreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/users", auth.ListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/{userID}", auth.DeactivateUser).Methods(http.MethodDelete)
	admin.HandleFunc("/settings", setting.List).Methods(http.MethodGet)
	admin.HandleFunc("/settings/{key}", setting.Get).Methods(http.MethodGet)
	admin.HandleFunc("/settings/{key}", setting.Update).Methods(http.MethodPut)
	admin.HandleFunc("/export/complaints", export.ExportComplaints).Methods(http.MethodGet)

	return router
}
