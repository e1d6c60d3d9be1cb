package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/notification"
	"github.com/shaharia-lab/alertmail/internal/service"
)

const errInvalidJSONBody = "invalid JSON body"

// Server holds all dependencies for the REST API handlers.
type Server struct {
	notificationSvc service.NotificationService
	logger          *slog.Logger
}

// New creates a new API Server backed by the provided service.
func New(notificationSvc service.NotificationService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{notificationSvc: notificationSvc, logger: logger}
}

// Mount registers all API routes under the given router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/version", s.handleVersion)

	// Global mail configuration
	r.Get("/mail-config", s.handleGetMailConfig)
	r.Put("/mail-config", s.handleUpdateMailConfig)
	r.Post("/mail-config/test", s.handleTestNotification)

	// Alert dispatch and delivery log
	r.Post("/alerts/{name}/dispatch", s.handleDispatchAlert)
	r.Get("/notifications", s.handleListNotificationLog)
}

// ─── Shared helpers ───────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service and dispatch errors to HTTP status codes.
func statusFor(err error) int {
	var (
		ve *service.ValidationError
		nf *service.NotFoundError
	)
	switch {
	case errors.As(err, &ve), errors.Is(err, config.ErrInvalidMailConfig):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.Is(err, notification.ErrConfigurationUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, notification.ErrDeliveryFailed):
		return http.StatusBadGateway
	case errors.Is(err, notification.ErrWrongAction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with the mapped status. Internal errors are
// logged and replaced by fallback.
func (s *Server) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(fallback, "error", err)
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, err.Error())
}
