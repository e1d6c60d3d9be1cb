package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaharia-lab/alertmail/internal/config"
)

// handleGetMailConfig returns the global mail configuration with the password masked.
func (s *Server) handleGetMailConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.notificationSvc.GetMailConfig(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to load mail config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleUpdateMailConfig replaces the global mail configuration. If the
// submitted password is the mask sentinel ("***"), the existing password is kept.
func (s *Server) handleUpdateMailConfig(w http.ResponseWriter, r *http.Request) {
	var incoming config.MailConfig
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	if err := s.notificationSvc.UpdateMailConfig(r.Context(), &incoming); err != nil {
		s.writeServiceError(w, err, "failed to save mail config")
		return
	}

	// Return the saved configuration (with masked password).
	cfg, err := s.notificationSvc.GetMailConfig(r.Context())
	if err != nil {
		s.writeServiceError(w, err, "failed to reload mail config")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type testNotificationRequest struct {
	Recipient string `json:"recipient"`
}

// handleTestNotification sends a test alert to the given recipient.
func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	var req testNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}
	if err := s.notificationSvc.TestNotification(r.Context(), req.Recipient); err != nil {
		s.writeServiceError(w, err, "failed to send test notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
