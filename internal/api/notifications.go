package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/alertmail/internal/service"
)

type dispatchResponse struct {
	Alert    string                    `json:"alert"`
	Outcomes []service.DispatchOutcome `json:"outcomes"`
	Error    string                    `json:"error,omitempty"`
}

// handleDispatchAlert runs the actions of a firing alert. The response lists
// one outcome per action; when any action failed the status reflects the
// first failure.
func (s *Server) handleDispatchAlert(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req service.DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSONBody)
		return
	}

	outcomes, err := s.notificationSvc.Dispatch(r.Context(), name, req)
	if err != nil && outcomes == nil {
		s.writeServiceError(w, err, "failed to dispatch alert")
		return
	}

	resp := dispatchResponse{Alert: name, Outcomes: outcomes}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

// handleListNotificationLog returns recent notification delivery log entries.
// Accepts an optional ?limit=N query parameter (default 50).
func (s *Server) handleListNotificationLog(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.notificationSvc.ListLog(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err, "failed to list notification log")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
