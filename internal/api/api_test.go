package api_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/alertmail/internal/action"
	"github.com/shaharia-lab/alertmail/internal/api"
	"github.com/shaharia-lab/alertmail/internal/config"
	"github.com/shaharia-lab/alertmail/internal/notification"
	"github.com/shaharia-lab/alertmail/internal/service"
	svcmocks "github.com/shaharia-lab/alertmail/internal/service/mocks"
	"github.com/shaharia-lab/alertmail/internal/storage"
)

// testHarness bundles the mocks and router used by every test.
type testHarness struct {
	svc    *svcmocks.MockNotificationService
	router chi.Router
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	svc := new(svcmocks.MockNotificationService)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := api.New(svc, logger)

	r := chi.NewRouter()
	srv.Mount(r)

	t.Cleanup(func() { svc.AssertExpectations(t) })
	return &testHarness{svc: svc, router: r}
}

func (h *testHarness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func strPtr(s string) *string { return &s }

// ---------- Version ----------

func TestVersion(t *testing.T) {
	h := newHarness(t)
	w := h.do(httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	decodeBody(t, w, &body)
	assert.Contains(t, body, "version")
	assert.Contains(t, body, "commit")
}

// ---------- Mail config ----------

func TestGetMailConfig(t *testing.T) {
	tests := []struct {
		name       string
		cfg        *config.MailConfig
		err        error
		wantStatus int
	}{
		{
			name:       "configured",
			cfg:        &config.MailConfig{ServerHost: "smtp.example.com", ServerPort: 25, FromAddress: "a@example.com", FromPassword: strPtr("***")},
			wantStatus: http.StatusOK,
		},
		{
			name:       "not configured",
			err:        &service.NotFoundError{Resource: "mail config", ID: "global"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "store failure",
			err:        errors.New("disk I/O error"),
			wantStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.svc.On("GetMailConfig", mock.Anything).Return(tt.cfg, tt.err)

			w := h.do(httptest.NewRequest(http.MethodGet, "/mail-config", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				var body map[string]any
				decodeBody(t, w, &body)
				assert.Equal(t, "smtp.example.com", body["email_server"])
				assert.Equal(t, "***", body["from_password"])
			}
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "disk I/O")
			}
		})
	}
}

func TestUpdateMailConfig(t *testing.T) {
	h := newHarness(t)
	h.svc.On("UpdateMailConfig", mock.Anything, &config.MailConfig{
		ServerHost: "smtp.example.com", ServerPort: 587, FromAddress: "a@example.com", FromPassword: strPtr("pw"),
	}).Return(nil)
	h.svc.On("GetMailConfig", mock.Anything).Return(&config.MailConfig{
		ServerHost: "smtp.example.com", ServerPort: 587, FromAddress: "a@example.com", FromPassword: strPtr("***"),
	}, nil)

	body := `{"email_server":"smtp.example.com","email_port":587,"from_address":"a@example.com","from_password":"pw"}`
	w := h.do(httptest.NewRequest(http.MethodPut, "/mail-config", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	decodeBody(t, w, &got)
	assert.Equal(t, "***", got["from_password"])
}

func TestUpdateMailConfig_Errors(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		h := newHarness(t)
		w := h.do(httptest.NewRequest(http.MethodPut, "/mail-config", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("validation", func(t *testing.T) {
		h := newHarness(t)
		h.svc.On("UpdateMailConfig", mock.Anything, mock.Anything).
			Return(&service.ValidationError{Field: "mail_config", Message: "from address is required"})
		w := h.do(httptest.NewRequest(http.MethodPut, "/mail-config", strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "from address is required")
	})
}

func TestTestNotification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"sent", nil, http.StatusOK},
		{"no config", &notification.ConfigurationUnavailableError{}, http.StatusServiceUnavailable},
		{"smtp down", &notification.DeliveryFailedError{Host: "mx", Port: 25, Err: errors.New("refused")}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.svc.On("TestNotification", mock.Anything, "ops@example.com").Return(tt.err)
			w := h.do(httptest.NewRequest(http.MethodPost, "/mail-config/test", strings.NewReader(`{"recipient":"ops@example.com"}`)))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

// ---------- Dispatch ----------

const dispatchBody = `{"actions":[{"email":{"addresses":["a@example.com"]}}],"result":{"trigger":"t"}}`

func TestDispatchAlert(t *testing.T) {
	tests := []struct {
		name       string
		outcomes   []service.DispatchOutcome
		err        error
		wantStatus int
		wantError  bool
	}{
		{
			name:       "sent",
			outcomes:   []service.DispatchOutcome{{Kind: action.KindEmail, Sent: true}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed",
			err:        &service.ValidationError{Field: "actions[0]", Message: "malformed action definition"},
			wantStatus: http.StatusBadRequest,
			wantError:  true,
		},
		{
			name:       "configuration unavailable",
			outcomes:   []service.DispatchOutcome{{Kind: action.KindEmail, Error: "mail configuration unavailable"}},
			err:        &notification.ConfigurationUnavailableError{},
			wantStatus: http.StatusServiceUnavailable,
			wantError:  true,
		},
		{
			name:       "delivery failed",
			outcomes:   []service.DispatchOutcome{{Kind: action.KindEmail, Error: "notification delivery failed"}},
			err:        &notification.DeliveryFailedError{Err: errors.New("refused")},
			wantStatus: http.StatusBadGateway,
			wantError:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.svc.On("Dispatch", mock.Anything, "disk-usage", mock.MatchedBy(func(req service.DispatchRequest) bool {
				return len(req.Actions) == 1 && len(req.Result) > 0
			})).Return(tt.outcomes, tt.err)

			w := h.do(httptest.NewRequest(http.MethodPost, "/alerts/disk-usage/dispatch", strings.NewReader(dispatchBody)))
			assert.Equal(t, tt.wantStatus, w.Code)

			var body map[string]any
			decodeBody(t, w, &body)
			if tt.wantError {
				assert.NotEmpty(t, body["error"])
			} else {
				assert.Nil(t, body["error"])
			}
			if tt.outcomes != nil {
				assert.Equal(t, "disk-usage", body["alert"])
				assert.Len(t, body["outcomes"], len(tt.outcomes))
			}
		})
	}
}

func TestDispatchAlert_InvalidJSON(t *testing.T) {
	h := newHarness(t)
	w := h.do(httptest.NewRequest(http.MethodPost, "/alerts/x/dispatch", strings.NewReader("not json")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ---------- Notification log ----------

func TestListNotificationLog(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLimit int
	}{
		{"default limit", "", 50},
		{"explicit limit", "?limit=5", 5},
		{"invalid limit", "?limit=abc", 50},
		{"negative limit", "?limit=-1", 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.svc.On("ListLog", mock.Anything, tt.wantLimit).
				Return([]storage.NotificationLogEntry{{AlertName: "disk", Status: storage.StatusSent}}, nil)

			w := h.do(httptest.NewRequest(http.MethodGet, "/notifications"+tt.query, nil))
			require.Equal(t, http.StatusOK, w.Code)

			var entries []storage.NotificationLogEntry
			decodeBody(t, w, &entries)
			require.Len(t, entries, 1)
			assert.Equal(t, "disk", entries[0].AlertName)
		})
	}
}

func TestListNotificationLog_Error(t *testing.T) {
	h := newHarness(t)
	h.svc.On("ListLog", mock.Anything, 50).Return(nil, errors.New("db closed"))
	w := h.do(httptest.NewRequest(http.MethodGet, "/notifications", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "failed to list notification log")
}
