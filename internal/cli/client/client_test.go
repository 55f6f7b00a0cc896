package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwarden/chatwarden/internal/service"
)

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/status", r.URL.Path)
		json.NewEncoder(w).Encode(service.Status{
			AutoModeration: true,
			Threshold:      3,
			TrackedUsers:   2,
		})
	}))
	defer srv.Close()

	st, err := New(srv.URL).Status()
	require.NoError(t, err)
	assert.True(t, st.AutoModeration)
	assert.Equal(t, 2, st.TrackedUsers)
}

func TestEventsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SPAM", r.URL.Query().Get("type"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode(EventsResponse{Count: 0})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Events("SPAM", 5)
	require.NoError(t, err)
}

func TestWarnSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/users/42/warn", r.URL.Path)

		var req WarnRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rowdy", req.UserName)
		assert.Equal(t, "flooding", req.Reason)

		json.NewEncoder(w).Encode(service.UserReport{UserID: 42, TotalPoints: 2})
	}))
	defer srv.Close()

	rep, err := New(srv.URL).Warn(42, &WarnRequest{UserName: "rowdy", Reason: "flooding"})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.TotalPoints)
}

func TestErrorPayloadSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": "timeout action failed"})
	}))
	defer srv.Close()

	_, err := New(srv.URL).Timeout(42, &TimeoutRequest{UserName: "rowdy", DurationMinutes: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout action failed")
	assert.Contains(t, err.Error(), "502")
}

func TestClearSuspicion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/users/9/suspicion", r.URL.Path)
		json.NewEncoder(w).Encode(ClearResponse{UserID: 9, Cleared: true})
	}))
	defer srv.Close()

	resp, err := New(srv.URL).ClearSuspicion(9)
	require.NoError(t, err)
	assert.True(t, resp.Cleared)
}
