// Package server exposes the operator HTTP API over the service layer.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/chatwarden/chatwarden/common/httputil"
	"github.com/chatwarden/chatwarden/common/logging"
	"github.com/chatwarden/chatwarden/internal/models"
	"github.com/chatwarden/chatwarden/internal/service"
)

// Handler serves the operator API routes.
type Handler struct {
	service *service.Service
	logger  *logging.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc *service.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: svc,
		logger:  logger.Component("api"),
	}
}

// HealthCheck handles GET /healthz.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetStatus handles GET /api/v1/status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Status())
}

// ListEvents handles GET /api/v1/events?type=SPAM&limit=10.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	eventType := models.EventType(r.URL.Query().Get("type"))
	limit := httputil.ParseIntParam(r.URL.Query().Get("limit"), 0)

	events := h.service.Logs(eventType, limit)
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// GetEventStats handles GET /api/v1/events/stats.
func (h *Handler) GetEventStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.service.Stats())
}

// ScanUser handles GET /api/v1/users/:id.
func (h *Handler) ScanUser(w http.ResponseWriter, r *http.Request, userID int64) {
	httputil.WriteJSON(w, http.StatusOK, h.service.ScanUser(userID))
}

// WarnRequest is the payload for POST /api/v1/users/:id/warn.
type WarnRequest struct {
	UserName string `json:"user_name"`
	Reason   string `json:"reason"`
}

// WarnUser handles POST /api/v1/users/:id/warn.
func (h *Handler) WarnUser(w http.ResponseWriter, r *http.Request, userID int64) {
	var req WarnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report := h.service.Warn(r.Context(), userID, req.UserName, req.Reason)
	httputil.WriteJSON(w, http.StatusOK, report)
}

// TimeoutRequest is the payload for POST /api/v1/users/:id/timeout.
type TimeoutRequest struct {
	UserName        string `json:"user_name"`
	DurationMinutes int    `json:"duration_minutes"`
	Reason          string `json:"reason"`
}

// TimeoutUser handles POST /api/v1/users/:id/timeout.
func (h *Handler) TimeoutUser(w http.ResponseWriter, r *http.Request, userID int64) {
	var req TimeoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DurationMinutes <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "duration_minutes must be positive")
		return
	}

	report, err := h.service.Timeout(r.Context(), userID, req.UserName,
		time.Duration(req.DurationMinutes)*time.Minute, req.Reason)
	if err != nil {
		h.logger.Error("timeout request failed", "user_id", userID, "err", err)
		httputil.WriteError(w, http.StatusBadGateway, "timeout action failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

// ClearSuspicion handles DELETE /api/v1/users/:id/suspicion.
func (h *Handler) ClearSuspicion(w http.ResponseWriter, r *http.Request, userID int64) {
	existed, err := h.service.ClearSuspicion(r.Context(), userID)
	if err != nil {
		h.logger.Error("clear suspicion failed", "user_id", userID, "err", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to clear rate window")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"cleared": existed,
	})
}

// ReloadConfig handles POST /api/v1/config/reload.
func (h *Handler) ReloadConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.ReloadConfig()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "config reload failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":        true,
		"auto_moderation": cfg.Security.AutoModeration,
		"threshold":       cfg.Security.SuspiciousThreshold,
		"security_level":  cfg.Security.Level,
	})
}

// userRoute splits /api/v1/users/:id[/action] into the user ID and the
// trailing action ("" when absent).
func userRoute(path string) (int64, string, bool) {
	rest := strings.TrimPrefix(path, "/api/v1/users/")
	if rest == path || rest == "" {
		return 0, "", false
	}

	idPart := rest
	action := ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		idPart = rest[:i]
		action = rest[i+1:]
	}

	userID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return userID, action, true
}
