package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

const defaultSessionLimit = 20

// TrackingHandler serves read-only views of the tracking service.
type TrackingHandler struct {
	service  ports.TrackingService
	relay    ports.EventRelay
	sessions ports.SessionRepository // nil when auditing is disabled
}

func NewTrackingHandler(service ports.TrackingService, relay ports.EventRelay, sessions ports.SessionRepository) *TrackingHandler {
	return &TrackingHandler{service: service, relay: relay, sessions: sessions}
}

// Status handles GET /v1/tracking/status.
//
// @Summary      Tracking status
// @Tags         tracking
// @Produce      json
// @Success      200  {object}  statusResponse
// @Router       /v1/tracking/status [get]
func (h *TrackingHandler) Status(c echo.Context) error {
	st := h.service.Status()

	resp := statusResponse{
		Tracking:  st.Tracking(),
		State:     string(st.State),
		SessionID: st.SessionID,
		LastError: st.LastError,
		Listening: h.relay.Listening(),
		Channel:   domain.EventChannel,
	}
	if !st.StartedAt.IsZero() {
		startedAt := st.StartedAt
		resp.StartedAt = &startedAt
	}
	return c.JSON(http.StatusOK, resp)
}

// Sessions handles GET /v1/tracking/sessions?limit=N.
//
// @Summary      Recent tracking sessions
// @Tags         tracking
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of sessions (default 20, max 100)"
// @Success      200    {array}   domain.TrackingSession
// @Failure      400    {object}  errorResponse
// @Failure      503    {object}  errorResponse
// @Router       /v1/tracking/sessions [get]
func (h *TrackingHandler) Sessions(c echo.Context) error {
	if h.sessions == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "session audit is disabled")
	}

	limit := defaultSessionLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	sessions, err := h.sessions.Recent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessions)
}
