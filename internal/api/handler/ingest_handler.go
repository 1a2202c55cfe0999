package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/busnap/tracking-bridge/internal/core/domain"
)

// FixIngester accepts fixes pushed by a device.
type FixIngester interface {
	Ingest(fix domain.LocationFix) error
}

// IngestHandler feeds device-posted fixes into the push provider.
type IngestHandler struct {
	ingester FixIngester
	now      func() time.Time
}

func NewIngestHandler(ingester FixIngester) *IngestHandler {
	return &IngestHandler{ingester: ingester, now: time.Now}
}

// Receive handles POST /v1/provider/fixes. It answers 202 once the fix is
// handed to the active subscription and 409 when nothing is subscribed.
//
// @Summary      Push a location fix
// @Tags         provider
// @Accept       json
// @Produce      json
// @Param        body  body      fixRequest  true  "Location fix"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/provider/fixes [post]
func (h *IngestHandler) Receive(c echo.Context) error {
	var req fixRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	fix := domain.LocationFix{
		Latitude:        *req.Latitude,
		Longitude:       *req.Longitude,
		Accuracy:        req.Accuracy,
		TimestampMillis: req.Timestamp,
	}
	if fix.TimestampMillis == 0 {
		fix.TimestampMillis = h.now().UnixMilli()
	}

	if err := h.ingester.Ingest(fix); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "fix accepted"})
}
