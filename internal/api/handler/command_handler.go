package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

// CommandHandler exposes the command channel.
type CommandHandler struct {
	gateway ports.CommandGateway
}

func NewCommandHandler(gateway ports.CommandGateway) *CommandHandler {
	return &CommandHandler{gateway: gateway}
}

// Invoke handles POST /v1/channels/location_service/:method.
// Known commands answer 200 {"result":true} once the intent is queued; the
// result does not mean tracking actually started. Unknown commands surface
// domain.ErrNotImplemented, which the error handler renders as 501.
//
// @Summary      Invoke a command channel method
// @Tags         channels
// @Produce      json
// @Param        method  path      string  true  "startBackgroundTracking or stopBackgroundTracking"
// @Success      200     {object}  commandResponse
// @Failure      501     {object}  errorResponse
// @Router       /v1/channels/location_service/{method} [post]
func (h *CommandHandler) Invoke(c echo.Context) error {
	method := c.Param("method")

	result, err := h.gateway.Handle(c.Request().Context(), method)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, commandResponse{
		Channel: domain.CommandChannel,
		Method:  method,
		Result:  result,
	})
}
