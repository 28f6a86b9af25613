package handlers

import (
	"errors"
	"net/http"

	"heatzy_bridge/internal/gizwits"
	"heatzy_bridge/internal/models"
	"heatzy_bridge/internal/service"
	"heatzy_bridge/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errSwitchNotFound  = "switch not found"
	errSetSwitch       = "failed to set switch"
	errVendorAuth      = "heatzy authentication failed"
	errVendorFailure   = "heatzy request failed"
	errInvalidBodyPref = "invalid body: "
)

// SetSwitchRequest is the payload of PUT /api/v1/switches/{id}.
type SetSwitchRequest struct {
	// Desired state. false switches the device off unless it is known to
	// be in another mode, in which case nothing is written.
	On *bool `json:"on" binding:"required" example:"true"`
}

// errorStatus maps service and vendor errors onto HTTP status codes and
// user-facing messages.
func errorStatus(err error, fallback string) (int, string) {
	var (
		authErr *session.AuthError
		apiErr  *gizwits.APIError
	)
	switch {
	case errors.Is(err, service.ErrSwitchNotFound):
		return http.StatusNotFound, errSwitchNotFound
	case errors.Is(err, models.ErrInvalidMode):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &authErr):
		return http.StatusBadGateway, errVendorAuth
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, errVendorFailure
	default:
		return http.StatusInternalServerError, fallback
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, err error, fallback, logKey string, kv ...interface{}) {
	code, msg := errorStatus(err, fallback)
	if h.log != nil && code != http.StatusNotFound {
		fields := append([]interface{}{"err", err, "status", code}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(code, gin.H{"error": msg})
}

// @Summary      Health check
// @Description  Reports session state, endpoint counts and the last device list sync.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	resp := gin.H{"status": statusOK}
	if h.services != nil && h.services.Status != nil {
		resp["bridge"] = h.services.Status.Status(c.Request.Context())
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      List switches
// @Tags         switches
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, switches"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/switches [get]
// @Security     BearerAuth
func (h *Handler) listSwitches(c *gin.Context) {
	list := h.services.Switches.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":    len(list),
		"switches": list,
	})
}

// @Summary      Get a switch
// @Tags         switches
// @Produce      json
// @Param        id   path      string  true  "Endpoint id"
// @Success      200  {object}  service.SwitchView
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/switches/{id} [get]
// @Security     BearerAuth
func (h *Handler) getSwitch(c *gin.Context) {
	id := c.Param("id")
	sv, err := h.services.Switches.Get(c.Request.Context(), id)
	if err != nil {
		h.logAndJSONError(c, err, errSwitchNotFound, "switch_get_failed", "id", id)
		return
	}
	c.JSON(http.StatusOK, sv)
}

// @Summary      Turn a switch on or off
// @Description  On writes the switch's mode to the device; off switches the device off.
// @Tags         switches
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "Endpoint id"
// @Param        body  body      SetSwitchRequest  true  "Desired state"
// @Success      200   {object}  service.SwitchView
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/switches/{id} [put]
// @Security     BearerAuth
func (h *Handler) setSwitch(c *gin.Context) {
	var req SetSwitchRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	id := c.Param("id")
	sv, err := h.services.Switches.Set(c.Request.Context(), id, *req.On)
	if err != nil {
		h.logAndJSONError(c, err, errSetSwitch, "switch_set_failed", "id", id, "on", *req.On)
		return
	}
	c.JSON(http.StatusOK, sv)
}
