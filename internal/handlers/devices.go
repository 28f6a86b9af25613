package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const errSyncDevices = "failed to sync devices"

// @Summary      List devices
// @Description  Devices with their cached mode and the switches standing for them.
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/devices [get]
// @Security     BearerAuth
func (h *Handler) listDevices(c *gin.Context) {
	list := h.services.Devices.List(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"count":   len(list),
		"devices": list,
	})
}

// @Summary      Sync devices
// @Description  Fetches the binding list now and creates or removes switches accordingly.
// @Tags         devices
// @Produce      json
// @Success      200  {object}  service.SyncResult
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/sync [post]
// @Security     BearerAuth
func (h *Handler) syncDevices(c *gin.Context) {
	res, err := h.services.Devices.Sync(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, err, errSyncDevices, "devices_sync_failed")
		return
	}
	c.JSON(http.StatusOK, res)
}
