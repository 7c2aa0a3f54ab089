// internal/handler/discovery_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ic-control/internal/discovery"
	"ic-control/internal/service"
	"ic-control/internal/utils"
)

// DiscoveryHandler lists candidate devices
type DiscoveryHandler struct {
	session  *service.DeviceSession
	scanners *discovery.ScannerManager
	logger   *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler. scanners may be nil,
// in which case detailed listings are unavailable.
func NewDiscoveryHandler(session *service.DeviceSession, scanners *discovery.ScannerManager, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		session:  session,
		scanners: scanners,
		logger:   utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// RegisterRoutes registers discovery routes
func (h *DiscoveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	devices := router.Group("/devices")
	{
		devices.GET("", h.ListDevices)
		devices.GET("/details", h.ListDeviceDetails)
		devices.GET("/scanners", h.ListScanners)
	}
}

// ListDevices returns the descriptors accepted by connect
// @Summary Scan for devices
// @Description Lists descriptors; in simulation mode only the virtual device
// @Tags Discovery
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]string}
// @Router /devices [get]
func (h *DiscoveryHandler) ListDevices(c *gin.Context) {
	devices, err := h.session.Scan(c.Request.Context())
	if err != nil {
		h.logger.Error("Device scan failed", zap.Error(err))
		respondError(c, "Device scan failed", err)
		return
	}
	if devices == nil {
		devices = []string{}
	}
	utils.SuccessResponse(c, http.StatusOK, "Devices scanned", devices)
}

// ListDeviceDetails returns every discovered device with its identifiers
// @Summary Scan with details
// @Tags Discovery
// @Produce json
// @Param type query string false "Restrict to one scanner" Enums(serial, usb, tcp)
// @Success 200 {object} utils.APIResponse{data=[]discovery.DiscoveredDevice}
// @Failure 503 {object} utils.APIResponse "Scanning unavailable"
// @Router /devices/details [get]
func (h *DiscoveryHandler) ListDeviceDetails(c *gin.Context) {
	if h.scanners == nil {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Hardware scanning unavailable", nil)
		return
	}

	var (
		devices []*discovery.DiscoveredDevice
		err     error
	)
	if t := c.Query("type"); t != "" {
		devices, err = h.scanners.ScanByType(c.Request.Context(), t)
	} else {
		devices, err = h.scanners.ScanAll(c.Request.Context())
	}
	if err != nil {
		respondError(c, "Device scan failed", err)
		return
	}
	if devices == nil {
		devices = []*discovery.DiscoveredDevice{}
	}
	utils.SuccessResponse(c, http.StatusOK, "Devices scanned", devices)
}

// ListScanners returns the device types with an available scanner
// @Summary List scanners
// @Tags Discovery
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]string}
// @Router /devices/scanners [get]
func (h *DiscoveryHandler) ListScanners(c *gin.Context) {
	types := []string{}
	if h.scanners != nil {
		if available := h.scanners.GetAvailableScanners(); available != nil {
			types = available
		}
	}
	utils.SuccessResponse(c, http.StatusOK, "Available scanners", types)
}
