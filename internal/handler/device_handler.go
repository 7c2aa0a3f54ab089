// internal/handler/device_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ic-control/internal/service"
	"ic-control/internal/utils"
)

// DeviceHandler handles connection lifecycle requests
type DeviceHandler struct {
	session *service.DeviceSession
	logger  *utils.ServiceLogger
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(session *service.DeviceSession, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		session: session,
		logger:  utils.NewServiceLogger(logger, "device-handler"),
	}
}

// SimulationRequest toggles the virtual device
type SimulationRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// RegisterRoutes registers session routes
func (h *DeviceHandler) RegisterRoutes(router *gin.RouterGroup) {
	session := router.Group("/session")
	{
		session.GET("", h.GetSession)
		session.POST("/connect", h.Connect)
		session.POST("/disconnect", h.Disconnect)
		session.PUT("/simulation", h.SetSimulation)
	}
}

// GetSession returns the observable session state
// @Summary Get session state
// @Description Connection status, settings, operation outcomes and register count
// @Tags Session
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.Snapshot}
// @Router /session [get]
func (h *DeviceHandler) GetSession(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Session retrieved", h.session.Snapshot())
}

// Connect opens a device
// @Summary Connect to a device
// @Description Opens the descriptor returned by device scan with the current serial settings
// @Tags Session
// @Accept json
// @Produce json
// @Param request body ConnectRequest true "Device descriptor"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Connect already in progress"
// @Failure 502 {object} utils.APIResponse "Device could not be opened"
// @Router /session/connect [post]
func (h *DeviceHandler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.session.Connect(c.Request.Context(), req.Device); err != nil {
		h.logger.Warn("Connect failed", zap.String("device", req.Device), zap.Error(err))
		respondError(c, "Failed to connect", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Connected", h.session.Transport().Status())
}

// Disconnect closes the link
// @Summary Disconnect
// @Tags Session
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse "Close failed"
// @Router /session/disconnect [post]
func (h *DeviceHandler) Disconnect(c *gin.Context) {
	if err := h.session.Disconnect(c.Request.Context()); err != nil {
		respondError(c, "Failed to disconnect", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Disconnected", h.session.Transport().Status())
}

// SetSimulation toggles simulation mode
// @Summary Toggle simulation mode
// @Description In simulation mode scan lists only the virtual device
// @Tags Session
// @Accept json
// @Produce json
// @Param request body SimulationRequest true "Simulation flag"
// @Success 200 {object} utils.APIResponse
// @Router /session/simulation [put]
func (h *DeviceHandler) SetSimulation(c *gin.Context) {
	var req SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.session.Transport().SetSimulation(*req.Enabled)
	utils.SuccessResponse(c, http.StatusOK, "Simulation updated", h.session.Transport().Status())
}
