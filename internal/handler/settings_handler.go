// internal/handler/settings_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ic-control/internal/model"
	"ic-control/internal/service"
	"ic-control/internal/utils"
)

// SettingsHandler reads and replaces the editable session settings
type SettingsHandler struct {
	session *service.DeviceSession
	logger  *utils.ServiceLogger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(session *service.DeviceSession, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		session: session,
		logger:  utils.NewServiceLogger(logger, "settings-handler"),
	}
}

// RegisterRoutes registers settings routes
func (h *SettingsHandler) RegisterRoutes(router *gin.RouterGroup) {
	settings := router.Group("/settings")
	{
		settings.GET("", h.GetSettings)
		settings.PUT("/serial", h.UpdateSerial)
		settings.PUT("/protocol", h.UpdateProtocol)
		settings.PUT("/protocol/active", h.SetActiveProtocol)
		settings.PUT("/control", h.UpdateControl)
	}
}

// GetSettings returns serial, protocol and control settings
// @Summary Get settings
// @Tags Settings
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.State}
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Settings retrieved", h.session.State())
}

// UpdateSerial replaces the link settings
// @Summary Update serial settings
// @Description Port parameters apply on the next connect, the line ending immediately
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body model.SerialSettings true "Serial settings"
// @Success 200 {object} utils.APIResponse{data=model.SerialSettings}
// @Failure 400 {object} utils.APIResponse "Invalid settings"
// @Router /settings/serial [put]
func (h *SettingsHandler) UpdateSerial(c *gin.Context) {
	var req model.SerialSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.session.UpdateSerialSettings(req); err != nil {
		respondError(c, "Invalid serial settings", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Serial settings updated", h.session.State().Serial)
}

// UpdateProtocol replaces the protocol configuration
// @Summary Update protocol configuration
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body model.ProtocolConfig true "Protocol configuration"
// @Success 200 {object} utils.APIResponse{data=model.ProtocolConfig}
// @Failure 400 {object} utils.APIResponse "Invalid settings"
// @Router /settings/protocol [put]
func (h *SettingsHandler) UpdateProtocol(c *gin.Context) {
	var req model.ProtocolConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.session.UpdateProtocol(req); err != nil {
		respondError(c, "Invalid protocol configuration", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Protocol updated", h.session.State().Protocol)
}

// SetActiveProtocol switches between RFFE, SPI and I3C
// @Summary Select protocol
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body ActiveProtocolRequest true "Protocol"
// @Success 200 {object} utils.APIResponse{data=model.ProtocolConfig}
// @Failure 400 {object} utils.APIResponse "Unknown protocol"
// @Router /settings/protocol/active [put]
func (h *SettingsHandler) SetActiveProtocol(c *gin.Context) {
	var req ActiveProtocolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.session.SetActiveProtocol(model.ProtocolKind(req.Protocol)); err != nil {
		respondError(c, "Invalid protocol", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Protocol selected", h.session.State().Protocol)
}

// UpdateControl replaces voltage, frequency, VIO and register value
// @Summary Update control values
// @Tags Settings
// @Accept json
// @Produce json
// @Param request body model.ControlState true "Control values"
// @Success 200 {object} utils.APIResponse{data=model.ControlState}
// @Failure 400 {object} utils.APIResponse "Invalid settings"
// @Router /settings/control [put]
func (h *SettingsHandler) UpdateControl(c *gin.Context) {
	var req model.ControlState
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.session.UpdateControl(req); err != nil {
		respondError(c, "Invalid control values", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Control values updated", h.session.State().Control)
}
