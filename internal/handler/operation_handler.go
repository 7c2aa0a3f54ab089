// internal/handler/operation_handler.go
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ic-control/internal/model"
	"ic-control/internal/service"
	"ic-control/internal/utils"
)

// OperationHandler triggers device command sequences
type OperationHandler struct {
	session *service.DeviceSession
	logger  *utils.ServiceLogger
}

// NewOperationHandler creates a new operation handler
func NewOperationHandler(session *service.DeviceSession, logger *zap.Logger) *OperationHandler {
	return &OperationHandler{
		session: session,
		logger:  utils.NewServiceLogger(logger, "operation-handler"),
	}
}

// RegisterRoutes registers command routes
func (h *OperationHandler) RegisterRoutes(router *gin.RouterGroup) {
	commands := router.Group("/commands")
	{
		commands.POST("/output-level", h.apply(model.OperationOutputLevel, h.session.ApplyOutputLevel))
		commands.POST("/clock", h.apply(model.OperationClockConfig, h.session.ApplyClockConfig))
		commands.POST("/voltage", h.apply(model.OperationVoltage, h.session.ApplyVoltage))
		commands.POST("/frequency", h.apply(model.OperationFrequency, h.session.ApplyFrequency))
		commands.POST("/register-value", h.apply(model.OperationRegisterValue, h.session.ApplyRegisterValue))
		commands.POST("/raw", h.SendRaw)
		commands.GET("/outcomes", h.GetOutcomes)
	}
}

// apply wraps a session operation that takes its parameters from the
// stored settings
// @Summary Apply a stored setting to the device
// @Description output-level sends vio, clock sends the active protocol's clock sequence,
// @Description voltage, frequency and register-value send the legacy commands
// @Tags Commands
// @Produce json
// @Success 200 {object} utils.APIResponse{data=model.SendOutcome}
// @Failure 409 {object} utils.APIResponse "Not connected"
// @Failure 502 {object} utils.APIResponse "Send failed or sequence aborted"
// @Router /commands/{operation} [post]
func (h *OperationHandler) apply(op model.Operation, fn func(context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := fn(c.Request.Context()); err != nil {
			h.logger.Warn("Operation failed", zap.String("operation", string(op)), zap.Error(err))
			respondError(c, "Operation failed", err)
			return
		}
		utils.SuccessResponse(c, http.StatusOK, "Operation sent", h.session.Outcome(op))
	}
}

// SendRaw sends a free-form command line
// @Summary Send raw command
// @Tags Commands
// @Accept json
// @Produce json
// @Param request body RawRequest true "Command text without line ending"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse "Not connected"
// @Failure 502 {object} utils.APIResponse "Send failed"
// @Router /commands/raw [post]
func (h *OperationHandler) SendRaw(c *gin.Context) {
	var req RawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.session.SendRaw(c.Request.Context(), req.Data); err != nil {
		respondError(c, "Send failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Command sent", nil)
}

// GetOutcomes returns the feedback state of every operation
// @Summary Operation outcomes
// @Tags Commands
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /commands/outcomes [get]
func (h *OperationHandler) GetOutcomes(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Outcomes retrieved", h.session.Snapshot().Outcomes)
}
