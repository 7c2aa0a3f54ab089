// internal/handler/log_handler.go
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ic-control/internal/service"
	"ic-control/internal/transport"
	"ic-control/internal/utils"
)

// LogHandler serves the communication log
type LogHandler struct {
	session *service.DeviceSession
	logger  *utils.ServiceLogger
	now     func() time.Time
}

// NewLogHandler creates a new log handler
func NewLogHandler(session *service.DeviceSession, logger *zap.Logger) *LogHandler {
	return &LogHandler{
		session: session,
		logger:  utils.NewServiceLogger(logger, "log-handler"),
		now:     time.Now,
	}
}

// RegisterRoutes registers log routes
func (h *LogHandler) RegisterRoutes(router *gin.RouterGroup) {
	log := router.Group("/log")
	{
		log.GET("", h.ListEntries)
		log.GET("/export", h.Export)
		log.DELETE("", h.Clear)
		log.PUT("/filters", h.SetFilters)
	}
}

// ListEntries returns the flushed log
// @Summary List log entries
// @Tags Log
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]model.LogEntry}
// @Router /log [get]
func (h *LogHandler) ListEntries(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Log retrieved", h.session.Transport().Entries())
}

// Export downloads the log as csv or json
// @Summary Export log
// @Tags Log
// @Produce text/csv
// @Produce json
// @Param format query string false "Export format" Enums(csv, json) default(csv)
// @Success 200 {string} string "Log file"
// @Failure 400 {object} utils.APIResponse "Unknown format"
// @Failure 404 {object} utils.APIResponse "Log is empty"
// @Router /log/export [get]
func (h *LogHandler) Export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", transport.FormatCSV))
	data, err := h.session.Transport().ExportLog(format)
	if err != nil {
		respondError(c, "Log export failed", err)
		return
	}

	contentType := "text/csv"
	if format == transport.FormatJSON {
		contentType = "application/json"
	}
	filename := transport.DefaultLogFilename(h.now(), format)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, data)
}

// Clear empties the log
// @Summary Clear log
// @Tags Log
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /log [delete]
func (h *LogHandler) Clear(c *gin.Context) {
	h.session.ClearLog()
	utils.SuccessResponse(c, http.StatusOK, "Log cleared", nil)
}

// SetFilters toggles TX and RX capture
// @Summary Set log filters
// @Tags Log
// @Accept json
// @Produce json
// @Param request body FiltersRequest true "Filters"
// @Success 200 {object} utils.APIResponse{data=service.LogFilters}
// @Router /log/filters [put]
func (h *LogHandler) SetFilters(c *gin.Context) {
	var req FiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	h.session.SetLogFilters(*req.TX, *req.RX)
	utils.SuccessResponse(c, http.StatusOK, "Log filters updated", service.LogFilters{TX: *req.TX, RX: *req.RX})
}
