// internal/handler/register_handler.go
package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"ic-control/internal/register"
	"ic-control/internal/service"
	"ic-control/internal/utils"
)

const yamlContentType = "application/x-yaml"

// maxMapUpload bounds an imported register map
const maxMapUpload = 4 << 20

// RegisterHandler exposes the register map and register I/O
type RegisterHandler struct {
	session *service.DeviceSession
	mapPath string
	logger  *utils.ServiceLogger
}

// NewRegisterHandler creates a new register handler. mapPath is where save
// writes the map; empty disables saving.
func NewRegisterHandler(session *service.DeviceSession, mapPath string, logger *zap.Logger) *RegisterHandler {
	return &RegisterHandler{
		session: session,
		mapPath: mapPath,
		logger:  utils.NewServiceLogger(logger, "register-handler"),
	}
}

// RegisterReadResult is the value read back from the device
type RegisterReadResult struct {
	Address uint32 `json:"address"`
	Value   uint32 `json:"value"`
	Hex     string `json:"hex"`
}

// RegisterRoutes registers register-map routes
func (h *RegisterHandler) RegisterRoutes(router *gin.RouterGroup) {
	registers := router.Group("/registers")
	{
		registers.GET("", h.ListRegisters)
		registers.GET("/export", h.ExportMap)
		registers.POST("/import", h.ImportMap)
		registers.POST("/save", h.SaveMap)

		reg := registers.Group("/:address")
		{
			reg.GET("", h.GetRegister)
			reg.PUT("", h.WriteRegister)
			reg.POST("/read", h.ReadRegister)
			reg.PUT("/fields/:field", h.WriteField)
		}
	}
}

// ListRegisters returns every register ordered by address
// @Summary List registers
// @Tags Registers
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]register.Register}
// @Router /registers [get]
func (h *RegisterHandler) ListRegisters(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Registers retrieved", h.session.Registers().List())
}

// GetRegister returns one register
// @Summary Get register
// @Tags Registers
// @Produce json
// @Param address path string true "Address, decimal or 0x hex"
// @Success 200 {object} utils.APIResponse{data=register.Register}
// @Failure 404 {object} utils.APIResponse "Unknown register"
// @Router /registers/{address} [get]
func (h *RegisterHandler) GetRegister(c *gin.Context) {
	address, ok := h.address(c)
	if !ok {
		return
	}
	reg, found := h.session.Registers().Get(address)
	if !found {
		respondError(c, "Register not found", register.ErrRegisterNotFound)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Register retrieved", reg)
}

// WriteRegister writes a whole register through the active protocol
// @Summary Write register
// @Tags Registers
// @Accept json
// @Produce json
// @Param address path string true "Address, decimal or 0x hex"
// @Param request body ValueRequest true "Value, number or 0x hex string"
// @Success 200 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse "Not connected"
// @Failure 502 {object} utils.APIResponse "Send failed"
// @Router /registers/{address} [put]
func (h *RegisterHandler) WriteRegister(c *gin.Context) {
	address, ok := h.address(c)
	if !ok {
		return
	}
	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.session.WriteRegister(c.Request.Context(), address, uint32(*req.Value)); err != nil {
		respondError(c, "Register write failed", err)
		return
	}
	reg, _ := h.session.Registers().Get(address)
	utils.SuccessResponse(c, http.StatusOK, "Register written", reg)
}

// ReadRegister reads a register back from the device
// @Summary Read register
// @Tags Registers
// @Produce json
// @Param address path string true "Address, decimal or 0x hex"
// @Success 200 {object} utils.APIResponse{data=RegisterReadResult}
// @Failure 409 {object} utils.APIResponse "Not connected"
// @Failure 504 {object} utils.APIResponse "No response"
// @Router /registers/{address}/read [post]
func (h *RegisterHandler) ReadRegister(c *gin.Context) {
	address, ok := h.address(c)
	if !ok {
		return
	}
	value, err := h.session.ReadRegister(c.Request.Context(), address)
	if err != nil {
		respondError(c, "Register read failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Register read", RegisterReadResult{
		Address: address,
		Value:   value,
		Hex:     formatHex(value),
	})
}

// WriteField performs a read-modify-write of one bitfield
// @Summary Write bitfield
// @Description The register is pushed to the device unless it is read-only
// @Tags Registers
// @Accept json
// @Produce json
// @Param address path string true "Address, decimal or 0x hex"
// @Param field path string true "Field name"
// @Param request body ValueRequest true "Field value"
// @Success 200 {object} utils.APIResponse{data=register.Register}
// @Failure 404 {object} utils.APIResponse "Unknown register or field"
// @Failure 502 {object} utils.APIResponse "Write-back failed, model already updated"
// @Router /registers/{address}/fields/{field} [put]
func (h *RegisterHandler) WriteField(c *gin.Context) {
	address, ok := h.address(c)
	if !ok {
		return
	}
	var req ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := h.session.WriteBitfield(c.Request.Context(), address, c.Param("field"), uint32(*req.Value)); err != nil {
		respondError(c, "Field write failed", err)
		return
	}
	reg, _ := h.session.Registers().Get(address)
	utils.SuccessResponse(c, http.StatusOK, "Field written", reg)
}

// ExportMap downloads the map as YAML
// @Summary Export register map
// @Tags Registers
// @Produce application/x-yaml
// @Success 200 {string} string "YAML register map"
// @Router /registers/export [get]
func (h *RegisterHandler) ExportMap(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.session.Registers().Encode(&buf); err != nil {
		utils.ErrorResponse(c, http.StatusInternalServerError, "Register map export failed", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+register.UserMapFilename+`"`)
	c.Data(http.StatusOK, yamlContentType, buf.Bytes())
}

// ImportMap replaces the map with an uploaded YAML document
// @Summary Import register map
// @Description A malformed document leaves the current map untouched
// @Tags Registers
// @Accept application/x-yaml
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse "Malformed map"
// @Router /registers/import [post]
func (h *RegisterHandler) ImportMap(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxMapUpload))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	var raw interface{}
	if err := yaml.Unmarshal(body, &raw); err != nil {
		respondError(c, "Invalid register map", &register.MapParseError{Reason: "invalid yaml", Err: err})
		return
	}
	if err := h.session.Registers().Import(raw); err != nil {
		respondError(c, "Invalid register map", err)
		return
	}

	h.logger.Info("Register map imported", zap.Int("registers", h.session.Registers().Len()))
	utils.SuccessResponse(c, http.StatusOK, "Register map imported", gin.H{"registers": h.session.Registers().Len()})
}

// SaveMap writes the map to its configured file
// @Summary Save register map
// @Tags Registers
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 503 {object} utils.APIResponse "No map file configured"
// @Router /registers/save [post]
func (h *RegisterHandler) SaveMap(c *gin.Context) {
	if h.mapPath == "" {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "No register map file configured", nil)
		return
	}
	if err := h.session.Registers().SaveFile(h.mapPath); err != nil {
		h.logger.Error("Register map save failed", zap.String("path", h.mapPath), zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Register map save failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Register map saved", gin.H{"path": h.mapPath})
}

func (h *RegisterHandler) address(c *gin.Context) (uint32, bool) {
	address, err := parseAddress(c.Param("address"))
	if err != nil {
		utils.ValidationErrorResponse(c, map[string]string{"address": err.Error()})
		return 0, false
	}
	return address, true
}
