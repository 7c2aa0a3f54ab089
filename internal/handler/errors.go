// internal/handler/errors.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ic-control/internal/discovery"
	"ic-control/internal/encoder"
	"ic-control/internal/register"
	"ic-control/internal/service"
	"ic-control/internal/transport"
	"ic-control/internal/utils"
)

// errorStatus maps domain errors onto an HTTP status and a machine code
func errorStatus(err error) (int, string) {
	var (
		connErr     *transport.ConnectionError
		sendErr     *transport.SendError
		exportErr   *transport.ExportError
		formatErr   *transport.UnknownFormatError
		abortErr    *service.SequenceAbortError
		parseErr    *register.MapParseError
		writeBack   *register.WriteBackError
		unsupported *encoder.UnsupportedProtocolError
	)

	switch {
	case errors.Is(err, transport.ErrResponseTimeout):
		return http.StatusGatewayTimeout, "READ_TIMEOUT"
	case errors.Is(err, transport.ErrNotConnected):
		return http.StatusConflict, "NOT_CONNECTED"
	case errors.As(err, &abortErr):
		return http.StatusBadGateway, "SEQUENCE_ABORTED"
	case errors.Is(err, transport.ErrConnectInProgress):
		return http.StatusConflict, "CONNECT_IN_PROGRESS"
	case errors.As(err, &connErr):
		return http.StatusBadGateway, "CONNECTION_FAILED"
	case errors.As(err, &sendErr):
		return http.StatusBadGateway, "SEND_FAILED"
	case errors.As(err, &writeBack):
		return http.StatusBadGateway, "WRITE_BACK_FAILED"
	case errors.Is(err, transport.ErrNothingToExport):
		return http.StatusNotFound, "LOG_EMPTY"
	case errors.Is(err, transport.ErrExportCancelled):
		return http.StatusBadRequest, "EXPORT_CANCELLED"
	case errors.As(err, &exportErr):
		return http.StatusInternalServerError, "EXPORT_FAILED"
	case errors.As(err, &formatErr):
		return http.StatusBadRequest, "UNKNOWN_FORMAT"
	case errors.Is(err, service.ErrInvalidSettings):
		return http.StatusBadRequest, "INVALID_SETTINGS"
	case errors.Is(err, register.ErrRegisterNotFound):
		return http.StatusNotFound, "REGISTER_NOT_FOUND"
	case errors.Is(err, register.ErrFieldNotFound):
		return http.StatusNotFound, "FIELD_NOT_FOUND"
	case errors.As(err, &parseErr):
		return http.StatusBadRequest, "MAP_PARSE_FAILED"
	case errors.Is(err, discovery.ErrUnknownScanner):
		return http.StatusNotFound, "UNKNOWN_SCANNER"
	case errors.Is(err, discovery.ErrScannerUnavailable):
		return http.StatusServiceUnavailable, "SCANNER_UNAVAILABLE"
	case errors.As(err, &unsupported):
		return http.StatusBadRequest, "UNSUPPORTED_PROTOCOL"
	}
	return http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"
}

// respondError writes the envelope for a domain error
func respondError(c *gin.Context, message string, err error) {
	status, code := errorStatus(err)
	utils.CodedErrorResponse(c, status, code, message, err)
}
