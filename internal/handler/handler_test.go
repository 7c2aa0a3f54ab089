package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"ic-control/internal/config"
	"ic-control/internal/encoder"
	"ic-control/internal/register"
	"ic-control/internal/service"
	"ic-control/internal/transport"
	"ic-control/internal/transport/transporttest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPort = "COM7"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type testEnv struct {
	router  *gin.Engine
	session *service.DeviceSession
	driver  *transporttest.Driver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	drv := transporttest.NewDriver()
	drv.Ports = []string{testPort}

	topts := transport.DefaultOptions()
	topts.FlushInterval = time.Hour
	topts.SimulatedLatency = time.Millisecond
	topts.AckDelay = time.Millisecond

	opts := service.DefaultOptions()
	opts.PendingMin = 0
	opts.SuccessDisplay = time.Hour
	opts.ReadTimeout = 100 * time.Millisecond

	state := service.DefaultState()
	tr := transport.New(drv, topts, state.Serial, nil)
	session := service.NewDeviceSession(tr, register.NewDefault(), state, opts, nil)

	logger := zap.NewNop()
	router := gin.New()
	api := router.Group("/api/v1")
	NewDeviceHandler(session, logger).RegisterRoutes(api)
	NewDiscoveryHandler(session, nil, logger).RegisterRoutes(api)
	NewSettingsHandler(session, logger).RegisterRoutes(api)
	NewOperationHandler(session, logger).RegisterRoutes(api)
	NewRegisterHandler(session, "", logger).RegisterRoutes(api)
	NewLogHandler(session, logger).RegisterRoutes(api)
	NewHealthHandler(nil, session, nil, &config.Config{}, logger).RegisterRoutes(&router.RouterGroup)

	return &testEnv{router: router, session: session, driver: drv}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (e *testEnv) connect(t *testing.T) {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/api/v1/session/connect", `{"device":"`+testPort+` (FTDI VID:0403 PID:6001)"}`)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("connect: status %d body %s", w.Code, w.Body.String())
	}
}

func errorCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func TestConnectAndClock(t *testing.T) {
	e := newTestEnv(t)
	e.connect(t)

	if got := e.driver.LastPort(); got != testPort {
		t.Errorf("opened port = %q, want %q", got, testPort)
	}

	w, _ := e.do(t, http.MethodPost, "/api/v1/commands/clock", "")
	if w.Code != http.StatusOK {
		t.Fatalf("clock: status %d body %s", w.Code, w.Body.String())
	}
	want := []string{"clock 26000\n", "hsdr 0\n"}
	if diff := cmp.Diff(want, e.driver.Writes()); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name       string
		connect    bool
		writeErrs  map[int]error
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not connected",
			path:       "/api/v1/commands/clock",
			wantStatus: http.StatusConflict,
			wantCode:   "NOT_CONNECTED",
		},
		{
			name:       "second command fails",
			connect:    true,
			writeErrs:  map[int]error{1: errors.New("nak")},
			path:       "/api/v1/commands/clock",
			wantStatus: http.StatusBadGateway,
			wantCode:   "SEQUENCE_ABORTED",
		},
		{
			name:       "raw without data",
			connect:    true,
			path:       "/api/v1/commands/raw",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			e.driver.WriteErrs = tt.writeErrs
			if tt.connect {
				e.connect(t)
			}
			w, env := e.do(t, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := errorCode(env); got != tt.wantCode {
				t.Errorf("error code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestRegisterEndpoints(t *testing.T) {
	e := newTestEnv(t)
	e.connect(t)

	w, _ := e.do(t, http.MethodPut, "/api/v1/registers/0x03", `{"value":"0x2A"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("write: status %d body %s", w.Code, w.Body.String())
	}
	if diff := cmp.Diff([]string{"rw 0 03 2A\n"}, e.driver.Writes()); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}

	w, env := e.do(t, http.MethodGet, "/api/v1/registers/3", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: status %d", w.Code)
	}
	var reg register.Register
	if err := json.Unmarshal(env.Data, &reg); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	if reg.Value != 0x2A {
		t.Errorf("register value = %#x, want 0x2a", reg.Value)
	}

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"bad address", http.MethodGet, "/api/v1/registers/zz", "", http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown register", http.MethodGet, "/api/v1/registers/0x99", "", http.StatusNotFound, "REGISTER_NOT_FOUND"},
		{"unknown field", http.MethodPut, "/api/v1/registers/0x01/fields/NOPE", `{"value":1}`, http.StatusNotFound, "FIELD_NOT_FOUND"},
		{"value missing", http.MethodPut, "/api/v1/registers/0x01", `{}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"value too large", http.MethodPut, "/api/v1/registers/0x01", `{"value":"0x1FFFFFFFF"}`, http.StatusBadRequest, "BAD_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := e.do(t, tt.method, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := errorCode(env); got != tt.wantCode {
				t.Errorf("error code = %q, want %q", got, tt.wantCode)
			}
		})
	}
}

func TestWriteFieldPushesRegister(t *testing.T) {
	e := newTestEnv(t)
	e.connect(t)

	w, _ := e.do(t, http.MethodPut, "/api/v1/registers/0x01/fields/MODE", `{"value":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d body %s", w.Code, w.Body.String())
	}
	if diff := cmp.Diff([]string{"rw 0 01 06\n"}, e.driver.Writes()); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterMapImportExport(t *testing.T) {
	e := newTestEnv(t)

	doc := "registers:\n  - address: 0x10\n    name: GAIN\n    value: 0x05\n"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/registers/import", strings.NewReader(doc))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("import: status %d body %s", w.Code, w.Body.String())
	}
	if got := e.session.Registers().Len(); got != 1 {
		t.Fatalf("registers after import = %d, want 1", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/registers/import", strings.NewReader("- just\n- a list\n"))
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed import: status %d, want 400", w.Code)
	}
	if got := e.session.Registers().Len(); got != 1 {
		t.Errorf("malformed import changed the map: %d registers", got)
	}

	w, _ = e.do(t, http.MethodGet, "/api/v1/registers/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export: status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "GAIN") {
		t.Errorf("export missing register:\n%s", w.Body.String())
	}

	w, env := e.do(t, http.MethodPost, "/api/v1/registers/save", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("save without path: status %d, want 503 (%s)", w.Code, errorCode(env))
	}
}

func TestLogExport(t *testing.T) {
	e := newTestEnv(t)

	w, env := e.do(t, http.MethodGet, "/api/v1/log/export", "")
	if w.Code != http.StatusNotFound || errorCode(env) != "LOG_EMPTY" {
		t.Fatalf("empty export: status %d code %q", w.Code, errorCode(env))
	}

	e.connect(t)
	if w, _ := e.do(t, http.MethodPost, "/api/v1/commands/raw", `{"data":"RREG:0x1C"}`); w.Code != http.StatusOK {
		t.Fatalf("raw: status %d", w.Code)
	}
	e.session.Transport().Flush()

	w, _ = e.do(t, http.MethodGet, "/api/v1/log/export?format=csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export: status %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "serial_log_") || !strings.HasSuffix(cd, `.csv"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), `TX,COM7,"RREG:0x1C"`) {
		t.Errorf("csv body:\n%s", w.Body.String())
	}

	w, env = e.do(t, http.MethodGet, "/api/v1/log/export?format=xml", "")
	if w.Code != http.StatusBadRequest || errorCode(env) != "UNKNOWN_FORMAT" {
		t.Errorf("xml export: status %d code %q", w.Code, errorCode(env))
	}

	if w, _ := e.do(t, http.MethodDelete, "/api/v1/log", ""); w.Code != http.StatusOK {
		t.Fatalf("clear: status %d", w.Code)
	}
	if n := e.session.Transport().Len(); n != 0 {
		t.Errorf("log length after clear = %d", n)
	}
}

func TestLogFilters(t *testing.T) {
	e := newTestEnv(t)

	w, _ := e.do(t, http.MethodPut, "/api/v1/log/filters", `{"tx":false,"rx":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	st := e.session.Transport().Status()
	if st.TXEnabled || !st.RXEnabled {
		t.Errorf("filters = tx:%v rx:%v, want tx:false rx:true", st.TXEnabled, st.RXEnabled)
	}

	w, _ = e.do(t, http.MethodPut, "/api/v1/log/filters", `{"tx":true}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("partial filters: status %d, want 400", w.Code)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"select spi", "/api/v1/settings/protocol/active", `{"protocol":"SPI"}`, http.StatusOK},
		{"unknown protocol", "/api/v1/settings/protocol/active", `{"protocol":"CAN"}`, http.StatusBadRequest},
		{"negative voltage", "/api/v1/settings/control", `{"voltage":"-1","frequency_hz":1000}`, http.StatusBadRequest},
		{"control", "/api/v1/settings/control", `{"voltage":"1.8","frequency_hz":32768,"vio":1}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := e.do(t, http.MethodPut, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}

	st := e.session.State()
	if st.Protocol.Active != "SPI" {
		t.Errorf("active protocol = %q, want SPI", st.Protocol.Active)
	}
	if st.Control.Voltage.String() != "1.8" || st.Control.FrequencyHz != 32768 {
		t.Errorf("control = %+v", st.Control)
	}
}

func TestScanAndHealth(t *testing.T) {
	e := newTestEnv(t)

	w, env := e.do(t, http.MethodGet, "/api/v1/devices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("scan: status %d", w.Code)
	}
	var devices []string
	if err := json.Unmarshal(env.Data, &devices); err != nil {
		t.Fatalf("decode devices: %v", err)
	}
	if diff := cmp.Diff([]string{testPort}, devices); diff != "" {
		t.Errorf("devices mismatch (-want +got):\n%s", diff)
	}

	if w, _ := e.do(t, http.MethodGet, "/api/v1/devices/details", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("details without scanners: status %d, want 503", w.Code)
	}

	for _, path := range []string{"/health", "/ready", "/live"} {
		if w, _ := e.do(t, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, w.Code)
		}
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{transport.ErrNotConnected, http.StatusConflict, "NOT_CONNECTED"},
		{transport.ErrConnectInProgress, http.StatusConflict, "CONNECT_IN_PROGRESS"},
		{&transport.ConnectionError{Device: "COM3", Err: errors.New("busy")}, http.StatusBadGateway, "CONNECTION_FAILED"},
		{&transport.SendError{Command: "rw 0 01 00", Err: errors.New("io")}, http.StatusBadGateway, "SEND_FAILED"},
		{&service.ReadError{Address: 1, Err: transport.ErrResponseTimeout}, http.StatusGatewayTimeout, "READ_TIMEOUT"},
		{fmt.Errorf("wrap: %w", service.ErrInvalidSettings), http.StatusBadRequest, "INVALID_SETTINGS"},
		{register.ErrRegisterNotFound, http.StatusNotFound, "REGISTER_NOT_FOUND"},
		{&encoder.UnsupportedProtocolError{}, http.StatusBadRequest, "UNSUPPORTED_PROTOCOL"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			status, code := errorStatus(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("errorStatus(%v) = %d %s, want %d %s", tt.err, status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    Number
		wantErr bool
	}{
		{in: `42`, want: 42},
		{in: `"42"`, want: 42},
		{in: `"0x2A"`, want: 0x2A},
		{in: `"0XFF"`, want: 0xFF},
		{in: `-1`, wantErr: true},
		{in: `"nope"`, wantErr: true},
		{in: `true`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var n Number
			err := json.Unmarshal([]byte(tt.in), &n)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && n != tt.want {
				t.Errorf("got %d, want %d", n, tt.want)
			}
		})
	}
}
