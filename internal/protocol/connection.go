// internal/protocol/connection.go
package protocol

import (
	"time"

	"github.com/google/gousb"
)

// FTDI adapter identities
const (
	VendorFTDI     gousb.ID = 0x0403
	ProductFT2232  gousb.ID = 0x6010
	ProductFT260   gousb.ID = 0x6030
	ProductFT232R  gousb.ID = 0x6001
	ProductFT4232H gousb.ID = 0x6011
)

// SerialConfig represents serial connection configuration
type SerialConfig struct {
	Port        string        `json:"port"`
	BaudRate    int           `json:"baud_rate"`
	DataBits    int           `json:"data_bits"`
	StopBits    int           `json:"stop_bits"`
	Parity      string        `json:"parity"`
	FlowControl string        `json:"flow_control"`
	ReadTimeout time.Duration `json:"read_timeout"`
}

// USBConfig represents a vendor-mode FTDI or FT260 HID connection
type USBConfig struct {
	VendorID  gousb.ID      `json:"vendor_id"`
	ProductID gousb.ID      `json:"product_id"`
	Location  string        `json:"location,omitempty"` // "<bus>-<address>", empty matches the first device
	Interface int           `json:"interface"`
	InEP      int           `json:"in_endpoint"`
	OutEP     int           `json:"out_endpoint"`
	Timeout   time.Duration `json:"timeout"`
	HID       bool          `json:"hid"`
	BaudRate  int           `json:"baud_rate"`
}

// TCPConfig represents a network serial bridge connection
type TCPConfig struct {
	Address        string        `json:"address"`
	KeepAlive      bool          `json:"keep_alive"`
	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
}

// Defaults carries the link timings taken from configuration
type Defaults struct {
	SerialReadTimeout time.Duration
	USBTimeout        time.Duration
	TCPConnectTimeout time.Duration
	TCPWriteTimeout   time.Duration
	TCPKeepAlive      bool
}

// DefaultDefaults returns the timings used when configuration leaves them empty
func DefaultDefaults() Defaults {
	return Defaults{
		SerialReadTimeout: 100 * time.Millisecond,
		USBTimeout:        time.Second,
		TCPConnectTimeout: 5 * time.Second,
		TCPWriteTimeout:   2 * time.Second,
		TCPKeepAlive:      true,
	}
}
