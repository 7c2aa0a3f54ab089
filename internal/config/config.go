// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Settings  SettingsConfig  `mapstructure:"settings"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Device    DeviceConfig    `mapstructure:"device"`
	Transport TransportConfig `mapstructure:"transport"`
	Session   SessionConfig   `mapstructure:"session"`
	Registers RegistersConfig `mapstructure:"registers"`
	App       AppConfig       `mapstructure:"app"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// SettingsConfig selects where user settings are persisted
type SettingsConfig struct {
	Backend string `mapstructure:"backend"` // file | postgres
	Path    string `mapstructure:"path"`
}

// DatabaseConfig represents database configuration for the postgres settings backend
type DatabaseConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	DBName       string        `mapstructure:"dbname"`
	SSLMode      string        `mapstructure:"sslmode"`
	MaxOpenConns int           `mapstructure:"max_open_conns"`
	MaxIdleConns int           `mapstructure:"max_idle_conns"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// DeviceConfig represents link-level configuration
type DeviceConfig struct {
	Simulation  bool             `mapstructure:"simulation"`
	ScanTimeout time.Duration    `mapstructure:"scan_timeout"`
	DefaultPort DevicePortConfig `mapstructure:"default_ports"`
}

// DevicePortConfig represents default port configurations
type DevicePortConfig struct {
	Serial SerialPortConfig `mapstructure:"serial"`
	TCP    TCPPortConfig    `mapstructure:"tcp"`
	USB    USBPortConfig    `mapstructure:"usb"`
}

// SerialPortConfig represents serial port defaults
type SerialPortConfig struct {
	BaudRate    int           `mapstructure:"baud_rate"`
	DataBits    int           `mapstructure:"data_bits"`
	StopBits    int           `mapstructure:"stop_bits"`
	Parity      string        `mapstructure:"parity"`
	FlowControl string        `mapstructure:"flow_control"`
	LineEnding  string        `mapstructure:"line_ending"`
	DeviceType  string        `mapstructure:"device_type"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// TCPPortConfig represents TCP bridge configuration
type TCPPortConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	KeepAlive      bool          `mapstructure:"keep_alive"`
	Bridges        []string      `mapstructure:"bridges"`
}

// USBPortConfig represents USB bridge configuration
type USBPortConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	BulkTransferSize int           `mapstructure:"bulk_transfer_size"`
}

// TransportConfig tunes log ingestion and the simulated device
type TransportConfig struct {
	FlushInterval    time.Duration `mapstructure:"flush_interval"`
	MaxEntries       int           `mapstructure:"max_entries"`
	SimulatedLatency time.Duration `mapstructure:"simulated_latency"`
	AckDelay         time.Duration `mapstructure:"ack_delay"`
	TXEnabled        bool          `mapstructure:"tx_enabled"`
	RXEnabled        bool          `mapstructure:"rx_enabled"`
}

// SessionConfig tunes operation feedback
type SessionConfig struct {
	PendingMin     time.Duration `mapstructure:"pending_min"`
	SuccessDisplay time.Duration `mapstructure:"success_display"`
	SimReadDelay   time.Duration `mapstructure:"sim_read_delay"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	Protocol       string        `mapstructure:"protocol"`
}

// RegistersConfig locates the register map file
type RegistersConfig struct {
	MapPath string `mapstructure:"map_path"`
}

// AppConfig represents application metadata
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// Load reads config.yaml from the given directories (or the working
// directory) and overlays IC_CONTROL_* environment variables. A missing
// file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("IC_CONTROL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8084")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Settings defaults
	v.SetDefault("settings.backend", "file")
	v.SetDefault("settings.path", "./data/settings.json")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "ic_control")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_lifetime", "5m")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age", 28)
	v.SetDefault("logging.compress", true)

	// Device defaults
	v.SetDefault("device.simulation", false)
	v.SetDefault("device.scan_timeout", "5s")
	v.SetDefault("device.default_ports.serial.baud_rate", 9600)
	v.SetDefault("device.default_ports.serial.data_bits", 8)
	v.SetDefault("device.default_ports.serial.stop_bits", 1)
	v.SetDefault("device.default_ports.serial.parity", "none")
	v.SetDefault("device.default_ports.serial.flow_control", "none")
	v.SetDefault("device.default_ports.serial.line_ending", "lf")
	v.SetDefault("device.default_ports.serial.device_type", "serialport")
	v.SetDefault("device.default_ports.serial.read_timeout", "100ms")
	v.SetDefault("device.default_ports.tcp.connect_timeout", "5s")
	v.SetDefault("device.default_ports.tcp.write_timeout", "2s")
	v.SetDefault("device.default_ports.tcp.keep_alive", true)
	v.SetDefault("device.default_ports.tcp.bridges", []string{})
	v.SetDefault("device.default_ports.usb.timeout", "1s")
	v.SetDefault("device.default_ports.usb.bulk_transfer_size", 64)

	// Transport defaults
	v.SetDefault("transport.flush_interval", "16ms")
	v.SetDefault("transport.max_entries", 10000)
	v.SetDefault("transport.simulated_latency", "300ms")
	v.SetDefault("transport.ack_delay", "50ms")
	v.SetDefault("transport.tx_enabled", false)
	v.SetDefault("transport.rx_enabled", false)

	// Session defaults
	v.SetDefault("session.pending_min", "400ms")
	v.SetDefault("session.success_display", "2s")
	v.SetDefault("session.sim_read_delay", "200ms")
	v.SetDefault("session.read_timeout", "1s")
	v.SetDefault("session.protocol", "RFFE")

	v.SetDefault("registers.map_path", "")

	// App defaults
	v.SetDefault("app.name", "ic-control")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
}

func oneOf(value string, valid ...string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	if !oneOf(config.Settings.Backend, "file", "postgres") {
		return fmt.Errorf("settings.backend must be one of: [file postgres]")
	}
	if config.Settings.Backend == "file" && config.Settings.Path == "" {
		return fmt.Errorf("settings.path is required for the file backend")
	}
	if config.Settings.Backend == "postgres" && config.Database.Host == "" {
		return fmt.Errorf("database.host is required for the postgres backend")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !oneOf(config.Logging.Level, validLevels...) {
		return fmt.Errorf("logging.level must be one of: %v", validLevels)
	}

	serial := config.Device.DefaultPort.Serial
	if !oneOf(serial.LineEnding, "none", "lf", "crlf", "cr") {
		return fmt.Errorf("device.default_ports.serial.line_ending must be one of: [none lf crlf cr]")
	}
	if !oneOf(serial.DeviceType, "serialport", "ft2232d", "ft2232h", "ft260", "tcp") {
		return fmt.Errorf("device.default_ports.serial.device_type is not supported: %s", serial.DeviceType)
	}

	if !oneOf(strings.ToUpper(config.Session.Protocol), "RFFE", "SPI", "I3C") {
		return fmt.Errorf("session.protocol must be one of: [RFFE SPI I3C]")
	}

	if config.Transport.MaxEntries <= 0 {
		return fmt.Errorf("transport.max_entries must be positive")
	}

	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN returns the lib/pq connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// GetServerAddr returns the server address
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsDevelopment checks if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsDebugEnabled checks if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.IsDevelopment()
}
