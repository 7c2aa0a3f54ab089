// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "ic-control/docs"
	"ic-control/internal/bootstrap"
	"ic-control/internal/config"
	"ic-control/internal/database"
	"ic-control/internal/discovery"
	"ic-control/internal/protocol"
	"ic-control/internal/register"
	"ic-control/internal/repository"
	"ic-control/internal/routes"
	"ic-control/internal/service"
	"ic-control/internal/transport"
	"ic-control/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB
	router   *routes.Router

	scanners  *discovery.ScannerManager
	bridge    *protocol.Bridge
	registers *register.Map
	session   *service.DeviceSession
	settings  repository.SettingsRepository
}

// @title IC Control API
// @version 1.0
// @description Bench controller for RFFE, SPI and I3C test ICs behind FTDI and TCP bridges.
// @host localhost:8084
// @BasePath /api/v1
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "ic-control")
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeSettingsStore(); err != nil {
		return nil, fmt.Errorf("failed to initialize settings store: %w", err)
	}

	app.initializeRegisters()
	app.initializeDevices()

	if err := app.initializeSession(); err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}

	app.initializeServer()
	return app, nil
}

// initializeSettingsStore opens the configured settings backend. The
// postgres backend also runs migrations.
func (app *Application) initializeSettingsStore() error {
	switch app.config.Settings.Backend {
	case "postgres":
		db, err := database.NewConnection(&app.config.Database, app.logger)
		if err != nil {
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		app.database = db

		if err := database.NewMigrator(db, app.logger).Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
		app.settings = repository.NewSettingsRepository(db, app.logger)
	default:
		app.settings = repository.NewFileRepository(app.config.Settings.Path, app.logger)
	}

	app.logger.Info("Settings store initialized", zap.String("backend", app.config.Settings.Backend))
	return nil
}

// initializeRegisters loads the register map and remembers where it lives
func (app *Application) initializeRegisters() {
	app.registers, app.config.Registers.MapPath = bootstrap.LoadRegisters(app.config.Registers.MapPath, app.logger)
	app.logger.Info("Register map loaded",
		zap.String("path", app.config.Registers.MapPath),
		zap.Int("registers", app.registers.Len()),
	)
}

// initializeDevices registers the scanners and the hardware bridge
func (app *Application) initializeDevices() {
	app.scanners = bootstrap.NewScannerManager(app.config, app.logger)
	app.bridge = bootstrap.NewBridge(app.config, app.scanners, app.logger)
}

// initializeSession restores the persisted state and builds the session
func (app *Application) initializeSession() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	persister := service.NewSettingsPersister(app.settings, app.logger)
	state, err := persister.LoadOver(ctx, bootstrap.BaseState(app.config))
	if err != nil {
		return err
	}

	tr := transport.New(app.bridge, bootstrap.TransportOptions(app.config), state.Serial, app.logger)
	app.session = service.NewDeviceSession(tr, app.registers, state, bootstrap.SessionOptions(app.config), app.logger)
	persister.Attach(app.session)

	app.logger.Info("Session initialized",
		zap.String("protocol", string(state.Protocol.Active)),
		zap.String("device_type", string(state.Serial.DeviceType)),
		zap.Bool("simulation", app.config.Device.Simulation),
	)
	return nil
}

func (app *Application) initializeServer() {
	app.router = routes.NewRouter(app.config, app.logger, app.session, routes.Options{
		DB:       app.database,
		Scanners: app.scanners,
		Link:     app.bridge,
	})

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      app.router.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized", zap.String("address", app.config.GetServerAddr()))
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "ic-control")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app.router.Close()
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if err := app.session.Disconnect(ctx); err != nil {
		app.logger.Warn("Device disconnect error", zap.Error(err))
	}

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")
	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start serves HTTP until a shutdown signal arrives
func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))

		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.waitForShutdown()
	return nil
}
