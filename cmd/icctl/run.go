// cmd/icctl/run.go
package main

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ic-control/internal/bootstrap"
	"ic-control/internal/config"
	"ic-control/internal/model"
	"ic-control/internal/script"
	"ic-control/internal/service"
	"ic-control/internal/transport"
)

var (
	runOpts = struct {
		device   string
		simulate bool
		protocol string
		logFile  string
	}{}

	runCmd = &cobra.Command{
		Use:   "run <script>",
		Short: "Run a command script against a device",
		Long: "Run a command script line by line and stop at the first failure. Use - to read the script from stdin.\n\n" +
			"Commands:\n  " + strings.Join(script.Commands(), "\n  "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			src, closeSrc, err := openScript(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer closeSrc()

			session, err := newScriptSession(cfg, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if runOpts.device != "" {
				if err := session.Connect(ctx, runOpts.device); err != nil {
					return err
				}
			}

			runErr := script.NewRunner(session, cmd.OutOrStdout(), logger).Run(ctx, src)

			if runOpts.logFile != "" {
				session.Transport().Flush()
				if err := session.Transport().SaveLog(runOpts.logFile, formatFromPath(runOpts.logFile)); err != nil {
					logger.Warn("Failed to save log", zap.String("path", runOpts.logFile), zap.Error(err))
				}
			}

			shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := session.Disconnect(shutdown); err != nil {
				logger.Warn("Failed to disconnect", zap.Error(err))
			}
			return runErr
		},
	}
)

func init() {
	runCmd.Flags().StringVarP(&runOpts.device, "device", "d", "", "Descriptor to connect before the first line")
	runCmd.Flags().BoolVarP(&runOpts.simulate, "simulate", "s", false, "Use the virtual device instead of hardware")
	runCmd.Flags().StringVarP(&runOpts.protocol, "protocol", "p", "", "Active protocol: rffe, spi or i3c. Default: session.protocol from config")
	runCmd.Flags().StringVar(&runOpts.logFile, "log", "", "Write the traffic log to this .csv or .json file when the script ends")
}

func openScript(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// newScriptSession builds a session without persisted settings. Config values
// seed the serial and protocol state.
func newScriptSession(cfg *config.Config, logger *zap.Logger) (*service.DeviceSession, error) {
	state := bootstrap.BaseState(cfg)
	if runOpts.protocol != "" {
		kind, err := model.ParseProtocolKind(strings.ToUpper(runOpts.protocol))
		if err != nil {
			return nil, err
		}
		state.Protocol.Active = kind
	}

	topts := bootstrap.TransportOptions(cfg)
	topts.Simulation = topts.Simulation || runOpts.simulate
	topts.TXEnabled = true
	topts.RXEnabled = true

	registers, _ := bootstrap.LoadRegisters(cfg.Registers.MapPath, logger)
	scanners := bootstrap.NewScannerManager(cfg, logger)
	bridge := bootstrap.NewBridge(cfg, scanners, logger)

	tr := transport.New(bridge, topts, state.Serial, logger)
	return service.NewDeviceSession(tr, registers, state, bootstrap.SessionOptions(cfg), logger), nil
}

func formatFromPath(path string) string {
	if strings.HasSuffix(strings.ToLower(path), "."+transport.FormatJSON) {
		return transport.FormatJSON
	}
	return transport.FormatCSV
}
