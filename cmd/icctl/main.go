// cmd/icctl/main.go

// icctl is the bench command line for the IC control stack. It encodes
// protocol commands offline, inspects register maps, lists adapters and runs
// command scripts against a device.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ic-control/internal/config"
	"ic-control/internal/register"
	"ic-control/internal/utils"
)

var (
	rootOpts = struct {
		configDir string
		verbose   bool
	}{}

	rootCmd = &cobra.Command{
		Use:           "icctl",
		Short:         "Drive and inspect the IC control bench",
		Long:          "icctl encodes RFFE, SPI and I3C commands, manages register maps, lists bench adapters and runs command scripts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.configDir, "config", "c", "", "Directory holding config.yaml. Default: . and ./config")
	rootCmd.PersistentFlags().BoolVarP(&rootOpts.verbose, "verbose", "v", false, "Log at debug level to stderr")

	rootCmd.AddCommand(encodeCmd, regmapCmd, scanCmd, runCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "icctl:", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if rootOpts.configDir != "" {
		return config.Load(rootOpts.configDir)
	}
	return config.Load()
}

// newLogger logs to stderr so stdout stays clean for command output
func newLogger() (*zap.Logger, error) {
	cfg := config.LoggingConfig{Level: "warn", Format: "console", Output: "stderr"}
	if rootOpts.verbose {
		cfg.Level = "debug"
	}
	return utils.NewLogger(&cfg)
}

func parseUint32(s string) (uint32, error) {
	n, ok := register.ParseNumber(s)
	if !ok || n > 0xFFFFFFFF {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return uint32(n), nil
}
