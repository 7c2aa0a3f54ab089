// cmd/icctl/scan.go
package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ic-control/internal/bootstrap"
	"ic-control/internal/discovery"
)

var (
	scanOpts = struct {
		scannerType string
		timeout     time.Duration
	}{}

	scanCmd = &cobra.Command{
		Use:   "scan",
		Short: "List connected bench adapters",
		Long:  "List serial ports, USB bridges and configured TCP bridges. The DESCRIPTOR column is what connect accepts.",
		Args:  cobra.NoArgs,
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

			ctx, cancel := context.WithTimeout(cmd.Context(), scanOpts.timeout)
			defer cancel()

			scanners := bootstrap.NewScannerManager(cfg, logger)
			var devices []*discovery.DiscoveredDevice
			if scanOpts.scannerType == "" {
				devices, err = scanners.ScanAll(ctx)
			} else {
				devices, err = scanners.ScanByType(ctx, scanOpts.scannerType)
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DESCRIPTOR\tTYPE\tVID\tPID\tSERIAL")
			for _, d := range devices {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Descriptor(), d.DeviceType, d.VendorID, d.ProductID, d.SerialNumber)
			}
			return tw.Flush()
		},
	}
)

func init() {
	scanCmd.Flags().StringVarP(&scanOpts.scannerType, "type", "t", "", "Only run one scanner: serial, usb or tcp")
	scanCmd.Flags().DurationVar(&scanOpts.timeout, "timeout", 5*time.Second, "Scan deadline")
}
