// cmd/icctl/encode.go
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ic-control/internal/encoder"
	"ic-control/internal/model"
)

var (
	encodeOpts = struct {
		protocol string
		params   string
	}{}

	encodeCmd = &cobra.Command{
		Use:   "encode",
		Short: "Print the command lines an intent encodes to",
		Long:  "Encode register writes, clock setup, IO level and register reads for the selected protocol without touching a device.",
	}

	encodeWriteCmd = &cobra.Command{
		Use:   "write <address> <value>",
		Short: "Encode a register write",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProtocolConfig()
			if err != nil {
				return err
			}
			address, err := parseUint32(args[0])
			if err != nil {
				return err
			}
			value, err := parseUint32(args[1])
			if err != nil {
				return err
			}
			enc, err := encoder.WriteRegister(cfg, address, value)
			if err != nil {
				return err
			}
			return printEncoded(cmd.OutOrStdout(), cmd.ErrOrStderr(), enc)
		},
	}

	encodeClockCmd = &cobra.Command{
		Use:   "clock",
		Short: "Encode the clock and mode setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadProtocolConfig()
			if err != nil {
				return err
			}
			enc, err := encoder.ClockConfig(cfg)
			if err != nil {
				return err
			}
			return printEncoded(cmd.OutOrStdout(), cmd.ErrOrStderr(), enc)
		},
	}

	encodeVIOCmd = &cobra.Command{
		Use:   "vio <level>",
		Short: "Encode the IO voltage level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseUint32(args[0])
			if err != nil {
				return err
			}
			return printEncoded(cmd.OutOrStdout(), cmd.ErrOrStderr(), encoder.OutputLevel(uint(level)))
		},
	}

	encodeReadCmd = &cobra.Command{
		Use:   "read <address>",
		Short: "Encode a register read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := parseUint32(args[0])
			if err != nil {
				return err
			}
			return printEncoded(cmd.OutOrStdout(), cmd.ErrOrStderr(), encoder.ReadRegister(address))
		},
	}
)

func init() {
	encodeCmd.PersistentFlags().StringVarP(&encodeOpts.protocol, "protocol", "p", "", "Protocol to encode for: rffe, spi or i3c. Default: the params file or RFFE")
	encodeCmd.PersistentFlags().StringVarP(&encodeOpts.params, "params", "f", "", "YAML or JSON file with protocol parameters (active, rffe, spi, i3c)")

	encodeCmd.AddCommand(encodeWriteCmd, encodeClockCmd, encodeVIOCmd, encodeReadCmd)
}

// loadProtocolConfig layers the params file and the protocol flag over the
// first-start protocol configuration
func loadProtocolConfig() (model.ProtocolConfig, error) {
	cfg := model.DefaultProtocolConfig()

	if encodeOpts.params != "" {
		v := viper.New()
		v.SetConfigFile(encodeOpts.params)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("failed to read protocol params: %w", err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return cfg, fmt.Errorf("failed to decode protocol params: %w", err)
		}
	}

	if encodeOpts.protocol != "" {
		kind, err := model.ParseProtocolKind(strings.ToUpper(encodeOpts.protocol))
		if err != nil {
			return cfg, err
		}
		cfg.Active = kind
	} else if cfg.Active != "" {
		kind, err := model.ParseProtocolKind(strings.ToUpper(string(cfg.Active)))
		if err != nil {
			return cfg, err
		}
		cfg.Active = kind
	}
	return cfg, nil
}

// printEncoded writes one command per line to out and the adjustments to diag
func printEncoded(out, diag io.Writer, enc encoder.Encoded) error {
	for _, a := range enc.Adjustments {
		if _, err := fmt.Fprintf(diag, "adjusted %s\n", a); err != nil {
			return err
		}
	}
	for _, c := range enc.Commands {
		if _, err := fmt.Fprintln(out, c); err != nil {
			return err
		}
	}
	return nil
}
