/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	serialdma "github.com/allbin/go-serial-dma"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "serialdma",
	Short: "Ring-buffered serial byte streaming",
	Long: `serialdma moves bytes between applications and serial peripherals through
fixed-size transmit and receive rings, one contiguous transfer leg at a time.

Settings can come from flags, from SERIALDMA_* environment variables, or
from a YAML config file ($HOME/.serialdma.yaml by default):

  baud: 115200
  idle-timeout: 100ms
  tx-capacity: 1024
  rx-capacity: 1024
  log-level: info`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyLogLevel(viper.GetString("log-level"))
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $HOME/.serialdma.yaml)")
	pf.IntP("baud", "b", 115200, "Baud rate for tty devices")
	pf.Duration("idle-timeout", 100*time.Millisecond, "Line-idle gap that ends a receive leg (multiple of 100ms)")
	pf.Int("tx-capacity", serialdma.DefaultRingSize, "Transmit ring size in bytes")
	pf.Int("rx-capacity", serialdma.DefaultRingSize, "Receive ring size in bytes")
	pf.String("log-level", "warn", "Log level: debug, info, warn, error")

	for _, name := range []string{"baud", "idle-timeout", "tx-capacity", "rx-capacity", "log-level"} {
		cobra.CheckErr(viper.BindPFlag(name, pf.Lookup(name)))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".serialdma")
	}

	viper.SetEnvPrefix("SERIALDMA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}
}

func applyLogLevel(name string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	serialdma.SetLogLevel(level)
	return nil
}

// ringCapacities returns the configured transmit and receive ring sizes.
func ringCapacities() (int, int) {
	return viper.GetInt("tx-capacity"), viper.GetInt("rx-capacity")
}
