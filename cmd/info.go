/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	serialdma "github.com/allbin/go-serial-dma"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <device>",
	Short: "Display information about a serial device",
	Long: `Display what is known about a serial device and the rings a port opened
on it would use with the current configuration.

Examples:
  serialdma info /dev/ttyUSB0
  serialdma info /dev/ttyACM0 --tx-capacity 4096`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dev, err := serialdma.LookupDevice(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting device info: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Device Information: %s\n\n", dev.Path)
		fmt.Printf("  Port ID:     %s\n", dev.ID)
		fmt.Printf("  Kind:        %s\n", dev.Kind)
		fmt.Printf("  Description: %s\n", dev.Description)
		if dev.Driver != "" {
			fmt.Printf("  Driver:      %s\n", dev.Driver)
		}

		txCap, rxCap := ringCapacities()
		fmt.Println("\nPort Configuration:")
		fmt.Printf("  Baud rate:    %d\n", viper.GetInt("baud"))
		fmt.Printf("  Idle timeout: %s\n", viper.GetDuration("idle-timeout"))
		fmt.Printf("  TX ring:      %d bytes\n", txCap)
		fmt.Printf("  RX ring:      %d bytes\n", rxCap)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
