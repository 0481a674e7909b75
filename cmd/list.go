/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	serialdma "github.com/allbin/go-serial-dma"
	"github.com/allbin/go-serial-dma/internal/tui/components"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List serial devices a port can be opened on",
	Long: `List all serial devices on the system that a tty engine can drive.

This command scans for communication-capable serial devices including:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- ARM/Raspberry Pi ports (ttyAMA*)
- And other platform-specific serial devices

Virtual terminals and pseudo-terminals are excluded from the listing.`,
	Run: func(cmd *cobra.Command, args []string) {
		devices, err := serialdma.ListDevices()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing devices: %v\n", err)
			os.Exit(1)
		}

		filterKind, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		devices = filterDevices(devices, filterKind)
		if len(devices) == 0 {
			if filterKind != "" {
				fmt.Printf("No serial devices found matching filter: %s\n", filterKind)
			} else {
				fmt.Println("No serial devices found")
			}
			return
		}

		if tableFormat {
			fmt.Printf("Found %d serial device(s):\n\n", len(devices))
			fmt.Println(components.DeviceTable(devices).View())
			return
		}
		for _, d := range devices {
			fmt.Println(d.Path)
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by device kind prefix: usb, 8250, pl011, ...")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterDevices keeps devices whose kind starts with kind.
func filterDevices(devices []serialdma.Device, kind string) []serialdma.Device {
	if kind == "" || kind == "all" {
		return devices
	}
	kind = strings.ToLower(kind)

	var filtered []serialdma.Device
	for _, d := range devices {
		if strings.HasPrefix(d.Kind, kind) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}
