//go:build linux

/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	serialdma "github.com/allbin/go-serial-dma"
	"github.com/allbin/go-serial-dma/internal/tui/components"
	"github.com/allbin/go-serial-dma/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect <device>",
	Short: "Interactive terminal over a device's transmit and receive rings",
	Long: `Open a serial device and drive both directions from one terminal.

Lines typed in insert mode are queued on the transmit ring; everything
drained from the receive ring scrolls past with timestamps. The status bar
shows how full each ring is and whether a leg is in flight.

Keys: i enters insert mode, esc leaves it, enter queues the line, tab
switches between ASCII and hex input. In normal mode h, a and t toggle the
hex, ASCII and timestamp columns, c clears, g/G jump, ? shows help, q quits.

Example usage:
  serialdma connect /dev/ttyUSB0
  serialdma connect /dev/ttyUSB0 --baud 9600 --tx-capacity 256`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		syncWrite, _ := cmd.Flags().GetBool("sync")

		var extra []serialdma.Option
		if syncWrite {
			extra = append(extra, serialdma.WithSyncWrite())
		}

		if err := runConnect(args[0], extra...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().Bool("sync", false, "Open the device with O_SYNC so legs complete at the hardware")
}

func runConnect(device string, extra ...serialdma.Option) error {
	config := serialdma.DefaultConfig()
	for _, opt := range ttyOptions(extra...) {
		if err := opt(&config); err != nil {
			return err
		}
	}

	m := models.NewConnectModel(device, components.NewLineInfo(config))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Open in the background so the screen is up while the device settles.
	opened := make(chan *serialdma.Registry, 1)
	go func() {
		reg, port, err := openTTYPort(device, extra...)
		opened <- reg
		p.Send(models.ConnectedMsg{Port: port, Err: err})
	}()

	_, err := p.Run()

	m.Cancel()
	if reg := <-opened; reg != nil {
		reg.Close()
	}
	return err
}
