/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/allbin/go-serial-dma/internal/tui/components"
	"github.com/allbin/go-serial-dma/internal/tui/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// monitorCmd represents the monitor command
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch ring occupancy and channel state live",
	Long: `Run continuous traffic between two in-memory ports and show their ring
occupancy, channel states and counters in a live table.

Keys: p/space pauses traffic, +/- changes the refresh rate, ? shows help,
q quits.

Example usage:
  serialdma monitor
  serialdma monitor --tx-capacity 32 --rx-capacity 32 --burst 3`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		chunk, _ := cmd.Flags().GetInt("chunk")
		burst, _ := cmd.Flags().GetInt("burst")

		if err := runMonitor(chunk, burst); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().Int("chunk", 64, "Largest single write in bytes")
	monitorCmd.Flags().Int("burst", 8, "Bytes per receive progress event (0 = as many as available)")
}

func runMonitor(chunk, burst int) error {
	reg, a, b, err := newLoopbackRegistry(burst)
	if err != nil {
		return err
	}
	defer reg.Close()

	var paused atomic.Bool
	model := models.NewMonitorModel("serialdma monitor",
		func() []components.PortStats { return sampleRegistry(reg) },
		paused.Store,
	)

	streams := []*trafficStream{
		{name: "loop-a → loop-b", from: a, to: b, maxChunk: chunk, seed: 1, paused: &paused},
		{name: "loop-b → loop-a", from: b, to: a, maxChunk: chunk, seed: 2, paused: &paused},
	}
	done := make(chan error, 1)
	go func() { done <- runTraffic(model.Context(), streams...) }()

	_, runErr := tea.NewProgram(model, tea.WithAltScreen()).Run()

	model.Cancel()
	if err := <-done; err != nil {
		return err
	}
	return runErr
}
