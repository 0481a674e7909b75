//go:build linux

/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	serialdma "github.com/allbin/go-serial-dma"
	"github.com/allbin/go-serial-dma/internal/tui/components"
	"github.com/allbin/go-serial-dma/internal/tui/styles"
	"github.com/spf13/cobra"
)

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen <device>",
	Short: "Print bytes drained from a device's receive ring",
	Long: `Open a serial device and print every batch of bytes drained from its
receive ring until Ctrl+C. Each receive leg ends when the ring run is full or
the line has been idle for --idle-timeout.

Example usage:
  serialdma listen /dev/ttyUSB0
  serialdma listen /dev/ttyUSB0 --baud 9600 --no-hex
  serialdma listen /dev/ttyACM0 --raw > capture.bin`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		device := args[0]

		noHex, _ := cmd.Flags().GetBool("no-hex")
		noASCII, _ := cmd.Flags().GetBool("no-ascii")
		noTimestamps, _ := cmd.Flags().GetBool("no-timestamps")
		rawMode, _ := cmd.Flags().GetBool("raw")

		formatter := components.NewDataFormatter(!noHex, !noASCII)
		formatter.SetDisplayMode(components.DisplayMode{
			ShowHex:        !noHex,
			ShowASCII:      !noASCII,
			ShowTimestamps: !noTimestamps,
		})

		if err := listen(device, formatter, rawMode); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().Bool("no-hex", false, "Hide the hex column")
	listenCmd.Flags().Bool("no-ascii", false, "Hide the ASCII column")
	listenCmd.Flags().Bool("no-timestamps", false, "Hide timestamps from output")
	listenCmd.Flags().Bool("raw", false, "Write received bytes to stdout unformatted")
}

func listen(device string, formatter *components.DataFormatter, raw bool) error {
	reg, port, err := openTTYPort(device)
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !raw {
		fmt.Fprintf(os.Stderr, "%s Listening on %s (rx ring %d bytes), Ctrl+C to stop\n",
			styles.SuccessStyle.Render("✓"), device, port.Rx().Capacity())
	}

	buf := make([]byte, port.Rx().Capacity())
	for {
		n, err := port.ReadContext(ctx, buf)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, serialdma.ErrPortClosed) {
				break
			}
			return err
		}

		if raw {
			os.Stdout.Write(buf[:n])
			continue
		}
		fmt.Println(formatter.FormatChunk(components.Chunk{
			Timestamp: time.Now(),
			Data:      buf[:n],
			Direction: components.DirectionRX,
		}))
	}

	if !raw {
		st := port.Stats()
		fmt.Fprintf(os.Stderr, "\n%s Received %d bytes in %d legs (%d progress events)\n",
			styles.InfoStyle.Render("📋"), st.RxBytes, st.RxLegs, st.RxProgress)
	}
	return nil
}
