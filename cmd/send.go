//go:build linux

/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	serialdma "github.com/allbin/go-serial-dma"
	"github.com/allbin/go-serial-dma/internal/tui/components"
	"github.com/allbin/go-serial-dma/internal/tui/styles"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <device>",
	Short: "Send data to a serial device through the transmit ring",
	Long: `Send data to a serial device through the transmit ring.

Data can be provided as:
- Command line argument: send "Hello World" /dev/ttyUSB0
- From stdin (pipe): echo "test data" | serialdma send /dev/ttyUSB0
- Interactive mode: serialdma send /dev/ttyUSB0 (prompts for input)

Data larger than the transmit ring is queued in ring-sized pieces as legs
complete. The command returns once every byte has left the ring.

Example usage:
  serialdma send "AT+GMR" /dev/ttyUSB0 --newline
  serialdma send --hex "48 65 6c 6c 6f" /dev/ttyUSB0
  echo "test" | serialdma send /dev/ttyUSB0 --tx-capacity 64`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var input string
		var device string

		// Parse arguments: either "send data device" or "send device"
		if len(args) == 1 {
			device = args[0]
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				input = promptForData()
			} else {
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
					os.Exit(1)
				}
				input = strings.TrimRight(string(stdinData), "\r\n")
			}
		} else {
			input = args[0]
			device = args[1]
		}

		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		syncWrite, _ := cmd.Flags().GetBool("sync")

		data := []byte(input)
		if hexMode {
			decoded, err := components.ParseHex(input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid hex data: %v\n", err)
				os.Exit(1)
			}
			data = decoded
		}
		if addNewline && !hexMode {
			data = append(data, '\n')
		}

		var extra []serialdma.Option
		if syncWrite {
			extra = append(extra, serialdma.WithSyncWrite())
		}

		if err := sendData(device, data, timeout, extra...); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", styles.ErrorStyle.Render("✗"), err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().DurationP("timeout", "t", 5*time.Second, "Timeout for queueing and flushing data")
	sendCmd.Flags().Bool("sync", false, "Open the device with O_SYNC so legs complete at the hardware")
}

func promptForData() string {
	fmt.Print(styles.InfoStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func sendData(device string, data []byte, timeout time.Duration, extra ...serialdma.Option) error {
	fmt.Printf("%s Opening %s...\n", styles.InfoStyle.Render("⚡"), device)

	reg, port, err := openTTYPort(device, extra...)
	if err != nil {
		return err
	}
	defer reg.Close()

	fmt.Printf("%s Connected (tx ring %d bytes)\n", styles.SuccessStyle.Render("✓"), port.Tx().Capacity())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	fmt.Printf("%s Sending %d bytes...\n", styles.InfoStyle.Render("📤"), len(data))

	for _, chunk := range splitChunks(data, port.Tx().Capacity()) {
		if _, err := port.WriteContext(ctx, chunk); err != nil {
			return fmt.Errorf("failed to queue data: %w", err)
		}
	}
	if err := port.Flush(ctx); err != nil {
		return fmt.Errorf("failed to flush data: %w", err)
	}

	st := port.Stats()
	fmt.Printf("%s Sent %d bytes in %d legs\n", styles.SuccessStyle.Render("✓"), st.TxBytes, st.TxLegs)
	fmt.Printf("%s Data: %s\n", styles.InfoStyle.Render("📋"), preview(data, 50))

	return nil
}
