// Package serialdma streams bytes between an application and serial
// peripherals through fixed-size ring buffers, the way a DMA-driven UART
// driver does.
//
// Each port owns a transmit ring and a receive ring. The application copies
// bytes into the transmit ring and out of the receive ring; a transfer
// Engine reads and writes the rings in place, one contiguous leg at a time.
// Legs never cross the physical end of a ring, so a wrapped region goes out
// as two legs.
//
// # Basic Usage
//
// Register a port over an engine and exchange bytes:
//
//	engine, err := serialdma.OpenTTY("/dev/ttyUSB0", serialdma.WithBaudRate(115200))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reg := serialdma.NewRegistry(4)
//	defer reg.Close()
//
//	port, err := reg.InitPort("uart1", engine, 1024, 1024)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Never blocks; all-or-nothing
//	if err := reg.EnqueueTransmit("uart1", []byte("AT\r\n")); err != nil {
//	    // ErrInsufficientSpace: nothing was queued
//	}
//
//	buf := make([]byte, 256)
//	n := reg.DrainReceive("uart1", buf)
//
// # Engines
//
// An Engine accepts transmit and receive legs and reports back through the
// Events a port implements: TransferComplete when a transmit leg has been
// read out, ReceiveProgress with the running total of a receive leg. Three
// engines are provided:
//
//   - TTYEngine drives a Linux serial device. Receive legs end when the line
//     has been idle for Config.IdleTimeout.
//   - LoopbackEngine wires two ports back to back in memory
//     (NewLoopbackPair) or a port to itself (NewLoopback).
//   - Any hardware DMA controller wrapped to the Engine interface.
//
// # Context Support
//
// Port adds blocking conveniences on top of the non-blocking core:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	n, err := port.WriteContext(ctx, data) // waits for ring space
//	n, err = port.ReadContext(ctx, buffer) // waits for at least one byte
//	err = port.Flush(ctx)                  // waits for the ring to drain
//
// # Error Handling
//
// Errors are sentinel values for use with errors.Is:
//
//	var (
//	    ErrInsufficientSpace // enqueue rejected, nothing queued
//	    ErrUnknownPort       // no port registered under the id
//	    ErrPortClosed        // port or engine already closed
//	    ErrEngineBusy        // leg submitted while one is outstanding
//	    ErrLineDown          // device hung up or failed
//	    // ... and more
//	)
//
// A leg the engine declines is not reported to the caller: the bytes stay
// queued and the channel retries on the next enqueue, drain or Kick.
// Port.Stats counts declined legs. The exception is a line that is down:
// ReadContext, WriteContext and Flush return its ErrLineDown error instead of
// waiting for progress that cannot come.
//
// # Logging
//
// The package logs through log/slog at Warn by default. Use SetLogLevel,
// SetLogger or the WithLogger registry option to change that.
package serialdma
