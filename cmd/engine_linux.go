/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	serialdma "github.com/allbin/go-serial-dma"
	"github.com/spf13/viper"
)

// ttyOptions builds engine options from the bound flags and config.
func ttyOptions(extra ...serialdma.Option) []serialdma.Option {
	opts := []serialdma.Option{
		serialdma.WithBaudRate(viper.GetInt("baud")),
		serialdma.WithIdleTimeout(viper.GetDuration("idle-timeout")),
	}
	return append(opts, extra...)
}

// openTTYPort opens device and registers it as the only port of a new
// registry. Closing the registry closes the device.
func openTTYPort(device string, extra ...serialdma.Option) (*serialdma.Registry, *serialdma.Port, error) {
	engine, err := serialdma.OpenTTY(device, ttyOptions(extra...)...)
	if err != nil {
		return nil, nil, err
	}

	reg := serialdma.NewRegistry(1)
	txCap, rxCap := ringCapacities()
	port, err := reg.InitPort(serialdma.PortID(device), engine, txCap, rxCap)
	if err != nil {
		engine.Close()
		return nil, nil, err
	}
	return reg, port, nil
}
