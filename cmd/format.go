/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import "github.com/allbin/go-serial-dma/internal/tui/components"

// preview returns the first max bytes of data as printable text.
func preview(data []byte, max int) string {
	if len(data) <= max {
		return components.Printable(data)
	}
	return components.Printable(data[:max]) + "..."
}

// splitChunks cuts data into pieces no longer than size.
func splitChunks(data []byte, size int) [][]byte {
	if size <= 0 {
		return nil
	}
	var out [][]byte
	for len(data) > 0 {
		n := min(size, len(data))
		out = append(out, data[:n])
		data = data[n:]
	}
	return out
}
