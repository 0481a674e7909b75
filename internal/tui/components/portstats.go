package components

import (
	"fmt"

	serialdma "github.com/allbin/go-serial-dma"
)

// PortStats is a point-in-time view of one port for display.
type PortStats struct {
	ID         string
	TxState    string
	RxState    string
	TxUsed     int
	TxCapacity int
	RxUsed     int
	RxCapacity int
	Stats      serialdma.Stats
}

// NewPortStats samples p.
func NewPortStats(p *serialdma.Port) PortStats {
	return PortStats{
		ID:         string(p.ID()),
		TxState:    p.Tx().State().String(),
		RxState:    p.Rx().State().String(),
		TxUsed:     p.Tx().Pending(),
		TxCapacity: p.Tx().Capacity(),
		RxUsed:     p.Rx().Buffered(),
		RxCapacity: p.Rx().Capacity(),
		Stats:      p.Stats(),
	}
}

type statsColumn struct {
	key   string
	title string
	width int
}

var statsColumns = []statsColumn{
	{"port", "Port", 14},
	{"tx", "TX", 13},
	{"txring", "TX ring", 11},
	{"txlegs", "TX legs", 9},
	{"txbytes", "TX bytes", 11},
	{"rx", "RX", 10},
	{"rxring", "RX ring", 11},
	{"rxlegs", "RX legs", 9},
	{"rxbytes", "RX bytes", 11},
	{"faults", "Declined/Spurious", 18},
}

func (s PortStats) cells() []string {
	st := s.Stats
	return []string{
		s.ID,
		s.TxState,
		fmt.Sprintf("%d/%d", s.TxUsed, s.TxCapacity),
		fmt.Sprintf("%d", st.TxLegs),
		fmt.Sprintf("%d", st.TxBytes),
		s.RxState,
		fmt.Sprintf("%d/%d", s.RxUsed, s.RxCapacity),
		fmt.Sprintf("%d", st.RxLegs),
		fmt.Sprintf("%d", st.RxBytes),
		fmt.Sprintf("%d/%d", st.TxSubmitFailures+st.RxSubmitFailures, st.TxSpurious+st.RxSpurious),
	}
}
