package serialdma

import "testing"

func TestPlanRun(t *testing.T) {
	const L = 16

	tests := []struct {
		name        string
		kind        RunKind
		from, to    int
		empty, full bool
		want        int
	}{
		// Transmit: from = consumer, to = producer.
		{"tx empty", TransmitRun, 4, 4, true, false, 0},
		{"tx full at 0", TransmitRun, 0, 0, false, true, 16},
		{"tx full mid", TransmitRun, 10, 10, false, true, 6},
		{"tx contiguous", TransmitRun, 2, 9, false, false, 7},
		{"tx wrapped", TransmitRun, 12, 3, false, false, 4},
		{"tx from end", TransmitRun, 15, 1, false, false, 1},

		// Receive: from = producer, to = consumer.
		{"rx empty at 0", ReceiveRun, 0, 0, true, false, 16},
		{"rx empty mid", ReceiveRun, 6, 6, true, false, 10},
		{"rx full", ReceiveRun, 6, 6, false, true, 0},
		{"rx before consumer", ReceiveRun, 3, 9, false, false, 6},
		{"rx after consumer", ReceiveRun, 12, 5, false, false, 4},
		{"rx after consumer at 0", ReceiveRun, 12, 0, false, false, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlanRun(tt.kind, tt.from, tt.to, tt.empty, tt.full, L)
			if got != tt.want {
				t.Errorf("PlanRun(%v, %d, %d, empty=%v, full=%v) = %d, want %d",
					tt.kind, tt.from, tt.to, tt.empty, tt.full, got, tt.want)
			}
			if got < 0 || tt.from+got > L {
				t.Errorf("run [%d, %d) leaves storage", tt.from, tt.from+got)
			}
		})
	}
}

func TestPlanRun_NeverExceedsStored(t *testing.T) {
	const L = 8

	// Walk every cursor pair and occupancy and check the run fits both the
	// physical end and the bytes (or space) actually available.
	for c := 0; c < L; c++ {
		for used := 0; used <= L; used++ {
			p := (c + used) % L
			empty, full := used == 0, used == L

			tx := PlanRun(TransmitRun, c, p, empty, full, L)
			if tx > used || c+tx > L {
				t.Errorf("c=%d used=%d: transmit run %d", c, used, tx)
			}
			if used > 0 && tx == 0 {
				t.Errorf("c=%d used=%d: transmit run blocked with bytes stored", c, used)
			}

			rx := PlanRun(ReceiveRun, p, c, empty, full, L)
			if rx > L-used || p+rx > L {
				t.Errorf("c=%d used=%d: receive run %d", c, used, rx)
			}
			if used < L && rx == 0 {
				t.Errorf("c=%d used=%d: receive run blocked with space free", c, used)
			}
		}
	}
}

func TestRunKindString(t *testing.T) {
	if TransmitRun.String() != "transmit" || ReceiveRun.String() != "receive" {
		t.Errorf("unexpected names %q %q", TransmitRun, ReceiveRun)
	}
	if RunKind(9).String() != "unknown" {
		t.Errorf("RunKind(9) = %q", RunKind(9))
	}
}
