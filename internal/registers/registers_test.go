package registers

import (
	"strings"
	"testing"

	"github.com/ppiankov/cellwatch/internal/controller"
)

func TestEncodeDecodeOrder(t *testing.T) {
	order := "RUN=1,ESTOP_OK=1,QUALITY=87"
	words, length := EncodeOrder(order)
	if int(length) != len(order) {
		t.Fatalf("expected length %d, got %d", len(order), length)
	}
	if got := DecodeOrder(words[:], int(length)); got != order {
		t.Fatalf("expected %q, got %q", order, got)
	}
	// Zero length means read to the first zero register.
	if got := DecodeOrder(words[:], 0); got != order {
		t.Fatalf("expected %q with zero-terminated read, got %q", order, got)
	}
}

func TestEncodeOrderKeepsOversizeLength(t *testing.T) {
	order := strings.Repeat("A", 150)
	words, length := EncodeOrder(order)
	if length != 150 {
		t.Fatalf("expected full length 150, got %d", length)
	}
	got := DecodeOrder(words[:], int(length))
	if len(got) != OrderWords {
		t.Fatalf("expected decode bounded by the block, got %d bytes", len(got))
	}
}

func TestDecodeOrderLength(t *testing.T) {
	words := []uint16{'R', 'U', 'N', '=', '1', 0, 'X'}
	tests := []struct {
		name   string
		length int
		want   string
	}{
		{"zero reads to terminator", 0, "RUN=1"},
		{"negative reads to terminator", -1, "RUN=1"},
		{"very negative", -1 << 20, "RUN=1"},
		{"explicit prefix", 3, "RUN"},
		{"past terminator", 7, "RUN=1\x00X"},
		{"past block", 500, "RUN=1\x00X"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeOrder(words, tt.length); got != tt.want {
				t.Fatalf("length %d: expected %q, got %q", tt.length, tt.want, got)
			}
		})
	}
}

func TestDecodeOrderUsesLowByte(t *testing.T) {
	words := []uint16{0x4152, 0x0055, 0xFF4E, 0x003D, 0x0031}
	if got := DecodeOrder(words, 5); got != "RUN=1" {
		t.Fatalf("expected RUN=1, got %q", got)
	}
}

func TestDecodedOrderDrivesController(t *testing.T) {
	words, length := EncodeOrder("RUN=1,QUALITY=50," + strings.Repeat("X", 43))
	c := controller.New()
	c.ApplyOrder(DecodeOrder(words[:], int(length)))
	if !c.Compromised() || c.QualityScore() != 20 {
		t.Fatalf("expected fail-safe via gateway path, got %+v", c.Snapshot())
	}
}

func TestStateRoundTrip(t *testing.T) {
	states := []controller.Snapshot{
		{ConveyorRun: true, EmergencyOK: true, QualityScore: 98},
		{QualityScore: 0, Compromised: true},
		{EmergencyOK: true, QualityScore: 100},
	}
	for _, s := range states {
		r := EncodeState(s)
		got, err := DecodeState(r)
		if err != nil {
			t.Fatalf("DecodeState: %v", err)
		}
		if got != s {
			t.Fatalf("expected %+v, got %+v", s, got)
		}
	}
}

func TestStateMapAddresses(t *testing.T) {
	m := EncodeState(controller.Snapshot{ConveyorRun: true, QualityScore: 87, Compromised: true}).Map()
	if m[AddrConveyor] != 1 || m[AddrEstop] != 0 || m[AddrQualityHi] != 0 || m[AddrQualityLo] != 87 || m[AddrCompromised] != 1 {
		t.Fatalf("unexpected register map %v", m)
	}
}

func TestDecodeStateRejectsOutOfRangeQuality(t *testing.T) {
	if _, err := DecodeState(StateRegisters{QualityHi: 1}); err == nil {
		t.Fatal("expected error for quality above 100")
	}
}
