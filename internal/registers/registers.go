// Package registers maps orders and controller state to 16-bit holding
// registers, using the layout of the cell's Modbus gateway:
//
//	99        order length (0 = zero-terminated)
//	100..199  order bytes, one per register (low byte)
//	200       apply trigger
//	300       conveyor_run
//	301       emergency_ok
//	302, 303  quality_score high and low word
//	310       compromised
package registers

import (
	"fmt"

	"github.com/ppiankov/cellwatch/internal/controller"
)

// Register addresses.
const (
	AddrOrderLength = 99
	AddrOrder       = 100
	AddrTrigger     = 200
	AddrConveyor    = 300
	AddrEstop       = 301
	AddrQualityHi   = 302
	AddrQualityLo   = 303
	AddrCompromised = 310
)

// OrderWords is the size of the order register block.
const OrderWords = 100

// EncodeOrder packs order into the order block. Orders longer than the
// block are cut, but the returned length is the full order length so the
// receiving side still sees an oversized order.
func EncodeOrder(order string) (words [OrderWords]uint16, length uint16) {
	for i := 0; i < len(order) && i < OrderWords; i++ {
		words[i] = uint16(order[i])
	}
	n := len(order)
	if n > 0xFFFF {
		n = 0xFFFF
	}
	return words, uint16(n)
}

// DecodeOrder rebuilds an order from the order block. With length 0 or
// below the order runs to the first zero register; otherwise the first
// length registers are used (bounded by the block). Only the low byte of each
// register carries data.
func DecodeOrder(words []uint16, length int) string {
	if len(words) > OrderWords {
		words = words[:OrderWords]
	}
	var buf []byte
	if length <= 0 {
		buf = make([]byte, 0, len(words))
		for _, w := range words {
			if w == 0 {
				break
			}
			buf = append(buf, byte(w&0xFF))
		}
		return string(buf)
	}
	n := min(length, len(words))
	buf = make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = byte(words[i] & 0xFF)
	}
	return string(buf)
}

// StateRegisters is the exported state block.
type StateRegisters struct {
	Conveyor    uint16
	Estop       uint16
	QualityHi   uint16
	QualityLo   uint16
	Compromised uint16
}

// EncodeState converts a snapshot to its register values.
func EncodeState(s controller.Snapshot) StateRegisters {
	q := uint32(s.QualityScore)
	return StateRegisters{
		Conveyor:    boolWord(s.ConveyorRun),
		Estop:       boolWord(s.EmergencyOK),
		QualityHi:   uint16(q >> 16),
		QualityLo:   uint16(q & 0xFFFF),
		Compromised: boolWord(s.Compromised),
	}
}

// DecodeState converts register values back to a snapshot.
func DecodeState(r StateRegisters) (controller.Snapshot, error) {
	q := uint32(r.QualityHi)<<16 | uint32(r.QualityLo)
	if q > controller.MaxQuality {
		return controller.Snapshot{}, fmt.Errorf("registers: quality %d out of range", q)
	}
	return controller.Snapshot{
		ConveyorRun:  r.Conveyor != 0,
		EmergencyOK:  r.Estop != 0,
		QualityScore: int(q),
		Compromised:  r.Compromised != 0,
	}, nil
}

// Map returns the state block keyed by register address.
func (r StateRegisters) Map() map[int]uint16 {
	return map[int]uint16{
		AddrConveyor:    r.Conveyor,
		AddrEstop:       r.Estop,
		AddrQualityHi:   r.QualityHi,
		AddrQualityLo:   r.QualityLo,
		AddrCompromised: r.Compromised,
	}
}

func boolWord(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
