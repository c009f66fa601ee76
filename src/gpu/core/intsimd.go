package core

import (
	"github.com/coronado2/ee533-gpu/src/isa"
	"github.com/coronado2/ee533-gpu/src/misc"
)

// IntegerSimd is the combinational four-lane int16 ALU. VADD and VSUB
// wrap on overflow - there is no saturation. RELU applies max(lane,0) to
// operand a only. Every other opcode, defined or not, produces all-zero
// lanes; the one cycle of latency on this path comes from the pipeline
// latch, not from the unit.
func IntegerSimd(opcode uint8, a, b uint64) uint64 {
	var out uint64
	for i := 0; i < misc.NumLanes; i++ {
		la := uint16(a >> (16 * i))
		lb := uint16(b >> (16 * i))

		var lane uint16
		switch opcode {
		case isa.OpVADD:
			lane = la + lb
		case isa.OpVSUB:
			lane = la - lb
		case isa.OpRELU:
			if int16(la) > 0 {
				lane = la
			}
		}
		out |= uint64(lane) << (16 * i)
	}
	return out
}
