// Package core implements the execution pipeline: decoder, register file,
// program counter, integer SIMD unit, hazard control, writeback
// arbitration and the fetch/decode/execute/writeback composition that
// drives the tensor engine and the memories.
package core

import "github.com/coronado2/ee533-gpu/src/isa"

// Instruction is one decoded instruction word: the raw fields plus the
// control signals the pipeline consumes.
type Instruction struct {
	isa.Fields

	RegWrite bool
	IsLoad   bool
	IsStore  bool
	IsHalt   bool
}

// Decode is the combinational instruction decoder. Every non-store,
// non-halt opcode asserts RegWrite - undefined opcodes included; the ALU
// produces zero for those, so they overwrite the destination with zero.
func Decode(word uint32) Instruction {
	f := isa.Decode(word)
	inst := Instruction{
		Fields:  f,
		IsLoad:  f.Opcode == isa.OpLD,
		IsStore: f.Opcode == isa.OpST,
		IsHalt:  f.Opcode == isa.OpHALT,
	}
	inst.RegWrite = !inst.IsStore && !inst.IsHalt
	return inst
}

// IsTensor reports whether the instruction is routed to the tensor
// engine. Only VMUL and FMA are; packed bf16 add/subtract exists in the
// engine but is not reachable from the instruction stream, and the dtype
// field does not participate in routing.
func (i Instruction) IsTensor() bool {
	return i.Opcode == isa.OpVMUL || i.Opcode == isa.OpFMA
}
