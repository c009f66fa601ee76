// Package isa is the single source of truth for the GPU instruction set:
// the 32-bit field layout, the opcode table, encoding helpers and the
// disassembler used by traces and listings.
//
// Instruction encoding (32 bits, MSB first):
//
//	bits [31:28]  opcode  (4 bits)
//	bits [27:24]  dtype   (4 bits)  0 = INT16, 1 = BF16 (advisory, not routed)
//	bits [23:20]  rd      (4 bits)  destination register
//	bits [19:16]  rs1     (4 bits)  source 1, also LD/ST base address
//	bits [15:12]  rs2     (4 bits)  source 2, also ST write data
//	bits [11: 0]  reserved, zero
package isa

import "fmt"

// Opcodes. Values not in this table are undefined: they execute as a zero
// result and still write the destination register.
const (
	OpVADD uint8 = 0x0
	OpVSUB uint8 = 0x1
	OpVMUL uint8 = 0x2
	OpFMA  uint8 = 0x3
	OpRELU uint8 = 0x4
	OpLD   uint8 = 0x5
	OpST   uint8 = 0x6
	OpHALT uint8 = 0xF
)

// Dtype field encodings. The field is carried through decode but the
// execute stage routes on opcode alone.
const (
	DtypeInt16 uint8 = 0x0
	DtypeBf16  uint8 = 0x1
)

// NumRegs is the architectural register count, r0-r15.
const NumRegs = 16

// HaltWord is the HALT instruction used to pad unused instruction memory.
const HaltWord uint32 = 0xF0000000

// Fields holds the raw decoded fields of one instruction word.
type Fields struct {
	Opcode uint8
	Dtype  uint8
	Rd     uint8
	Rs1    uint8
	Rs2    uint8
	Imm    uint16
}

// Encode packs one 32-bit instruction word. Field values out of range are
// a programming error and panic.
func Encode(opcode, dtype, rd, rs1, rs2 uint8) uint32 {
	for _, f := range []struct {
		name  string
		value uint8
	}{{"opcode", opcode}, {"dtype", dtype}, {"rd", rd}, {"rs1", rs1}, {"rs2", rs2}} {
		if f.value > 0xF {
			panic(fmt.Sprintf("isa: %s out of range: %#x", f.name, f.value))
		}
	}
	return uint32(opcode)<<28 | uint32(dtype)<<24 | uint32(rd)<<20 |
		uint32(rs1)<<16 | uint32(rs2)<<12
}

// Decode unpacks a 32-bit instruction word into its fields.
func Decode(word uint32) Fields {
	return Fields{
		Opcode: uint8(word >> 28 & 0xF),
		Dtype:  uint8(word >> 24 & 0xF),
		Rd:     uint8(word >> 20 & 0xF),
		Rs1:    uint8(word >> 16 & 0xF),
		Rs2:    uint8(word >> 12 & 0xF),
		Imm:    uint16(word & 0xFFF),
	}
}

// NaturalDtype returns the dtype an opcode carries when assembled from a
// mnemonic. LD/ST/HALT encode INT16; the hardware ignores the field.
func NaturalDtype(opcode uint8) uint8 {
	switch opcode {
	case OpVMUL, OpFMA:
		return DtypeBf16
	default:
		return DtypeInt16
	}
}

// OpcodeName returns the mnemonic for an opcode, or "OPx" for undefined
// encodings.
func OpcodeName(opcode uint8) string {
	switch opcode {
	case OpVADD:
		return "VADD"
	case OpVSUB:
		return "VSUB"
	case OpVMUL:
		return "VMUL"
	case OpFMA:
		return "FMA"
	case OpRELU:
		return "RELU"
	case OpLD:
		return "LD"
	case OpST:
		return "ST"
	case OpHALT:
		return "HALT"
	default:
		return fmt.Sprintf("OP%X", opcode)
	}
}

// OpcodeFromName resolves a mnemonic, case already normalized to upper.
// FMAC is accepted as an alias of FMA for compatibility with older
// listings.
func OpcodeFromName(name string) (uint8, bool) {
	switch name {
	case "VADD":
		return OpVADD, true
	case "VSUB":
		return OpVSUB, true
	case "VMUL":
		return OpVMUL, true
	case "FMA", "FMAC":
		return OpFMA, true
	case "RELU":
		return OpRELU, true
	case "LD":
		return OpLD, true
	case "ST":
		return OpST, true
	case "HALT":
		return OpHALT, true
	default:
		return 0, false
	}
}

// Disasm renders one instruction word as a human-readable listing line.
func Disasm(word uint32) string {
	f := Decode(word)
	name := OpcodeName(f.Opcode)

	switch f.Opcode {
	case OpHALT:
		return "HALT"
	case OpLD:
		return fmt.Sprintf("LD       r%d, [r%d]", f.Rd, f.Rs1)
	case OpST:
		return fmt.Sprintf("ST       [r%d], r%d", f.Rs1, f.Rs2)
	case OpRELU:
		return fmt.Sprintf("RELU     r%d, r%d", f.Rd, f.Rs1)
	case OpFMA:
		return fmt.Sprintf("FMA      r%d, r%d, r%d   ; acc = rs2", f.Rd, f.Rs1, f.Rs2)
	default:
		return fmt.Sprintf("%-6s   r%d, r%d, r%d", name, f.Rd, f.Rs1, f.Rs2)
	}
}

// Instruction builds an instruction word from a mnemonic, with the
// opcode's natural dtype.
func Instruction(mnemonic string, rd, rs1, rs2 uint8) (uint32, error) {
	opcode, ok := OpcodeFromName(mnemonic)
	if !ok {
		return 0, fmt.Errorf("isa: unknown mnemonic %q", mnemonic)
	}
	return Encode(opcode, NaturalDtype(opcode), rd, rs1, rs2), nil
}
