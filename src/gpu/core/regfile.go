package core

import "github.com/coronado2/ee533-gpu/src/isa"

// WritebackPort is one candidate (or committed) register write.
type WritebackPort struct {
	Valid bool
	Rd    uint8
	Data  uint64
}

// RegisterFile is the 16x64-bit register storage with two combinational
// read ports and one synchronous write port. Reads bypass a write
// committing in the same cycle, so a value is visible to a reader the
// cycle it is written. The storage itself accepts writes to every index;
// suppressing index 15 is the writeback arbiter's contract, not the
// array's.
type RegisterFile struct {
	regs [isa.NumRegs]uint64
}

// NewRegisterFile returns a zeroed register file.
func NewRegisterFile() *RegisterFile {
	return &RegisterFile{}
}

// Read returns the register value, forwarding the write port's data when
// it targets the same address this cycle.
func (rf *RegisterFile) Read(addr uint8, bypass WritebackPort) uint64 {
	if bypass.Valid && bypass.Rd == addr {
		return bypass.Data
	}
	return rf.regs[addr&0xF]
}

// Write commits a write port at the clock edge.
func (rf *RegisterFile) Write(port WritebackPort) {
	if port.Valid {
		rf.regs[port.Rd&0xF] = port.Data
	}
}

// Peek reads the stored value directly, without bypass. Host/testbench
// use only.
func (rf *RegisterFile) Peek(addr uint8) uint64 {
	return rf.regs[addr&0xF]
}

// Poke stores a value directly. Host/testbench use only.
func (rf *RegisterFile) Poke(addr uint8, value uint64) {
	rf.regs[addr&0xF] = value
}

// Reset clears the storage array.
func (rf *RegisterFile) Reset() {
	rf.regs = [isa.NumRegs]uint64{}
}
