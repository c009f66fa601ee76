// Package simulator composes the core and its memories into a host-facing
// platform: program loading while in reset, a cycle loop, the status
// surface (halted, pc, last writeback split for a 32-bit bus) and data
// memory readback after halt.
package simulator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/coronado2/ee533-gpu/src/gpu/core"
	"github.com/coronado2/ee533-gpu/src/gpu/mem"
	"github.com/coronado2/ee533-gpu/src/isa"
	"github.com/coronado2/ee533-gpu/src/misc"
)

// Platform owns one GPU core, its instruction and data memories, and the
// host-side reset gating: instruction memory and data memory writes are
// only legal while the core is held in reset, and data readback only while
// in reset or after halt.
type Platform struct {
	config *misc.Config

	imem *mem.InstructionMemory
	dmem *mem.DataMemory
	core *core.Core

	inReset bool

	log *logrus.Entry
}

// NewPlatform builds a platform from a configuration. The core comes up
// held in reset, ready for program load.
func NewPlatform(config *misc.Config) *Platform {
	imem := mem.NewInstructionMemory(config.ImemDepth)
	dmem := mem.NewDataMemory(config.DmemWords)

	return &Platform{
		config:  config,
		imem:    imem,
		dmem:    dmem,
		core:    core.NewCore(imem, dmem),
		inReset: true,
		log:     misc.PlatformLogger(),
	}
}

// Reset asserts the core reset, clearing all core state immediately.
// Memory contents survive; the host rewrites them as needed.
func (p *Platform) Reset() {
	p.core.Reset()
	p.inReset = true
}

// LoadProgram pads a program with HALT to the imem depth and writes it
// through the host port. Only legal while in reset.
func (p *Platform) LoadProgram(words []uint32) error {
	if !p.inReset {
		return fmt.Errorf("simulator: program load requires the core in reset")
	}
	image, err := isa.PadProgram(words, p.imem.Depth())
	if err != nil {
		return err
	}
	return p.imem.LoadImage(image)
}

// WriteData writes one data memory word through the host port. Only legal
// while in reset.
func (p *Platform) WriteData(wordAddr int, value uint64) error {
	if !p.inReset {
		return fmt.Errorf("simulator: host data write requires the core in reset")
	}
	return p.dmem.HostWrite(wordAddr, value)
}

// ReadData reads one data memory word through the host readback port,
// legal while in reset or after the core has halted.
func (p *Platform) ReadData(wordAddr int) (uint64, error) {
	if !p.inReset && !p.core.Halted() {
		return 0, fmt.Errorf("simulator: host data readback requires reset or halt")
	}
	return p.dmem.HostRead(wordAddr)
}

// PokeReg preloads one architectural register, testbench style. Only
// legal while in reset.
func (p *Platform) PokeReg(reg uint8, value uint64) error {
	if !p.inReset {
		return fmt.Errorf("simulator: register preload requires the core in reset")
	}
	p.core.Regs().Poke(reg, value)
	return nil
}

// PeekReg reads one architectural register directly.
func (p *Platform) PeekReg(reg uint8) uint64 {
	return p.core.Regs().Peek(reg)
}

// Release deasserts reset; the core begins fetching at word address zero
// on the next cycle.
func (p *Platform) Release() {
	p.inReset = false
}

// Cycle advances the platform one clock tick. A no-op while in reset.
func (p *Platform) Cycle() {
	if p.inReset {
		return
	}
	p.core.Cycle()
}

// IsFinished reports whether the core has halted and drained, or the
// configured cycle bound has been reached.
func (p *Platform) IsFinished() bool {
	if p.inReset {
		return false
	}
	return p.core.Drained() || p.core.CycleCount() >= uint64(p.config.MaxCycles)
}

// Run releases the core and cycles until it drains. Exceeding the
// configured cycle bound without halting is an error.
func (p *Platform) Run() error {
	p.Release()
	for !p.IsFinished() {
		p.Cycle()
	}
	if !p.core.Drained() {
		return fmt.Errorf("simulator: no halt within %d cycles", p.config.MaxCycles)
	}
	return nil
}

// Halted reports the core's sticky halted flag.
func (p *Platform) Halted() bool {
	return p.core.Halted()
}

// PC returns the core's current fetch word address.
func (p *Platform) PC() uint32 {
	return p.core.PC()
}

// CycleCount returns cycles executed since reset release.
func (p *Platform) CycleCount() uint64 {
	return p.core.CycleCount()
}

// LastWritebackHi returns the high 32 bits of the last committed
// writeback value, as seen on the 32-bit host bus.
func (p *Platform) LastWritebackHi() uint32 {
	return uint32(p.core.LastWriteback() >> 32)
}

// LastWritebackLo returns the low 32 bits of the last committed writeback
// value.
func (p *Platform) LastWritebackLo() uint32 {
	return uint32(p.core.LastWriteback())
}

// DumpRegs logs the architectural register file.
func (p *Platform) DumpRegs() {
	for r := 0; r < isa.NumRegs; r++ {
		v := p.core.Regs().Peek(uint8(r))
		p.log.Infof("r%-2d = %016x  int16 %v  bf16 %v",
			r, v, misc.UnpackInt16(v), misc.UnpackFloats(v))
	}
}
