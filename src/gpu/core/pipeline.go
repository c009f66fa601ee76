package core

import (
	"github.com/sirupsen/logrus"

	"github.com/coronado2/ee533-gpu/src/gpu/mem"
	"github.com/coronado2/ee533-gpu/src/gpu/tensor"
	"github.com/coronado2/ee533-gpu/src/isa"
	"github.com/coronado2/ee533-gpu/src/misc"
)

// exLatch is the single decode/execute pipeline register. It captures the
// operand data and control signals at the decode boundary and holds them
// while the stall signal is high; for tensor operations it stays occupied
// through the done cycle so the arbiter still sees the destination index.
type exLatch struct {
	Valid    bool
	Opcode   uint8
	Dtype    uint8
	Rd       uint8
	RegWrite bool
	IsLoad   bool
	IsStore  bool
	IsTensor bool
	A        uint64 // rs1 data sampled at the decode boundary
	B        uint64 // rs2 data sampled at the decode boundary
}

// Core is the in-order fetch/decode/execute/writeback pipeline.
//
// Each Cycle is a two-phase step: every combinational output and
// next-state value is evaluated from the current registered state, then
// all registered state commits atomically. Nothing reads a component's
// next value within the same tick.
//
// Registered state and its timing:
//
//   - pc presents a word address to instruction memory; the fetched word
//     lands in the fetch register one cycle later.
//   - the decode stage reads the register file combinationally (with the
//     same-cycle write bypass) and the D/EX latch samples at the end of
//     any non-stall cycle.
//   - an integer op executes for one cycle; its result is registered and
//     commits through the arbiter the following cycle. A load issues its
//     address in execute, the memory's returned data is registered, and
//     the delayed load-enable flag commits it the following cycle -
//     highest priority at the arbiter. Tensor ops start in execute and
//     write back on the engine's done cycle.
type Core struct {
	imem *mem.InstructionMemory
	dmem *mem.DataMemory

	regs    *RegisterFile
	pc      ProgramCounter
	hazard  HazardController
	arbiter WritebackArbiter
	engine  *tensor.Engine

	fetchWord  uint32
	fetchValid bool

	ex exLatch

	aluWB  WritebackPort
	loadWB WritebackPort

	lastWriteback uint64
	cycle         uint64

	log *logrus.Entry
}

// NewCore wires a core to its memories. The core comes up as if reset.
func NewCore(imem *mem.InstructionMemory, dmem *mem.DataMemory) *Core {
	return &Core{
		imem:   imem,
		dmem:   dmem,
		regs:   NewRegisterFile(),
		engine: tensor.NewEngine(),
		log:    misc.CoreLogger(),
	}
}

// Regs exposes the register file for host preload and readback.
func (c *Core) Regs() *RegisterFile {
	return c.regs
}

// Engine exposes the tensor engine, mainly for status and tests.
func (c *Core) Engine() *tensor.Engine {
	return c.engine
}

// PC returns the current fetch word address.
func (c *Core) PC() uint32 {
	return c.pc.Value()
}

// Halted reports the sticky halted flag.
func (c *Core) Halted() bool {
	return c.hazard.Halted()
}

// LastWriteback returns the most recent value committed to the register
// file, for the host status surface.
func (c *Core) LastWriteback() uint64 {
	return c.lastWriteback
}

// CycleCount returns the number of cycles executed since reset.
func (c *Core) CycleCount() uint64 {
	return c.cycle
}

// Drained reports that the core has halted and every in-flight
// instruction, tensor job and pending writeback has retired.
func (c *Core) Drained() bool {
	return c.hazard.Halted() && !c.ex.Valid && !c.engine.Busy() &&
		!c.aluWB.Valid && !c.loadWB.Valid
}

// Reset clears all registered state immediately. Memory contents are
// untouched; the host owns those through its own ports.
func (c *Core) Reset() {
	c.pc.Reset()
	c.hazard.Reset()
	c.engine.Reset()
	c.regs.Reset()
	c.fetchWord = 0
	c.fetchValid = false
	c.ex = exLatch{}
	c.aluWB = WritebackPort{}
	c.loadWB = WritebackPort{}
	c.lastWriteback = 0
	c.cycle = 0
}

// tensorOp maps an execute-stage opcode to the engine opcode.
func tensorOp(opcode uint8) tensor.Op {
	if opcode == isa.OpFMA {
		return tensor.OpFMA
	}
	return tensor.OpVMul
}

// wordAddr converts a register value holding a byte address into a data
// memory word address.
func wordAddr(regValue uint64) uint32 {
	return uint32(regValue) >> 3
}

// Cycle advances the core by one clock tick.
func (c *Core) Cycle() {
	// Phase 1: evaluate everything from current state.

	var inst Instruction
	if c.fetchValid {
		inst = Decode(c.fetchWord)
	}

	var tensorWB WritebackPort
	if c.engine.Done() {
		tensorWB = WritebackPort{Valid: true, Rd: c.ex.Rd, Data: c.engine.Result()}
	}
	wb := c.arbiter.Select(c.loadWB, tensorWB, c.aluWB)

	// decode-stage reads, bypassed against the committing write
	rs1Data := c.regs.Read(inst.Rs1, wb)
	rs2Data := c.regs.Read(inst.Rs2, wb)

	haltDecoded := c.fetchValid && inst.IsHalt

	// execute stage
	var nextALU, nextLoad WritebackPort
	var storeAddr uint32
	var storeData uint64
	doStore := false
	tensorStart := false
	exRetiring := false

	if c.ex.Valid {
		switch {
		case c.ex.IsLoad:
			addr := wordAddr(c.ex.A)
			nextLoad = WritebackPort{Valid: true, Rd: c.ex.Rd, Data: c.dmem.Load(addr)}
			exRetiring = true
		case c.ex.IsStore:
			storeAddr = wordAddr(c.ex.A)
			storeData = c.ex.B
			doStore = true
			exRetiring = true
		case c.ex.IsTensor:
			tensorStart = !c.engine.Busy()
			exRetiring = c.engine.Done()
		default:
			nextALU = WritebackPort{
				Valid: c.ex.RegWrite,
				Rd:    c.ex.Rd,
				Data:  IntegerSimd(c.ex.Opcode, c.ex.A, c.ex.B),
			}
			exRetiring = true
		}
	}

	stall := c.hazard.Stall(c.ex.Valid, c.engine.Busy())

	if misc.CoreTrace() {
		c.log.Debugf("cycle=%d pc=%d stall=%t fetch=%08x %-24s wb={v=%t rd=%d data=%016x}",
			c.cycle, c.pc.Value(), stall, c.fetchWord, isa.Disasm(c.fetchWord),
			wb.Valid, wb.Rd, wb.Data)
	}

	// Phase 2: commit all registered state.

	c.regs.Write(wb)
	if wb.Valid {
		c.lastWriteback = wb.Data
	}
	if doStore {
		c.dmem.Store(storeAddr, storeData)
	}

	if tensorStart {
		c.engine.Start(tensorOp(c.ex.Opcode), c.ex.A, c.ex.B, c.ex.B)
	}
	c.engine.Tick()

	c.aluWB = nextALU
	c.loadWB = nextLoad

	if !stall {
		// the execute slot is free: latch the decoded instruction and
		// advance the front end
		if c.fetchValid {
			c.ex = exLatch{
				Valid:    true,
				Opcode:   inst.Opcode,
				Dtype:    inst.Dtype,
				Rd:       inst.Rd,
				RegWrite: inst.RegWrite,
				IsLoad:   inst.IsLoad,
				IsStore:  inst.IsStore,
				IsTensor: inst.IsTensor(),
				A:        rs1Data,
				B:        rs2Data,
			}
		} else {
			c.ex = exLatch{}
		}
		c.fetchWord = c.imem.Fetch(c.pc.Value())
		c.fetchValid = true
	} else if exRetiring {
		c.ex = exLatch{}
	}
	c.pc.Tick(stall)

	c.hazard.NoteHalt(haltDecoded)
	c.cycle++
}
