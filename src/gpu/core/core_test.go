package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/coronado2/ee533-gpu/src/gpu/core"
	"github.com/coronado2/ee533-gpu/src/gpu/mem"
	"github.com/coronado2/ee533-gpu/src/isa"
	"github.com/coronado2/ee533-gpu/src/misc"
)

const imemDepth = 64

// newCore builds a core around a HALT-padded program and a small data
// memory.
func newCore(program []uint32) (*core.Core, *mem.DataMemory) {
	image, err := isa.PadProgram(program, imemDepth)
	Expect(err).NotTo(HaveOccurred())

	imem := mem.NewInstructionMemory(imemDepth)
	Expect(imem.LoadImage(image)).To(Succeed())

	dmem := mem.NewDataMemory(32)
	return core.NewCore(imem, dmem), dmem
}

// drain clocks the core until everything in flight has retired.
func drain(c *core.Core) {
	for i := 0; i < 500; i++ {
		if c.Drained() {
			return
		}
		c.Cycle()
	}
	Fail("core did not drain within 500 cycles")
}

func ints(a, b, c, d int16) uint64 {
	return misc.PackInt16([]int16{a, b, c, d})
}

func floats(a, b, c, d float32) uint64 {
	return misc.PackFloats([]float32{a, b, c, d})
}

var _ = Describe("Decode", func() {
	It("derives the control signals from the opcode", func() {
		ld := core.Decode(isa.Encode(isa.OpLD, isa.DtypeInt16, 1, 0, 0))
		Expect(ld.IsLoad).To(BeTrue())
		Expect(ld.RegWrite).To(BeTrue())
		Expect(ld.IsTensor()).To(BeFalse())

		st := core.Decode(isa.Encode(isa.OpST, isa.DtypeInt16, 0, 0, 3))
		Expect(st.IsStore).To(BeTrue())
		Expect(st.RegWrite).To(BeFalse())

		halt := core.Decode(isa.HaltWord)
		Expect(halt.IsHalt).To(BeTrue())
		Expect(halt.RegWrite).To(BeFalse())
	})

	It("routes only VMUL and FMA to the tensor engine", func() {
		for _, opcode := range []uint8{isa.OpVMUL, isa.OpFMA} {
			Expect(core.Decode(isa.Encode(opcode, isa.DtypeBf16, 1, 2, 3)).IsTensor()).To(BeTrue())
		}
		for _, opcode := range []uint8{isa.OpVADD, isa.OpVSUB, isa.OpRELU, isa.OpLD, isa.OpST} {
			Expect(core.Decode(isa.Encode(opcode, isa.DtypeInt16, 1, 2, 3)).IsTensor()).To(BeFalse())
		}
	})

	It("asserts RegWrite for undefined opcodes", func() {
		inst := core.Decode(isa.Encode(0x9, isa.DtypeInt16, 4, 1, 2))
		Expect(inst.RegWrite).To(BeTrue())
		Expect(inst.IsTensor()).To(BeFalse())
	})
})

var _ = Describe("IntegerSimd", func() {
	It("adds lanes independently with wraparound", func() {
		got := core.IntegerSimd(isa.OpVADD, ints(1, 2, 32767, -1), ints(10, 20, 1, 1))
		Expect(misc.UnpackInt16(got)).To(Equal([4]int16{11, 22, -32768, 0}))
	})

	It("subtracts lanes with wraparound", func() {
		got := core.IntegerSimd(isa.OpVSUB, ints(5, 0, -32768, 100), ints(3, 1, 1, 100))
		Expect(misc.UnpackInt16(got)).To(Equal([4]int16{2, -1, 32767, 0}))
	})

	It("clamps negative lanes to zero for RELU", func() {
		got := core.IntegerSimd(isa.OpRELU, ints(-5, 7, -1, 0), 0)
		Expect(misc.UnpackInt16(got)).To(Equal([4]int16{0, 7, 0, 0}))
	})

	It("produces zero for undefined opcodes", func() {
		Expect(core.IntegerSimd(0x9, ints(1, 2, 3, 4), ints(5, 6, 7, 8))).To(BeZero())
	})
})

var _ = Describe("RegisterFile", func() {
	var rf *core.RegisterFile

	BeforeEach(func() {
		rf = core.NewRegisterFile()
	})

	It("stores and reads back", func() {
		rf.Write(core.WritebackPort{Valid: true, Rd: 3, Data: 42})
		Expect(rf.Read(3, core.WritebackPort{})).To(Equal(uint64(42)))
	})

	It("forwards a same-cycle write to the read port", func() {
		wb := core.WritebackPort{Valid: true, Rd: 7, Data: 99}
		Expect(rf.Read(7, wb)).To(Equal(uint64(99)))
		// other addresses still read the array
		Expect(rf.Read(6, wb)).To(BeZero())
	})

	It("ignores invalid write ports", func() {
		rf.Poke(2, 5)
		rf.Write(core.WritebackPort{Valid: false, Rd: 2, Data: 0xFF})
		Expect(rf.Peek(2)).To(Equal(uint64(5)))
	})

	It("accepts writes to register 15 at the array level", func() {
		// the arbiter suppresses r15, not the storage array
		rf.Write(core.WritebackPort{Valid: true, Rd: 15, Data: 7})
		Expect(rf.Peek(15)).To(Equal(uint64(7)))
	})
})

var _ = Describe("HazardController", func() {
	It("stalls while the execute slot or the tensor engine is occupied", func() {
		var h core.HazardController
		Expect(h.Stall(false, false)).To(BeFalse())
		Expect(h.Stall(true, false)).To(BeTrue())
		Expect(h.Stall(false, true)).To(BeTrue())
	})

	It("latches halt permanently until reset", func() {
		var h core.HazardController
		h.NoteHalt(false)
		Expect(h.Halted()).To(BeFalse())
		h.NoteHalt(true)
		h.NoteHalt(false)
		Expect(h.Halted()).To(BeTrue())
		Expect(h.Stall(false, false)).To(BeTrue())
		h.Reset()
		Expect(h.Halted()).To(BeFalse())
	})
})

var _ = Describe("WritebackArbiter", func() {
	var arb core.WritebackArbiter

	load := core.WritebackPort{Valid: true, Rd: 1, Data: 10}
	tensorPort := core.WritebackPort{Valid: true, Rd: 2, Data: 20}
	alu := core.WritebackPort{Valid: true, Rd: 3, Data: 30}

	It("prefers load over tensor over alu", func() {
		Expect(arb.Select(load, tensorPort, alu)).To(Equal(load))
		Expect(arb.Select(core.WritebackPort{}, tensorPort, alu)).To(Equal(tensorPort))
		Expect(arb.Select(core.WritebackPort{}, core.WritebackPort{}, alu)).To(Equal(alu))
	})

	It("drops a tensor result that collides with a load", func() {
		// one write port: the lower-priority candidate is lost, not queued
		winner := arb.Select(load, tensorPort, core.WritebackPort{})
		Expect(winner.Rd).To(Equal(uint8(1)))
	})

	It("suppresses writes to register 15", func() {
		r15 := core.WritebackPort{Valid: true, Rd: 15, Data: 1}
		Expect(arb.Select(r15, core.WritebackPort{}, core.WritebackPort{}).Valid).To(BeFalse())
		// suppression applies after priority: an r15 load still shadows
		// a tensor write to a live register
		Expect(arb.Select(r15, tensorPort, core.WritebackPort{}).Valid).To(BeFalse())
	})
})

var _ = Describe("Core pipeline", func() {
	It("runs the packed integer add kernel end to end", func() {
		c, dmem := newCore([]uint32{
			isa.Encode(isa.OpLD, isa.DtypeInt16, 6, 1, 0),
			isa.Encode(isa.OpLD, isa.DtypeInt16, 7, 3, 0),
			isa.Encode(isa.OpVADD, isa.DtypeInt16, 8, 7, 6),
			isa.Encode(isa.OpST, isa.DtypeInt16, 0, 5, 8),
			isa.HaltWord,
		})
		// address registers hold byte addresses; the datapath drops the
		// low three bits to form the word address
		c.Regs().Poke(1, 0)
		c.Regs().Poke(3, 8)
		c.Regs().Poke(5, 16)
		Expect(dmem.HostWrite(0, ints(1, 2, 3, 4))).To(Succeed())
		Expect(dmem.HostWrite(1, ints(10, 20, 30, 40))).To(Succeed())

		drain(c)

		stored, err := dmem.HostRead(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(misc.UnpackInt16(stored)).To(Equal([4]int16{11, 22, 33, 44}))
	})

	It("computes a bf16 product through the tensor engine", func() {
		c, _ := newCore([]uint32{
			isa.Encode(isa.OpVMUL, isa.DtypeBf16, 3, 1, 2),
			isa.HaltWord,
		})
		c.Regs().Poke(1, floats(1, 2, 3, 4))
		c.Regs().Poke(2, floats(2, 2, 2, 2))

		drain(c)

		Expect(misc.UnpackFloats(c.Regs().Peek(3))).To(Equal([4]float32{2, 4, 6, 8}))
	})

	It("feeds rs2 into the FMA accumulator", func() {
		// the accumulator input is wired to the rs2 operand, so
		// FMA r3, r1, r2 computes r1*r2 + r2
		c, _ := newCore([]uint32{
			isa.Encode(isa.OpFMA, isa.DtypeBf16, 3, 1, 2),
			isa.HaltWord,
		})
		c.Regs().Poke(1, floats(2, 1, -1, 0))
		c.Regs().Poke(2, floats(3, 4, 2, 5))

		drain(c)

		Expect(misc.UnpackFloats(c.Regs().Peek(3))).To(Equal([4]float32{9, 8, 0, 5}))
	})

	It("stores a tensor result through a dependent store", func() {
		c, dmem := newCore([]uint32{
			isa.Encode(isa.OpVMUL, isa.DtypeBf16, 3, 1, 2),
			isa.Encode(isa.OpST, isa.DtypeInt16, 0, 4, 3),
			isa.HaltWord,
		})
		c.Regs().Poke(1, floats(1.5, 0.5, -2, 0))
		c.Regs().Poke(2, floats(2, 2, 2, 2))
		c.Regs().Poke(4, 24) // byte address of word 3

		drain(c)

		stored, err := dmem.HostRead(3)
		Expect(err).NotTo(HaveOccurred())
		Expect(misc.UnpackFloats(stored)).To(Equal([4]float32{3, 1, -4, 0}))
	})

	It("resolves back-to-back register dependences", func() {
		c, _ := newCore([]uint32{
			isa.Encode(isa.OpVADD, isa.DtypeInt16, 2, 1, 0),
			isa.Encode(isa.OpVADD, isa.DtypeInt16, 3, 2, 2),
			isa.Encode(isa.OpVSUB, isa.DtypeInt16, 4, 3, 1),
			isa.HaltWord,
		})
		c.Regs().Poke(1, ints(1, 2, 3, 4))

		drain(c)

		Expect(misc.UnpackInt16(c.Regs().Peek(2))).To(Equal([4]int16{1, 2, 3, 4}))
		Expect(misc.UnpackInt16(c.Regs().Peek(3))).To(Equal([4]int16{2, 4, 6, 8}))
		Expect(misc.UnpackInt16(c.Regs().Peek(4))).To(Equal([4]int16{1, 2, 3, 4}))
	})

	It("applies integer RELU through the ALU path", func() {
		c, _ := newCore([]uint32{
			isa.Encode(isa.OpRELU, isa.DtypeInt16, 2, 1, 0),
			isa.HaltWord,
		})
		c.Regs().Poke(1, ints(-5, 7, -1, 0))

		drain(c)

		Expect(misc.UnpackInt16(c.Regs().Peek(2))).To(Equal([4]int16{0, 7, 0, 0}))
	})

	It("overwrites the destination with zero for undefined opcodes", func() {
		c, _ := newCore([]uint32{
			isa.Encode(0x9, isa.DtypeInt16, 4, 1, 2),
			isa.HaltWord,
		})
		c.Regs().Poke(4, 0xDEADBEEF)

		drain(c)

		Expect(c.Regs().Peek(4)).To(BeZero())
	})

	It("never writes register 15 but still reads it", func() {
		c, _ := newCore([]uint32{
			isa.Encode(isa.OpLD, isa.DtypeInt16, 15, 1, 0),
			isa.Encode(isa.OpVADD, isa.DtypeInt16, 2, 15, 0),
			isa.HaltWord,
		})
		c.Regs().Poke(15, ints(5, 6, 7, 8))

		drain(c)

		Expect(misc.UnpackInt16(c.Regs().Peek(15))).To(Equal([4]int16{5, 6, 7, 8}))
		Expect(misc.UnpackInt16(c.Regs().Peek(2))).To(Equal([4]int16{5, 6, 7, 8}))
	})

	It("freezes the program counter after halt", func() {
		c, _ := newCore([]uint32{isa.HaltWord})

		drain(c)
		Expect(c.Halted()).To(BeTrue())

		pc := c.PC()
		for i := 0; i < 5; i++ {
			c.Cycle()
		}
		Expect(c.PC()).To(Equal(pc))
	})

	It("reports the last committed writeback on the status surface", func() {
		c, _ := newCore([]uint32{
			isa.Encode(isa.OpVADD, isa.DtypeInt16, 2, 1, 1),
			isa.HaltWord,
		})
		c.Regs().Poke(1, ints(1, 1, 1, 1))

		drain(c)

		Expect(c.LastWriteback()).To(Equal(ints(2, 2, 2, 2)))
	})

	It("clears all core state on reset but preserves memory", func() {
		c, dmem := newCore([]uint32{
			isa.Encode(isa.OpVADD, isa.DtypeInt16, 2, 1, 1),
			isa.HaltWord,
		})
		c.Regs().Poke(1, ints(3, 3, 3, 3))
		Expect(dmem.HostWrite(0, 77)).To(Succeed())

		drain(c)
		Expect(c.Halted()).To(BeTrue())

		c.Reset()
		Expect(c.Halted()).To(BeFalse())
		Expect(c.PC()).To(BeZero())
		Expect(c.CycleCount()).To(BeZero())
		Expect(c.Regs().Peek(1)).To(BeZero())

		kept, err := dmem.HostRead(0)
		Expect(err).NotTo(HaveOccurred())
		Expect(kept).To(Equal(uint64(77)))
	})
})
