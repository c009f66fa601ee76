// Package mem provides the flat memory arrays behind the core's
// fixed-latency ports: a 32-bit instruction memory and a 64-bit data
// memory. The one-cycle port latency is realized by the core registering
// each port's output; the arrays themselves answer combinationally.
package mem

import "fmt"

// InstructionMemory is the 32-bit-word program store. The core fetches
// through Fetch; the host writes through HostWrite or LoadImage, which the
// platform only permits while the core is held in reset.
type InstructionMemory struct {
	words []uint32
}

// NewInstructionMemory builds an instruction memory of depth words.
func NewInstructionMemory(depth int) *InstructionMemory {
	return &InstructionMemory{words: make([]uint32, depth)}
}

// Depth returns the memory size in words.
func (m *InstructionMemory) Depth() int {
	return len(m.words)
}

// Fetch returns the word at a word address. Addresses wrap modulo the
// depth, mirroring the truncated index bits of the RTL array.
func (m *InstructionMemory) Fetch(wordAddr uint32) uint32 {
	return m.words[int(wordAddr)%len(m.words)]
}

// HostWrite stores one program word through the host port.
func (m *InstructionMemory) HostWrite(wordAddr int, word uint32) error {
	if wordAddr < 0 || wordAddr >= len(m.words) {
		return fmt.Errorf("mem: imem address %d out of range [0,%d)", wordAddr, len(m.words))
	}
	m.words[wordAddr] = word
	return nil
}

// LoadImage replaces the full contents with a program image. The image
// must fill the memory exactly; callers pad with HALT first.
func (m *InstructionMemory) LoadImage(image []uint32) error {
	if len(image) != len(m.words) {
		return fmt.Errorf("mem: image of %d words does not fill imem depth %d", len(image), len(m.words))
	}
	copy(m.words, image)
	return nil
}
