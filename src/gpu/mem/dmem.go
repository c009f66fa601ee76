package mem

import "fmt"

// DataMemory is the 64-bit-word data store with independent load and
// store ports plus a host-facing access pair. The platform gates the host
// ports: writes while in reset, readback after halt.
type DataMemory struct {
	words []uint64
}

// NewDataMemory builds a data memory of the given word count.
func NewDataMemory(words int) *DataMemory {
	return &DataMemory{words: make([]uint64, words)}
}

// Words returns the memory size in 64-bit words.
func (m *DataMemory) Words() int {
	return len(m.words)
}

// Load returns the word at a word address. The core registers the value,
// giving the port its one cycle of latency. Addresses wrap modulo the
// size.
func (m *DataMemory) Load(wordAddr uint32) uint64 {
	return m.words[int(wordAddr)%len(m.words)]
}

// Store writes one word. Commits at the clock edge of the calling cycle.
func (m *DataMemory) Store(wordAddr uint32, value uint64) {
	m.words[int(wordAddr)%len(m.words)] = value
}

// HostRead returns one word through the host readback port.
func (m *DataMemory) HostRead(wordAddr int) (uint64, error) {
	if wordAddr < 0 || wordAddr >= len(m.words) {
		return 0, fmt.Errorf("mem: dmem address %d out of range [0,%d)", wordAddr, len(m.words))
	}
	return m.words[wordAddr], nil
}

// HostWrite stores one word through the host port.
func (m *DataMemory) HostWrite(wordAddr int, value uint64) error {
	if wordAddr < 0 || wordAddr >= len(m.words) {
		return fmt.Errorf("mem: dmem address %d out of range [0,%d)", wordAddr, len(m.words))
	}
	m.words[wordAddr] = value
	return nil
}
