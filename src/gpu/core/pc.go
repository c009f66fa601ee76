package core

// ProgramCounter is the monotonic word-address counter. It advances by
// one each non-stall cycle and freezes while stalled; once the core halts
// the stall is permanent, so reset is the only way to move it again.
type ProgramCounter struct {
	pc uint32
}

// Value returns the current word address.
func (p *ProgramCounter) Value() uint32 {
	return p.pc
}

// Tick advances the counter unless stalled.
func (p *ProgramCounter) Tick(stall bool) {
	if !stall {
		p.pc++
	}
}

// Reset returns the counter to word address zero.
func (p *ProgramCounter) Reset() {
	p.pc = 0
}
