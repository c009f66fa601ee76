package core

// HazardController owns the sticky halted flag and computes the global
// stall. The stall gates the program counter, the fetch register and the
// decode/execute latch. Three conditions stall the front end:
//
//   - halted: a decoded HALT, permanent until reset;
//   - tensor busy: a multi-cycle tensor operation in flight;
//   - execute occupied: an instruction beyond decode that has not reached
//     its writeback cycle. This is the single-issue interlock - with one
//     D/EX latch and no forwarding network, the consumer's decode-stage
//     read must line up with the producer's writeback cycle, where the
//     register file's write-before-read bypass covers it.
type HazardController struct {
	halted bool
}

// NoteHalt latches the sticky halted flag once a HALT is decoded. There
// is no un-halt; reset is the only way to clear it.
func (h *HazardController) NoteHalt(haltDecoded bool) {
	if haltDecoded {
		h.halted = true
	}
}

// Halted reports the sticky halted state.
func (h *HazardController) Halted() bool {
	return h.halted
}

// Stall computes the global stall signal for this cycle.
func (h *HazardController) Stall(executeBusy, tensorBusy bool) bool {
	return h.halted || executeBusy || tensorBusy
}

// Reset clears the halted flag.
func (h *HazardController) Reset() {
	h.halted = false
}
