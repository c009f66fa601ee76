package tensor

import (
	"github.com/sirupsen/logrus"

	"github.com/coronado2/ee533-gpu/src/misc"
)

// Engine is the four-lane bfloat16 tensor unit. Start launches one
// operation across all lanes; Busy holds from the start cycle through the
// done cycle; Done pulses for exactly one cycle when the composed latency
// elapses. At most one operation is in flight engine-wide - the hazard
// controller upstream guarantees no start arrives while busy, and the
// engine asserts that contract rather than defending against it.
type Engine struct {
	lanes [misc.NumLanes]*Lane
	op    Op
	busy  bool

	log *logrus.Entry
}

// NewEngine builds an idle engine.
func NewEngine() *Engine {
	e := &Engine{log: misc.TensorLogger()}
	for i := range e.lanes {
		e.lanes[i] = NewLane()
	}
	return e
}

func lane16(word uint64, i int) uint16 {
	return uint16(word >> (16 * i))
}

// Start launches op over the packed operands. A start while busy is a
// protocol violation by the caller.
func (e *Engine) Start(op Op, a, b, acc uint64) {
	if e.busy {
		panic("tensor: start while busy")
	}
	e.busy = true
	e.op = op
	for i, lane := range e.lanes {
		lane.Start(op, lane16(a, i), lane16(b, i), lane16(acc, i))
	}
	e.log.Debugf("start %s a=%016x b=%016x acc=%016x", op, a, b, acc)
}

// Busy reports whether an operation is in flight, from the start cycle
// through the done cycle inclusive.
func (e *Engine) Busy() bool {
	return e.busy
}

// Done reports whether the packed result is available this cycle. The
// lanes run in lockstep, so lane 0 speaks for all four.
func (e *Engine) Done() bool {
	return e.busy && e.lanes[0].Done()
}

// Result packs the four lane results. Meaningful only while Done is true.
func (e *Engine) Result() uint64 {
	var word uint64
	for i, lane := range e.lanes {
		word |= uint64(lane.Result()) << (16 * i)
	}
	return word
}

// Op returns the operation currently or last in flight.
func (e *Engine) Op() Op {
	return e.op
}

// Tick advances every lane one clock edge and releases the busy gate at
// the end of the done cycle.
func (e *Engine) Tick() {
	if e.Done() {
		e.log.Debugf("done %s result=%016x", e.op, e.Result())
		e.busy = false
	}
	for _, lane := range e.lanes {
		lane.Tick()
	}
}

// Reset clears the engine and all lanes immediately.
func (e *Engine) Reset() {
	e.busy = false
	for _, lane := range e.lanes {
		lane.Reset()
	}
}
