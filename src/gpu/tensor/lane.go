// Package tensor implements the four-lane bfloat16 tensor engine. Each
// lane composes one pipelined multiplier and one pipelined adder from the
// bf16 package and operates on a single 16-bit slice of the 64-bit packed
// operands. The engine exposes a start/busy/done handshake to the
// pipeline; done timing equals the composed unit latency exactly.
package tensor

import (
	"github.com/coronado2/ee533-gpu/src/gpu/bf16"
)

// Op selects the lane operation, matching the 3-bit engine opcode.
type Op uint8

const (
	OpVAdd Op = 0
	OpVSub Op = 1
	OpVMul Op = 2
	OpFMA  Op = 3
	OpRelu Op = 4
)

// Fixed operation latencies in cycles from start pulse to done pulse.
const (
	LatencyVAdd = 3
	LatencyVSub = 3
	LatencyVMul = 2
	LatencyFMA  = LatencyVMul + LatencyVAdd
	LatencyRelu = 2
)

// Latency returns the start-to-done latency of an operation.
func Latency(op Op) int {
	switch op {
	case OpVMul:
		return LatencyVMul
	case OpFMA:
		return LatencyFMA
	case OpRelu:
		return LatencyRelu
	default:
		return LatencyVAdd
	}
}

func (op Op) String() string {
	switch op {
	case OpVAdd:
		return "VADD"
	case OpVSub:
		return "VSUB"
	case OpVMul:
		return "VMUL"
	case OpFMA:
		return "FMA"
	case OpRelu:
		return "RELU"
	default:
		return "OP?"
	}
}

// reluStage is one register of the two-deep RELU delay line. RELU is
// combinational but still flows through registers so every operation uses
// the same pipelined handshake.
type reluStage struct {
	valid bool
	value uint16
}

// Lane executes one 16-bit slice of a tensor operation. A lane holds at
// most one operation in flight; the engine-wide busy gate guarantees that.
type Lane struct {
	mul *bf16.Multiplier
	add *bf16.Adder

	op     Op
	active bool

	// FMA chaining: the accumulator parks here until the multiplier
	// delivers the product into the adder.
	acc        uint16
	fmaWaiting bool

	reluIn reluStage
	relu   [2]reluStage
}

// NewLane builds an idle lane.
func NewLane() *Lane {
	return &Lane{
		mul: bf16.NewMultiplier(),
		add: bf16.NewAdder(),
	}
}

// Start issues one operation on this lane's 16-bit slice.
func (l *Lane) Start(op Op, a, b, acc uint16) {
	l.op = op
	l.active = true

	switch op {
	case OpVAdd:
		l.add.Start(a, b)
	case OpVSub:
		// subtract reuses the adder with the sign of b flipped
		l.add.Start(a, bf16.NegateSign(b))
	case OpVMul:
		l.mul.Start(a, b)
	case OpFMA:
		l.mul.Start(a, b)
		l.acc = acc
		l.fmaWaiting = true
	case OpRelu:
		l.reluIn = reluStage{valid: true, value: relu(a)}
	}
}

// relu zeroes negative values of nonzero magnitude. NaN and zero pass
// through unchanged, sign included.
func relu(x uint16) uint16 {
	if x&0x8000 != 0 && !bf16.IsZero(x) && !bf16.IsNaN(x) {
		return 0
	}
	return x
}

// Done reports whether this lane's result is available this cycle.
func (l *Lane) Done() bool {
	if !l.active {
		return false
	}
	switch l.op {
	case OpVAdd, OpVSub:
		return l.add.Done()
	case OpVMul:
		return l.mul.Done()
	case OpFMA:
		return !l.fmaWaiting && l.add.Done()
	case OpRelu:
		return l.relu[1].valid
	}
	return false
}

// Result returns the lane result. Meaningful only while Done is true.
func (l *Lane) Result() uint16 {
	switch l.op {
	case OpVMul:
		return l.mul.Result()
	case OpRelu:
		return l.relu[1].value
	default:
		return l.add.Result()
	}
}

// Tick advances the lane one clock edge: the FMA handoff fires when the
// product is ready, then every stage register shifts.
func (l *Lane) Tick() {
	if l.active && l.op == OpFMA && l.fmaWaiting && l.mul.Done() {
		l.add.Start(l.mul.Result(), l.acc)
		l.fmaWaiting = false
	}
	if l.Done() {
		l.active = false
	}

	l.mul.Tick()
	l.add.Tick()
	l.relu[1] = l.relu[0]
	l.relu[0] = l.reluIn
	l.reluIn = reluStage{}
}

// Reset clears the lane and both sub-units.
func (l *Lane) Reset() {
	l.mul.Reset()
	l.add.Reset()
	l.active = false
	l.fmaWaiting = false
	l.reluIn = reluStage{}
	l.relu = [2]reluStage{}
}
