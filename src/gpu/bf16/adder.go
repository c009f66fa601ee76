package bf16

// addInput is the raw operand pair captured by Start.
type addInput struct {
	valid bool
	a, b  uint16
}

// addStage1 is the align-stage register: specials classified, operands
// ordered by magnitude, the smaller significand pre-shifted.
type addStage1 struct {
	valid    bool
	nan      bool
	inf      bool
	infSign  bool
	sign     bool // sign of the larger-magnitude operand
	subtract bool // operand signs differ
	exp      int  // exponent of the larger-magnitude operand
	bigSig   uint16
	smallSig uint16
}

// addStage2 is the add/sub-stage register: the 9-bit raw sum, bit 8 being
// the carry out.
type addStage2 struct {
	valid   bool
	nan     bool
	inf     bool
	infSign bool
	sign    bool
	exp     int
	sum     uint16
}

// Adder is the fixed three-cycle pipelined bfloat16 adder. Subtraction is
// expressed by the caller flipping the sign of the second operand; the
// datapath itself only adds magnitudes with matching or differing signs.
// An add may be issued every cycle; done fires exactly once, three cycles
// after start.
type Adder struct {
	in  addInput
	s1  addStage1
	s2  addStage2
	out uint16
	ok  bool
}

// NewAdder returns an idle adder.
func NewAdder() *Adder {
	return &Adder{}
}

// Start issues one add. At most one start per cycle.
func (a *Adder) Start(x, y uint16) {
	if a.in.valid {
		panic("bf16: adder start already pending this cycle")
	}
	a.in = addInput{valid: true, a: x, b: y}
}

// Done reports whether a result is on the output register this cycle.
func (a *Adder) Done() bool {
	return a.ok
}

// Result returns the output register. Meaningful only while Done is true.
func (a *Adder) Result() uint16 {
	return a.out
}

// Tick advances all three pipeline stages by one clock edge.
func (a *Adder) Tick() {
	a.out, a.ok = a.normalize(a.s2)
	a.s2 = a.sum(a.s1)
	a.s1 = a.align(a.in)
	a.in = addInput{}
}

// Reset clears all stage registers.
func (a *Adder) Reset() {
	a.in = addInput{}
	a.s1 = addStage1{}
	a.s2 = addStage2{}
	a.out = 0
	a.ok = false
}

// align is stage 1: classify, order the operands by magnitude and shift
// the smaller significand down by the exponent difference. Shifts of 8 or
// more force the small operand to zero; it is too small to affect the
// result.
func (a *Adder) align(in addInput) addStage1 {
	if !in.valid {
		return addStage1{}
	}
	x := classify(in.a)
	y := classify(in.b)

	nan := x.nan || y.nan || (x.inf && y.inf && x.sign != y.sign)
	infSign := x.sign
	if y.inf {
		infSign = y.sign
	}

	big, small := x, y
	if y.magnitude() > x.magnitude() {
		big, small = y, x
	}

	shift := big.exp - small.exp
	smallSig := small.sig
	if shift >= 8 {
		smallSig = 0
	} else {
		smallSig >>= uint(shift)
	}

	return addStage1{
		valid:    true,
		nan:      nan,
		inf:      (x.inf || y.inf) && !nan,
		infSign:  infSign,
		sign:     big.sign,
		subtract: x.sign != y.sign,
		exp:      big.exp,
		bigSig:   big.sig,
		smallSig: smallSig,
	}
}

// sum is stage 2: a 9-bit add when the signs match, otherwise big minus
// small. No borrow can occur because |big| >= |small| by construction; the
// result takes the sign of the larger operand.
func (a *Adder) sum(s addStage1) addStage2 {
	if !s.valid {
		return addStage2{}
	}

	var raw uint16
	if s.subtract {
		raw = s.bigSig - s.smallSig
	} else {
		raw = s.bigSig + s.smallSig
	}

	return addStage2{
		valid:   true,
		nan:     s.nan,
		inf:     s.inf,
		infSign: s.infSign,
		sign:    s.sign,
		exp:     s.exp,
		sum:     raw,
	}
}

// normalize is stage 3: renormalize the raw sum and pack, mirroring the
// multiplier's special-case priority. A carry out shifts right and bumps
// the exponent; otherwise the leading-zero count shifts left and the
// exponent drops by the same amount, flushing to zero on underflow.
func (a *Adder) normalize(s addStage2) (uint16, bool) {
	if !s.valid {
		return 0, false
	}

	switch {
	case s.nan:
		return QuietNaN, true
	case s.inf:
		return signedInf(s.infSign), true
	case s.sum == 0:
		return signedZero(s.sign), true
	}

	exp := s.exp
	var norm uint16
	if s.sum&0x100 != 0 {
		norm = s.sum >> 1
		exp++
	} else {
		lz := leadingZeros8(s.sum)
		norm = s.sum << uint(lz) & 0xFF
		exp -= lz
	}

	switch {
	case exp >= 0xFF:
		return signedInf(s.sign), true
	case exp <= 0:
		return signedZero(s.sign), true
	}
	return packSign(s.sign) | uint16(exp)<<7 | norm&manMask, true
}
