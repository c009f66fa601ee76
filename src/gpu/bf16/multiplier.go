package bf16

// mulInput is the raw operand pair captured by Start, waiting for the next
// clock edge to enter stage 1.
type mulInput struct {
	valid bool
	a, b  uint16
}

// mulStage1 holds the unpack/classify results registered between the two
// pipeline stages.
type mulStage1 struct {
	valid  bool
	sign   bool
	nan    bool
	inf    bool
	zero   bool
	sigA   uint16
	sigB   uint16
	expSum int
}

// Multiplier is the fixed two-cycle pipelined bfloat16 multiplier. A
// multiply may be issued every cycle; its done pulse fires exactly once,
// two cycles after the start pulse.
type Multiplier struct {
	in  mulInput
	s1  mulStage1
	out uint16
	ok  bool
}

// NewMultiplier returns an idle multiplier.
func NewMultiplier() *Multiplier {
	return &Multiplier{}
}

// Start issues one multiply. At most one start per cycle; a second start
// before the next Tick is a protocol violation.
func (m *Multiplier) Start(a, b uint16) {
	if m.in.valid {
		panic("bf16: multiplier start already pending this cycle")
	}
	m.in = mulInput{valid: true, a: a, b: b}
}

// Done reports whether a result is on the output register this cycle. The
// pulse is one cycle wide.
func (m *Multiplier) Done() bool {
	return m.ok
}

// Result returns the output register. Meaningful only while Done is true.
func (m *Multiplier) Result() uint16 {
	return m.out
}

// Tick advances both pipeline stages by one clock edge.
func (m *Multiplier) Tick() {
	m.out, m.ok = m.pack(m.s1)
	m.s1 = m.unpack(m.in)
	m.in = mulInput{}
}

// Reset clears all stage registers.
func (m *Multiplier) Reset() {
	m.in = mulInput{}
	m.s1 = mulStage1{}
	m.out = 0
	m.ok = false
}

// unpack is stage 1: extract fields, classify specials, form the 8-bit
// significands and the exponent sum.
func (m *Multiplier) unpack(in mulInput) mulStage1 {
	if !in.valid {
		return mulStage1{}
	}
	a := classify(in.a)
	b := classify(in.b)

	nan := a.nan || b.nan || (a.inf && b.zero) || (b.inf && a.zero)
	return mulStage1{
		valid:  true,
		sign:   a.sign != b.sign,
		nan:    nan,
		inf:    (a.inf || b.inf) && !nan,
		zero:   a.zero || b.zero,
		sigA:   a.sig,
		sigB:   b.sig,
		expSum: a.exp + b.exp - expBias,
	}
}

// pack is stage 2: the 16-bit significand product, normalization and the
// final special-case selection.
func (m *Multiplier) pack(s mulStage1) (uint16, bool) {
	if !s.valid {
		return 0, false
	}

	switch {
	case s.nan:
		return QuietNaN, true
	case s.inf:
		return signedInf(s.sign), true
	case s.zero:
		return signedZero(s.sign), true
	}

	product := uint32(s.sigA) * uint32(s.sigB)
	exp := s.expSum
	var man uint16
	if product&0x8000 != 0 {
		// significand product in [2,4): renormalize
		exp++
		man = uint16(product>>8) & manMask
	} else {
		man = uint16(product>>7) & manMask
	}

	switch {
	case exp >= 0xFF:
		return signedInf(s.sign), true
	case exp <= 0:
		// flush-to-zero on exponent underflow
		return signedZero(s.sign), true
	}
	return packSign(s.sign) | uint16(exp)<<7 | man, true
}
