// Package bf16 implements the pipelined bfloat16 arithmetic units of the
// tensor datapath: a two-stage multiplier and a three-stage adder.
//
// A bfloat16 value is sign(1) | exponent(8, bias 127) | mantissa(7).
// Exponent 0 is zero (no denormal support), exponent 0xFF is infinity when
// the mantissa is zero and NaN otherwise. Every NaN-producing path returns
// the canonical quiet NaN.
//
// Both units are explicit stage machines, not blocking calls: Start may be
// issued once per cycle and Tick advances every stage register, so a new
// operation can enter stage 1 while older ones drain. Within a simulated
// cycle the caller samples Done/Result first, optionally calls Start, then
// calls Tick exactly once.
package bf16

import "math/bits"

const (
	// QuietNaN is the canonical NaN produced by every NaN path.
	QuietNaN uint16 = 0xFF81

	signMask uint16 = 0x8000
	expMask  uint16 = 0x7F80
	manMask  uint16 = 0x007F

	expBias = 127
)

// operand is the unpacked form of one bfloat16 input: classified fields
// plus the 8-bit significand with the hidden bit prepended. Zero operands
// carry a zero significand so the datapath absorbs them without a special
// result path.
type operand struct {
	sign bool
	exp  int
	zero bool
	inf  bool
	nan  bool
	sig  uint16
}

func classify(x uint16) operand {
	o := operand{
		sign: x&signMask != 0,
		exp:  int(x >> 7 & 0xFF),
	}
	man := x & manMask

	switch {
	case o.exp == 0:
		// denormals are treated as zero
		o.zero = true
	case o.exp == 0xFF && man == 0:
		o.inf = true
	case o.exp == 0xFF:
		o.nan = true
	default:
		o.sig = 0x80 | man
	}
	return o
}

// magnitude orders operands by |value| so the adder's big/small selection
// holds even when exponents tie.
func (o operand) magnitude() int {
	return o.exp<<7 | int(o.sig&manMask)
}

func packSign(sign bool) uint16 {
	if sign {
		return signMask
	}
	return 0
}

func signedZero(sign bool) uint16 {
	return packSign(sign)
}

func signedInf(sign bool) uint16 {
	return packSign(sign) | expMask
}

// IsNaN reports whether a raw bfloat16 pattern is any NaN.
func IsNaN(x uint16) bool {
	return x&expMask == expMask && x&manMask != 0
}

// IsInf reports whether a raw bfloat16 pattern is an infinity.
func IsInf(x uint16) bool {
	return x&expMask == expMask && x&manMask == 0
}

// IsZero reports whether a raw bfloat16 pattern reads as zero. Denormals
// count as zero because the hardware flushes them.
func IsZero(x uint16) bool {
	return x&expMask == 0
}

// NegateSign flips the sign bit. Subtraction is an add with the second
// operand's sign flipped; there is no separate subtractor.
func NegateSign(x uint16) uint16 {
	return x ^ signMask
}

func leadingZeros8(x uint16) int {
	return bits.LeadingZeros8(uint8(x))
}
