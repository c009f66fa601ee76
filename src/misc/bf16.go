package misc

import "math"

// Bf16ToFloat32 widens a bfloat16 value to float32. bfloat16 shares the
// float32 exponent range, so widening is a left shift of the stored bits.
// Values with a zero exponent are treated as zero; the hardware has no
// denormal support.
func Bf16ToFloat32(value uint16) float32 {
	sign := uint32(value>>15) & 0x1
	exponent := uint32(value>>7) & 0xFF
	mantissa := uint32(value & 0x7F)

	var bits uint32
	if exponent == 0 {
		bits = sign << 31
	} else {
		bits = (sign << 31) | (exponent << 23) | (mantissa << 16)
	}

	return math.Float32frombits(bits)
}

// Float32ToBf16 narrows a float32 to bfloat16 by truncating the low 16
// mantissa bits, matching the tensor datapath which never rounds. NaN
// payloads are preserved when they survive truncation; a NaN whose payload
// lives entirely in the discarded bits is forced to a quiet NaN so the
// class is not lost. Denormal float32 inputs flush to signed zero.
func Float32ToBf16(value float32) uint16 {
	bits := math.Float32bits(value)

	sign := uint16(bits>>31) & 0x1
	exponent := uint32(bits>>23) & 0xFF
	mantissa := uint32(bits & 0x7FFFFF)

	var half uint16
	if exponent == 0xFF {
		if mantissa == 0 {
			half = (sign << 15) | 0x7F80
		} else if mantissa>>16 == 0 {
			half = (sign << 15) | 0x7F80 | 0x01
		} else {
			half = (sign << 15) | 0x7F80 | uint16(mantissa>>16)
		}
	} else if exponent == 0 {
		half = sign << 15
	} else {
		half = uint16(bits >> 16)
	}

	return half
}
