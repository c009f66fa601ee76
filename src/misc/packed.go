package misc

// NumLanes is the number of 16-bit lanes in a packed 64-bit register word.
const NumLanes = 4

// PackInt16 packs four signed 16-bit values into one 64-bit word, lane i
// occupying bits [16i+15:16i]. Extra inputs are ignored; missing lanes
// read as zero.
func PackInt16(lanes []int16) uint64 {
	var word uint64
	for i := 0; i < NumLanes && i < len(lanes); i++ {
		word |= uint64(uint16(lanes[i])) << (16 * i)
	}
	return word
}

// UnpackInt16 splits a 64-bit word into four signed 16-bit lanes.
func UnpackInt16(word uint64) [NumLanes]int16 {
	var lanes [NumLanes]int16
	for i := 0; i < NumLanes; i++ {
		lanes[i] = int16(uint16(word >> (16 * i)))
	}
	return lanes
}

// PackBf16 packs four raw bfloat16 bit patterns into one 64-bit word.
func PackBf16(lanes []uint16) uint64 {
	var word uint64
	for i := 0; i < NumLanes && i < len(lanes); i++ {
		word |= uint64(lanes[i]) << (16 * i)
	}
	return word
}

// UnpackBf16 splits a 64-bit word into four raw bfloat16 bit patterns.
func UnpackBf16(word uint64) [NumLanes]uint16 {
	var lanes [NumLanes]uint16
	for i := 0; i < NumLanes; i++ {
		lanes[i] = uint16(word >> (16 * i))
	}
	return lanes
}

// PackFloats converts up to four float32 values to bfloat16 and packs them.
func PackFloats(values []float32) uint64 {
	var word uint64
	for i := 0; i < NumLanes && i < len(values); i++ {
		word |= uint64(Float32ToBf16(values[i])) << (16 * i)
	}
	return word
}

// UnpackFloats widens the four bfloat16 lanes of a word to float32.
func UnpackFloats(word uint64) [NumLanes]float32 {
	var values [NumLanes]float32
	for i := 0; i < NumLanes; i++ {
		values[i] = Bf16ToFloat32(uint16(word >> (16 * i)))
	}
	return values
}
