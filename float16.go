package mimicmotion

import "github.com/x448/float16"

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// float16ToFloat32 converts float16 bits to a float32 value via the
// precomputed lookup table
func float16ToFloat32(bits uint16) float32 {
	return f16LookupTable[bits]
}

// float32ToFloat16Bits converts a float32 value to its nearest float16
// representation in bits
func float32ToFloat16Bits(val float32) uint16 {
	return float16.Fromfloat32(val).Bits()
}
