package mimicmotion

import (
	"fmt"
	"math"
)

// Precision selects the numeric precision the pipeline components are placed
// at after loading
type Precision int

const (
	PrecisionFP32 Precision = iota
	PrecisionFP16
	PrecisionBF16
)

// String returns a readable name of the precision
func (p Precision) String() string {
	switch p {
	case PrecisionFP32:
		return "fp32"
	case PrecisionFP16:
		return "fp16"
	case PrecisionBF16:
		return "bf16"
	default:
		return fmt.Sprintf("unknown precision %d", int(p))
	}
}

// ParsePrecision converts a precision name used by the host into a Precision
// value
func ParsePrecision(s string) (Precision, error) {

	switch s {
	case "fp32":
		return PrecisionFP32, nil
	case "fp16":
		return PrecisionFP16, nil
	case "bf16":
		return PrecisionBF16, nil
	}

	return PrecisionFP32, fmt.Errorf("unknown precision %q", s)
}

// round quantizes a float32 value through the precision's storage format and
// back again, so conditioning tensors carry the same values the pipeline
// components see at that precision
func (p Precision) round(val float32) float32 {

	switch p {
	case PrecisionFP16:
		return float16ToFloat32(float32ToFloat16Bits(val))
	case PrecisionBF16:
		return roundToBF16(val)
	}

	return val
}

// roundToBF16 rounds a float32 to the nearest bfloat16 representable value
// using round to nearest even on the truncated mantissa
func roundToBF16(val float32) float32 {

	bits := math.Float32bits(val)
	bits += 0x7fff + ((bits >> 16) & 1)

	return math.Float32frombits(bits &^ 0xffff)
}
