package mimicmotion

import (
	"fmt"

	"gocv.io/x/gocv"
)

// FrameChannels is the number of color channels in a Frame
const FrameChannels = 3

// Frame is a single image in the host's tensor convention: float32 values in
// the range [0,1] with height x width x channel (RGB) layout
type Frame struct {
	data []float32
	h    int
	w    int
}

// NewFrame returns a zeroed Frame of the given dimensions
func NewFrame(height, width int) (Frame, error) {

	if height <= 0 || width <= 0 {
		return Frame{}, fmt.Errorf("invalid frame dimensions %dx%d", width, height)
	}

	return Frame{
		data: make([]float32, height*width*FrameChannels),
		h:    height,
		w:    width,
	}, nil
}

// Height returns the frame height in pixels
func (f Frame) Height() int {
	return f.h
}

// Width returns the frame width in pixels
func (f Frame) Width() int {
	return f.w
}

// At returns the value of channel c at pixel (x, y)
func (f Frame) At(y, x, c int) float32 {
	return f.data[(y*f.w+x)*FrameChannels+c]
}

// Set stores the value of channel c at pixel (x, y)
func (f Frame) Set(y, x, c int, val float32) {
	f.data[(y*f.w+x)*FrameChannels+c] = val
}

// FrameFromMat converts an 8-bit BGR gocv.Mat into a Frame.  Values are
// scaled to [0,1] and the channel order swapped to RGB
func FrameFromMat(img gocv.Mat) (Frame, error) {

	if img.Empty() {
		return Frame{}, fmt.Errorf("source Mat is empty")
	}

	if img.Channels() != FrameChannels || img.Type() != gocv.MatTypeCV8UC3 {
		return Frame{}, fmt.Errorf("source Mat must be 8-bit 3 channel, got type %d", img.Type())
	}

	frame, err := NewFrame(img.Rows(), img.Cols())

	if err != nil {
		return Frame{}, err
	}

	buf := img.ToBytes()

	for i := 0; i < len(buf); i += FrameChannels {
		// BGR to RGB
		frame.data[i+0] = float32(buf[i+2]) / 255.0
		frame.data[i+1] = float32(buf[i+1]) / 255.0
		frame.data[i+2] = float32(buf[i+0]) / 255.0
	}

	return frame, nil
}

// ToMat converts the Frame back into an 8-bit BGR gocv.Mat.  Values are
// clamped to [0,1] before scaling to the byte range
func (f Frame) ToMat() (gocv.Mat, error) {

	buf := make([]byte, len(f.data))

	for i := 0; i < len(f.data); i += FrameChannels {
		buf[i+0] = toByte(f.data[i+2])
		buf[i+1] = toByte(f.data[i+1])
		buf[i+2] = toByte(f.data[i+0])
	}

	return gocv.NewMatFromBytes(f.h, f.w, gocv.MatTypeCV8UC3, buf)
}

// toByte clamps a [0,1] value and scales it to a byte
func toByte(val float32) byte {

	if val <= 0 {
		return 0
	}

	if val >= 1 {
		return 255
	}

	return byte(val*255.0 + 0.5)
}

// Tensor is a single image tensor in channel first (CHW) layout as consumed
// and produced by the generation pipeline
type Tensor struct {
	Data     []float32
	Channels int
	Height   int
	Width    int
}

// Conditioning converts the Frame into the pipeline's conditioning layout:
// values normalized from [0,1] to [-1,1], channel first, rounded through the
// model's numeric precision
func (f Frame) Conditioning(p Precision) Tensor {

	t := Tensor{
		Data:     make([]float32, len(f.data)),
		Channels: FrameChannels,
		Height:   f.h,
		Width:    f.w,
	}

	plane := f.h * f.w

	for y := 0; y < f.h; y++ {
		for x := 0; x < f.w; x++ {
			for c := 0; c < FrameChannels; c++ {
				val := f.At(y, x, c)*2.0 - 1.0
				t.Data[c*plane+y*f.w+x] = p.round(val)
			}
		}
	}

	return t
}

// frameFromTensor converts a pipeline output tensor, CHW layout with values
// in [0,1], back into a Frame.  Out of range values are clamped
func frameFromTensor(t Tensor) (Frame, error) {

	if t.Channels != FrameChannels {
		return Frame{}, fmt.Errorf("tensor has %d channels, want %d", t.Channels, FrameChannels)
	}

	if len(t.Data) != t.Channels*t.Height*t.Width {
		return Frame{}, fmt.Errorf("tensor data length %d does not match shape %dx%dx%d",
			len(t.Data), t.Channels, t.Height, t.Width)
	}

	frame, err := NewFrame(t.Height, t.Width)

	if err != nil {
		return Frame{}, err
	}

	plane := t.Height * t.Width

	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			for c := 0; c < FrameChannels; c++ {
				val := t.Data[c*plane+y*t.Width+x]

				if val < 0 {
					val = 0
				} else if val > 1 {
					val = 1
				}

				frame.Set(y, x, c, val)
			}
		}
	}

	return frame, nil
}
