package dwpose

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// letterBox handles scaling an image to the person detector's input size
// whilst maintaining aspect.  The image is placed at the origin and the
// right and bottom padded with gray, so detected boxes map back to source
// coordinates by dividing out the scale factor alone
type letterBox struct {
	// destWidth and destHeight are the detector input dimensions
	destWidth  int
	destHeight int
	// scale applied to the source image
	scale float32
	// resize dimensions
	resizeW int
	resizeH int
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
}

// letterBoxPad is the padding color used by the YOLOX family
var letterBoxPad = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// newLetterBox returns a letterBox scaling to the given input size
func newLetterBox(destWidth, destHeight int) *letterBox {
	return &letterBox{
		destWidth:  destWidth,
		destHeight: destHeight,
		tempMat:    gocv.NewMat(),
	}
}

// Close frees memory allocated during the resize process
func (l *letterBox) Close() error {
	return l.tempMat.Close()
}

// Resize scales src into dest at the detector input size and records the
// scale factor used
func (l *letterBox) Resize(src gocv.Mat, dest *gocv.Mat) {

	scaleW := float32(l.destWidth) / float32(src.Cols())
	scaleH := float32(l.destHeight) / float32(src.Rows())

	l.scale = scaleH

	if scaleW < scaleH {
		l.scale = scaleW
	}

	l.resizeW = int(float32(src.Cols()) * l.scale)
	l.resizeH = int(float32(src.Rows()) * l.scale)

	gocv.Resize(src, &l.tempMat, image.Pt(l.resizeW, l.resizeH),
		0, 0, gocv.InterpolationLinear)

	gocv.CopyMakeBorder(l.tempMat, dest, 0, l.destHeight-l.resizeH,
		0, l.destWidth-l.resizeW, gocv.BorderConstant, letterBoxPad)
}

// ScaleFactor returns the scale factor applied by the last Resize
func (l *letterBox) ScaleFactor() float32 {
	return l.scale
}
