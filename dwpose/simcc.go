package dwpose

import (
	"image"

	"gocv.io/x/gocv"
)

// pose model input size and SimCC decode parameters for dw-ll_ucoco_384
const (
	poseInputWidth  = 288
	poseInputHeight = 384
	// simccSplitRatio is the bin resolution multiplier of the SimCC heads
	simccSplitRatio = 2
	// boxPadScale expands the person box before cropping
	boxPadScale = 1.25
	// wholeBodyPoints is the UCOCO whole body keypoint count: 17 body, 6
	// feet, 68 face, 42 hands
	wholeBodyPoints = 133
)

// pose model input normalization values (RGB)
var (
	poseMean = [3]float32{123.675, 116.28, 103.53}
	poseStd  = [3]float32{58.395, 57.12, 57.375}
)

// cropRegion is the source region warped into the pose model input
type cropRegion struct {
	// centerX and centerY of the region
	centerX float64
	centerY float64
	// width and height of the region, aspect locked to the model input
	width  float64
	height float64
}

// cropFromBox derives the crop region for a person box: the box center and
// size, fixed to the model input aspect ratio and padded
func cropFromBox(box boxRect) cropRegion {

	w := float64(box.Right - box.Left)
	h := float64(box.Bottom - box.Top)

	// lock aspect ratio to the model input
	aspect := float64(poseInputWidth) / float64(poseInputHeight)

	if w > aspect*h {
		h = w / aspect
	} else {
		w = h * aspect
	}

	return cropRegion{
		centerX: float64(box.Left) + float64(box.Right-box.Left)/2,
		centerY: float64(box.Top) + float64(box.Bottom-box.Top)/2,
		width:   w * boxPadScale,
		height:  h * boxPadScale,
	}
}

// warpCrop warps the crop region of src into dest at the pose model input
// size.  Out of bounds areas are filled with black
func warpCrop(src gocv.Mat, region cropRegion, dest *gocv.Mat) error {

	sx := float64(poseInputWidth) / region.width
	sy := float64(poseInputHeight) / region.height

	// affine mapping the region's top left corner to the origin at the
	// input scale
	m := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	defer m.Close()

	m.SetDoubleAt(0, 0, sx)
	m.SetDoubleAt(0, 1, 0)
	m.SetDoubleAt(0, 2, -sx*(region.centerX-region.width/2))
	m.SetDoubleAt(1, 0, 0)
	m.SetDoubleAt(1, 1, sy)
	m.SetDoubleAt(1, 2, -sy*(region.centerY-region.height/2))

	gocv.WarpAffine(src, dest, m, image.Pt(poseInputWidth, poseInputHeight))

	return nil
}

// decodeSimCC decodes the SimCC classification heads into keypoint locations
// in model input space plus per keypoint scores.  Each keypoint has an x and
// y bin vector, the location is the argmax divided by the split ratio and
// the score is the mean of the two bin maxima
func decodeSimCC(simccX, simccY []float32) ([]Point, []float64) {

	xBins := len(simccX) / wholeBodyPoints
	yBins := len(simccY) / wholeBodyPoints

	points := make([]Point, wholeBodyPoints)
	scores := make([]float64, wholeBodyPoints)

	for k := 0; k < wholeBodyPoints; k++ {

		xLoc, xVal := argmax(simccX[k*xBins : (k+1)*xBins])
		yLoc, yVal := argmax(simccY[k*yBins : (k+1)*yBins])

		points[k] = Point{
			X: float64(xLoc) / simccSplitRatio,
			Y: float64(yLoc) / simccSplitRatio,
		}

		scores[k] = float64(xVal+yVal) / 2
	}

	return points, scores
}

// argmax returns the index and value of the largest element
func argmax(vals []float32) (int, float32) {

	best := 0

	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}

	return best, vals[best]
}

// toImageSpace maps keypoints from model input space back into source image
// coordinates for the crop region they were detected in
func (r cropRegion) toImageSpace(points []Point) []Point {

	out := make([]Point, len(points))

	for i, p := range points {
		out[i] = Point{
			X: p.X/float64(poseInputWidth)*r.width + r.centerX - r.width/2,
			Y: p.Y/float64(poseInputHeight)*r.height + r.centerY - r.height/2,
		}
	}

	return out
}
